// Package gateway is the chat transport boundary. The external messaging
// platform delivers inbound (user_id, text) events on one queue and renders
// whatever the bot publishes on another; this package owns both sides plus
// the per-user dispatch that keeps one user's turns strictly ordered.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	exchangeName  string
	inboundQueue  string
	outboundQueue string
	exportQueue   string
}

func NewClient(url, exchangeName, inboundQueue, outboundQueue, exportQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:          conn,
		channel:       channel,
		exchangeName:  exchangeName,
		inboundQueue:  inboundQueue,
		outboundQueue: outboundQueue,
		exportQueue:   exportQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.inboundQueue, c.outboundQueue, c.exportQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key matches the queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// PublishReply sends one outbound chat turn to the transport adapter.
func (c *Client) PublishReply(ctx context.Context, msg *OutboundMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	if err := c.publish(ctx, c.outboundQueue, body); err != nil {
		return fmt.Errorf("publish reply: %w", err)
	}

	slog.DebugContext(ctx, "Published reply",
		"message_id", msg.MessageID,
		"user_id", msg.UserID)
	return nil
}

// RequestMonthlyReport implements engine.ReportRequester.
func (c *Client) RequestMonthlyReport(ctx context.Context, yearMonth string) error {
	msg := NewReportRequestMessage(yearMonth)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal report request: %w", err)
	}
	if err := c.publish(ctx, c.exportQueue, body); err != nil {
		return fmt.Errorf("publish report request: %w", err)
	}

	slog.InfoContext(ctx, "Published report request",
		"message_id", msg.MessageID,
		"year_month", yearMonth)
	return nil
}

// ConsumeInbound feeds inbound chat events to the handler until the context
// ends. Malformed messages are rejected without requeue; handler errors
// requeue the delivery.
func (c *Client) ConsumeInbound(ctx context.Context, handler func(*InboundMessage) error) error {
	msgs, err := c.channel.Consume(
		c.inboundQueue, // queue
		"",             // consumer
		false,          // auto-ack (we want manual ack)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming chat events", "queue", c.inboundQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping chat event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := InboundMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal chat event", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle chat event",
					"error", err,
					"message_id", msg.MessageID,
					"user_id", msg.UserID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

// ConsumeReportRequests feeds export requests to the handler until the
// context ends. Used by the export worker.
func (c *Client) ConsumeReportRequests(ctx context.Context, handler func(*ReportRequestMessage) error) error {
	msgs, err := c.channel.Consume(c.exportQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming report requests", "queue", c.exportQueue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ReportRequestMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal report request", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle report request",
					"error", err,
					"message_id", msg.MessageID,
					"year_month", msg.YearMonth)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
