package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerbot/internal/engine"
)

// ReplyPublisher sends an outbound chat turn back to the transport.
type ReplyPublisher interface {
	PublishReply(ctx context.Context, msg *OutboundMessage) error
}

// inboxSize bounds each user's pending messages; a full inbox applies
// backpressure on the consumer rather than reordering or dropping turns.
const inboxSize = 16

// Dispatcher routes inbound chat events to one worker per user. Each worker
// owns that user's session and processes messages strictly in arrival order,
// so no session is ever touched concurrently. Different users proceed in
// parallel.
type Dispatcher struct {
	engine    *engine.Engine
	publisher ReplyPublisher

	mu      sync.Mutex
	inboxes map[int64]chan *InboundMessage
	group   *errgroup.Group
	ctx     context.Context
}

func NewDispatcher(eng *engine.Engine, publisher ReplyPublisher) *Dispatcher {
	return &Dispatcher{
		engine:    eng,
		publisher: publisher,
		inboxes:   make(map[int64]chan *InboundMessage),
	}
}

// Start prepares the dispatcher to spawn workers under the given context.
// Must be called before Dispatch.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.group, d.ctx = errgroup.WithContext(ctx)
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() error {
	d.mu.Lock()
	group := d.group
	d.mu.Unlock()
	if group == nil {
		return nil
	}
	return group.Wait()
}

// Dispatch hands an inbound message to its user's worker, creating the
// worker (and a fresh session) on first contact.
func (d *Dispatcher) Dispatch(msg *InboundMessage) error {
	d.mu.Lock()
	inbox, ok := d.inboxes[msg.UserID]
	if !ok {
		inbox = make(chan *InboundMessage, inboxSize)
		d.inboxes[msg.UserID] = inbox
		sess := engine.NewSession()
		userID := msg.UserID
		d.group.Go(func() error {
			d.runWorker(userID, sess, inbox)
			return nil
		})
		slog.Info("Conversation started", "user_id", msg.UserID)
	}
	d.mu.Unlock()

	select {
	case inbox <- msg:
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// runWorker is the single goroutine allowed to touch one user's session.
func (d *Dispatcher) runWorker(userID int64, sess *engine.Session, inbox <-chan *InboundMessage) {
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-inbox:
			reply := d.engine.Handle(d.ctx, sess, msg.Text)
			out := &OutboundMessage{
				MessageID: msg.MessageID,
				UserID:    userID,
				Text:      reply.Text,
				Keyboard:  reply.Keyboard,
				Timestamp: time.Now(),
			}
			if err := d.publisher.PublishReply(d.ctx, out); err != nil {
				slog.ErrorContext(d.ctx, "Failed to publish reply",
					"error", err,
					"message_id", msg.MessageID,
					"user_id", userID)
			}
		}
	}
}
