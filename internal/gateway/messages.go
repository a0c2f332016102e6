package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InboundMessage is one chat event delivered by the transport adapter:
// a user said something.
type InboundMessage struct {
	MessageID string    `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// OutboundMessage is one reply for the transport adapter to render. Keyboard
// rows are suggested reply options with no semantics beyond their literal
// text. MessageID echoes the inbound message that produced the reply.
type OutboundMessage struct {
	MessageID string     `json:"message_id"`
	UserID    int64      `json:"user_id"`
	Text      string     `json:"text"`
	Keyboard  [][]string `json:"keyboard,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ReportRequestMessage asks the export worker to publish one month's
// category report.
type ReportRequestMessage struct {
	MessageID string    `json:"message_id"`
	YearMonth string    `json:"year_month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportRequestMessage(yearMonth string) *ReportRequestMessage {
	return &ReportRequestMessage{
		MessageID: uuid.NewString(),
		YearMonth: yearMonth,
		Timestamp: time.Now(),
	}
}

func (m *InboundMessage) ToJSON() ([]byte, error)       { return json.Marshal(m) }
func (m *OutboundMessage) ToJSON() ([]byte, error)      { return json.Marshal(m) }
func (m *ReportRequestMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func InboundMessageFromJSON(data []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
