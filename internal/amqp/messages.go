package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerChangeMessage announces a committed ledger mutation. It carries no
// amounts: consumers rescan the store for the current state.
type LedgerChangeMessage struct {
	MessageID string    `json:"message_id"`
	Op        string    `json:"op"`
	RecordID  int64     `json:"record_id,omitempty"`
	Period    string    `json:"period,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage stamps a change with a fresh message ID.
func NewLedgerChangeMessage(op string, recordID int64, period string) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		MessageID: uuid.NewString(),
		Op:        op,
		RecordID:  recordID,
		Period:    period,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes a delivery body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
