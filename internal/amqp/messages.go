package amqp

import (
	"encoding/json"
	"time"
)

// Action tells the worker what to do with the referenced transaction.
type Action string

const (
	ActionSync   Action = "sync"
	ActionDelete Action = "delete"
)

// TransactionMessage is the lightweight queue payload: just the action and
// the transaction ID. The worker fetches the full row from the database,
// so a stale message never carries stale data.
type TransactionMessage struct {
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionSyncMessage builds a message asking the worker to mirror
// the transaction to the external sheet.
func NewTransactionSyncMessage(id int64) *TransactionMessage {
	return &TransactionMessage{
		Action:    ActionSync,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// NewTransactionDeleteMessage builds a message asking the worker to mark
// the transaction deleted on the external sheet.
func NewTransactionDeleteMessage(id int64) *TransactionMessage {
	return &TransactionMessage{
		Action:    ActionDelete,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionMessageFromJSON creates a message from JSON bytes
func TransactionMessageFromJSON(data []byte) (*TransactionMessage, error) {
	var msg TransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
