package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage notifies workers that a transaction was
// persisted. It carries only the ID; consumers fetch the full record
// from the database.
type TransactionRecordedMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// RateTierMessage notifies collaborators which fallback tier served the
// last rate refresh, so the UI can warn about saved or built-in rates.
type RateTierMessage struct {
	Tier      string    `json:"tier"`
	AsOf      time.Time `json:"asOf"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{ID: id, Timestamp: time.Now()}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func NewRateTierMessage(tier string, asOf time.Time) *RateTierMessage {
	return &RateTierMessage{Tier: tier, AsOf: asOf, Timestamp: time.Now()}
}

func (m *RateTierMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
