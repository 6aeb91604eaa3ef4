package amqp

import (
	"encoding/json"
	"time"
)

// SubscriptionSyncMessage tells the sync worker a subscription changed.
// Only the ID and version travel on the wire, the worker fetches the
// full row from the database. Deleted rows carry the flag so the worker
// removes the mirror entry instead.
type SubscriptionSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Deleted   bool      `json:"deleted"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSubscriptionSyncMessage creates a sync message for an upsert.
func NewSubscriptionSyncMessage(id string, version int64) *SubscriptionSyncMessage {
	return &SubscriptionSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewSubscriptionDeleteMessage creates a sync message for a deletion.
func NewSubscriptionDeleteMessage(id string, version int64) *SubscriptionSyncMessage {
	return &SubscriptionSyncMessage{
		ID:        id,
		Version:   version,
		Deleted:   true,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SubscriptionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SubscriptionSyncMessageFromJSON creates a message from JSON bytes.
func SubscriptionSyncMessageFromJSON(data []byte) (*SubscriptionSyncMessage, error) {
	var msg SubscriptionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
