package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerEvent announces that the ledger was saved after a command.
// Consumers re-read the ledger for details; the event only carries what
// changed and the revision it produced.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entityId,omitempty"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind, entityID string, revision int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		EntityID:  entityID,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects ones without a kind.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, errors.New("ledger event without kind")
	}
	return &msg, nil
}
