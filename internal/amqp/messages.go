package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operation says what happened to a movement.
type Operation string

const (
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
)

// MovementEvent announces a change to a movement. It carries only ids; the
// consumer reads the current row from the database.
type MovementEvent struct {
	EventID    string    `json:"event_id"`
	MovementID int64     `json:"movement_id"`
	Operation  Operation `json:"operation"`
	Version    int64     `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
}

var ErrInvalidEvent = errors.New("invalid movement event")

func NewMovementEvent(movementID, version int64, op Operation) *MovementEvent {
	return &MovementEvent{
		EventID:    uuid.NewString(),
		MovementID: movementID,
		Operation:  op,
		Version:    version,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *MovementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *MovementEvent) Validate() error {
	if m.MovementID <= 0 {
		return fmt.Errorf("%w: movement id %d", ErrInvalidEvent, m.MovementID)
	}
	if m.Operation != OpUpsert && m.Operation != OpDelete {
		return fmt.Errorf("%w: operation %q", ErrInvalidEvent, m.Operation)
	}
	return nil
}

// MovementEventFromJSON decodes and validates an event body.
func MovementEventFromJSON(data []byte) (*MovementEvent, error) {
	var msg MovementEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
