package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventEnvelope is the shared v1 envelope. Payload is strongly typed when
// publishing and json.RawMessage when decoding.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// EventMeta carries correlation context for emitted events.
type EventMeta struct {
	CorrelationID string
	CausationID   string
	PartitionKey  string
}

func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return errors.New("missing partitionKey")
	}
	if e.EventID == "" {
		return errors.New("missing eventId")
	}
	return nil
}

// message is a decoded event in either wire format. Envelope is nil for
// legacy flat events.
type message[T any] struct {
	Envelope *EventEnvelope[json.RawMessage]
	Payload  T
}

// decode accepts a v1 envelope or, when the body has no eventName, a legacy
// flat event whose fields are the payload itself.
func decode[T any](body []byte, name string, version int) (message[T], error) {
	var probe struct {
		EventName string `json:"eventName"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return message[T]{}, fmt.Errorf("unmarshal %s: %w", name, err)
	}

	var out message[T]
	if probe.EventName == "" {
		if err := json.Unmarshal(body, &out.Payload); err != nil {
			return message[T]{}, fmt.Errorf("unmarshal legacy %s: %w", name, err)
		}
		return out, nil
	}

	var env EventEnvelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return message[T]{}, fmt.Errorf("unmarshal %s envelope: %w", name, err)
	}
	if err := env.Validate(name, version); err != nil {
		return message[T]{}, err
	}
	if err := json.Unmarshal(env.Payload, &out.Payload); err != nil {
		return message[T]{}, fmt.Errorf("unmarshal %s payload: %w", name, err)
	}
	out.Envelope = &env
	return out, nil
}
