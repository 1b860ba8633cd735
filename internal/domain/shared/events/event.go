// Package events defines the domain event contracts shared by the
// aggregates and a small synchronous dispatcher for in-process delivery.
package events

import "time"

// DomainEvent is implemented by every event the aggregates emit.
type DomainEvent interface {
	// GetAggregateID identifies the aggregate that produced the event.
	GetAggregateID() string

	// GetEventType names the event, e.g. "license.key.created".
	GetEventType() string

	// GetOccurredAt reports when the event happened.
	GetOccurredAt() time.Time

	// GetVersion is the event schema version.
	GetVersion() int
}

// BaseEvent carries the fields common to all domain events. Concrete
// events embed it and add their own payload.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetOccurredAt() time.Time { return e.OccurredAt }
func (e BaseEvent) GetVersion() int          { return e.Version }

// EventPublisher is the outbound port use cases publish through.
type EventPublisher interface {
	Publish(event DomainEvent) error
	PublishAll(events []DomainEvent) error
}

// Handler consumes a single domain event.
type Handler func(event DomainEvent) error
