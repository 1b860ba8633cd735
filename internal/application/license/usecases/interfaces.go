package usecases

import (
	"context"

	"keymint/internal/domain/shared/events"
)

// TransactionManager runs a function inside a database transaction carried
// through the context.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher re-exports the domain publisher so use cases depend on
// this package only.
type EventPublisher = events.EventPublisher

// nopPublisher swallows events when no dispatcher is wired in.
type nopPublisher struct{}

func (nopPublisher) Publish(events.DomainEvent) error      { return nil }
func (nopPublisher) PublishAll([]events.DomainEvent) error { return nil }

// NopPublisher returns a publisher that drops every event.
func NopPublisher() EventPublisher {
	return nopPublisher{}
}
