package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes every emitted event to the structured log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, ev DomainEvent) error {
	n.Log.Info().
		Str("topic", ev.Topic).
		Str("eventId", ev.ID.String()).
		Str("aggregateId", ev.AggregateID.String()).
		Time("occurredAt", ev.OccurredAt).
		Msg("domain event emitted")
	return nil
}
