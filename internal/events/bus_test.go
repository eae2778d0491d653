package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agora-dev/backend-agora/internal/events"
)

type stubStore struct {
	lastTopic   string
	lastPayload []byte
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.DomainEvent, error) {
	s.lastTopic = topic
	s.lastPayload = payload
	return events.DomainEvent{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureNotifier struct {
	events []events.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	producerID := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicShippingRatesReplaced, producerID, map[string]any{"accepted": 3})
	require.NoError(t, err)
	require.Equal(t, events.TopicShippingRatesReplaced, ev.Topic)
	require.Equal(t, producerID, ev.AggregateID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(store.lastPayload, &decoded))
	require.EqualValues(t, 3, decoded["accepted"])
	require.Len(t, notifier.events, 1)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "  ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicShippingRatesReplaced, uuid.Nil, nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicShippingRatesReplaced, uuid.New(), []byte("{not json"))
	require.Error(t, err)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	notifier := &captureNotifier{err: errors.New("boom")}
	bus := &events.Bus{Store: &stubStore{}, Notifiers: []events.Notifier{notifier}}
	_, err := bus.Emit(context.Background(), events.TopicShippingRatesReplaced, uuid.New(), nil)
	require.Error(t, err)
	require.Len(t, notifier.events, 1)
}
