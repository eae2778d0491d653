package rateimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agora-dev/backend-agora/internal/events"
	"github.com/agora-dev/backend-agora/internal/lock"
	"github.com/agora-dev/backend-agora/internal/obs"
	"github.com/agora-dev/backend-agora/internal/rate"
)

// Store persists a producer's validated override table in a single
// transaction: delete everything, insert the new rows, commit. Any failure
// rolls the delete back as well.
type Store interface {
	ReplaceProducerRates(ctx context.Context, producerID uuid.UUID, rows []rate.ProducerRate) error
}

// LookupSource loads the reference tables rows are validated against.
type LookupSource interface {
	ShippingLookups(ctx context.Context) (Lookups, error)
}

// Invalidator drops cached reference snapshots after a committed replace.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result reports a committed import.
type Result struct {
	Accepted int `json:"accepted"`
}

// Service validates and atomically replaces a producer's override rate table.
type Service struct {
	Store  Store
	Source LookupSource
	Cache  Invalidator
	Events *events.Bus
	// Lock serialises concurrent imports for the same producer. The database
	// transaction already guarantees atomicity; the lock only avoids two
	// uploads racing for last-writer-wins within the same second.
	Lock lock.Locker
	Log  zerolog.Logger
}

// Import runs the whole-table replace. The input is rejected as a unit when
// the header deviates from the expected schema or any row fails validation;
// in both cases nothing is persisted and the complete error list is returned
// as a *ValidationError.
func (s *Service) Import(ctx context.Context, producerID uuid.UUID, header []string, rows [][]string) (Result, error) {
	if s == nil || s.Store == nil || s.Source == nil {
		return Result{}, errors.New("rate import service not configured")
	}
	index, verr := validateHeader(header)
	if verr != nil {
		obs.ObserveRateImport("rejected_header")
		return Result{}, verr
	}
	lookups, err := s.Source.ShippingLookups(ctx)
	if err != nil {
		obs.ObserveRateImport("error")
		return Result{}, fmt.Errorf("load shipping lookups: %w", err)
	}
	validated, verr := validateRows(producerID, index, rows, lookups)
	if verr != nil {
		obs.ObserveRateImport("rejected_rows")
		return Result{}, verr
	}
	err = s.Lock.WithLock(ctx, lock.ImportKey(producerID), 30*time.Second, func(ctx context.Context) error {
		return s.Store.ReplaceProducerRates(ctx, producerID, validated)
	})
	if err != nil {
		obs.ObserveRateImport("rolled_back")
		return Result{}, fmt.Errorf("replace producer rates: %w", err)
	}
	obs.ObserveRateImport("committed")
	s.afterCommit(ctx, producerID, len(validated))
	return Result{Accepted: len(validated)}, nil
}

// afterCommit performs best-effort cache invalidation and event emission.
// The replace has already committed; failures here are only logged.
func (s *Service) afterCommit(ctx context.Context, producerID uuid.UUID, accepted int) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Log.Warn().Err(err).Str("producer_id", producerID.String()).Msg("invalidate shipping snapshot cache")
		}
	}
	if s.Events != nil {
		payload := map[string]any{
			"producerId": producerID.String(),
			"accepted":   accepted,
		}
		if _, err := s.Events.Emit(ctx, events.TopicShippingRatesReplaced, producerID, payload); err != nil {
			s.Log.Warn().Err(err).Str("producer_id", producerID.String()).Msg("emit rates replaced event")
		}
	}
}
