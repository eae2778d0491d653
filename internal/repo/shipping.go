package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/agora-dev/backend-agora/internal/cache"
	"github.com/agora-dev/backend-agora/internal/events"
	"github.com/agora-dev/backend-agora/internal/freeship"
	"github.com/agora-dev/backend-agora/internal/obs"
	"github.com/agora-dev/backend-agora/internal/quote"
	"github.com/agora-dev/backend-agora/internal/rate"
	"github.com/agora-dev/backend-agora/internal/rateimport"
	"github.com/agora-dev/backend-agora/internal/weight"
	"github.com/agora-dev/backend-agora/internal/zone"
)

// ShippingRepo loads the shipping reference tables from Postgres and owns
// the producer-scoped bulk replace transaction. Reads go through a Redis
// snapshot cache when one is configured; cache failures fall through to the
// database.
type ShippingRepo struct {
	Pool *pgxpool.Pool
	// Cache holds the serialised reference snapshot. Optional.
	Cache *cache.Cache
	// DefaultZoneCode is forwarded to the zone resolver; empty means
	// unmatched postal codes hard-fail.
	DefaultZoneCode string
	Log             zerolog.Logger
}

// snapshotData is the raw reference set as stored, JSON-serialisable for the cache.
type snapshotData struct {
	Zones           []zone.Zone            `json:"zones"`
	PostalRules     []zone.PostalRule      `json:"postalRules"`
	Tiers           []weight.Tier          `json:"tiers"`
	Methods         []rate.Method          `json:"methods"`
	DefaultRates    []defaultRateRow       `json:"defaultRates"`
	ProducerRates   []producerRateRow      `json:"producerRates"`
	ProducerMethods []producerMethodRow    `json:"producerMethods"`
	FreeShipping    []freeShippingRuleJSON `json:"freeShipping"`
}

type defaultRateRow struct {
	ZoneID     int64 `json:"zoneId"`
	MethodID   int64 `json:"methodId"`
	TierID     int64 `json:"tierId"`
	PriceMinor int64 `json:"priceMinor"`
}

type producerRateRow struct {
	ProducerID uuid.UUID `json:"producerId"`
	ZoneID     int64     `json:"zoneId"`
	MethodID   int64     `json:"methodId"`
	TierID     int64     `json:"tierId"`
	PriceMinor int64     `json:"priceMinor"`
}

type producerMethodRow struct {
	ProducerID uuid.UUID `json:"producerId"`
	MethodID   int64     `json:"methodId"`
	Enabled    bool      `json:"enabled"`
}

type freeShippingRuleJSON struct {
	ID             int64     `json:"id"`
	ProducerID     uuid.UUID `json:"producerId"`
	ZoneID         *int64    `json:"zoneId"`
	MethodID       *int64    `json:"methodId"`
	ThresholdMinor int64     `json:"thresholdMinor"`
	Active         bool      `json:"active"`
}

// ShippingTables loads the reference snapshot and assembles the request-scoped resolvers.
func (r *ShippingRepo) ShippingTables(ctx context.Context) (quote.Tables, error) {
	data, err := r.snapshot(ctx)
	if err != nil {
		return quote.Tables{}, err
	}
	return buildTables(data, r.DefaultZoneCode)
}

// ShippingLookups exposes the lookup subset used by the rate import validator.
func (r *ShippingRepo) ShippingLookups(ctx context.Context) (rateimport.Lookups, error) {
	tables, err := r.ShippingTables(ctx)
	if err != nil {
		return rateimport.Lookups{}, err
	}
	return rateimport.Lookups{
		Zones:   tables.Zones,
		Tiers:   tables.Weights,
		Methods: tables.Rates,
	}, nil
}

// Invalidate drops the cached snapshot after reference data changes.
func (r *ShippingRepo) Invalidate(ctx context.Context) error {
	return r.Cache.Delete(ctx, cache.KeyShippingSnapshot)
}

func (r *ShippingRepo) snapshot(ctx context.Context) (snapshotData, error) {
	var data snapshotData
	if r.Cache != nil {
		found, err := r.Cache.GetJSON(ctx, cache.KeyShippingSnapshot, &data)
		if err != nil {
			obs.ObserveSnapshotCache("error")
			r.Log.Debug().Err(err).Msg("shipping snapshot cache read")
		} else if found {
			obs.ObserveSnapshotCache("hit")
			return data, nil
		} else {
			obs.ObserveSnapshotCache("miss")
		}
	}
	data, err := r.loadSnapshot(ctx)
	if err != nil {
		return snapshotData{}, err
	}
	if r.Cache != nil {
		if err := r.Cache.SetJSON(ctx, cache.KeyShippingSnapshot, data); err != nil {
			r.Log.Debug().Err(err).Msg("shipping snapshot cache write")
		}
	}
	return data, nil
}

func (r *ShippingRepo) loadSnapshot(ctx context.Context) (snapshotData, error) {
	if r == nil || r.Pool == nil {
		return snapshotData{}, errors.New("shipping repo not configured")
	}
	var data snapshotData
	var err error
	if data.Zones, err = loadRows(ctx, r.Pool,
		`SELECT id, code, name, active FROM shipping_zones`,
		func(row pgx.Rows) (zone.Zone, error) {
			var z zone.Zone
			err := row.Scan(&z.ID, &z.Code, &z.Name, &z.Active)
			return z, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load shipping zones: %w", err)
	}
	if data.PostalRules, err = loadRows(ctx, r.Pool,
		`SELECT pattern, is_prefix, zone_id FROM postal_code_zones`,
		func(row pgx.Rows) (zone.PostalRule, error) {
			var p zone.PostalRule
			err := row.Scan(&p.Pattern, &p.Prefix, &p.ZoneID)
			return p, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load postal code zones: %w", err)
	}
	if data.Tiers, err = loadRows(ctx, r.Pool,
		`SELECT id, code, min_grams, max_grams FROM weight_tiers ORDER BY min_grams`,
		func(row pgx.Rows) (weight.Tier, error) {
			var t weight.Tier
			err := row.Scan(&t.ID, &t.Code, &t.MinGrams, &t.MaxGrams)
			return t, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load weight tiers: %w", err)
	}
	if data.Methods, err = loadRows(ctx, r.Pool,
		`SELECT id, code, name, active FROM delivery_methods ORDER BY id`,
		func(row pgx.Rows) (rate.Method, error) {
			var m rate.Method
			err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Active)
			return m, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load delivery methods: %w", err)
	}
	if data.DefaultRates, err = loadRows(ctx, r.Pool,
		`SELECT zone_id, method_id, tier_id, price_minor FROM shipping_rates`,
		func(row pgx.Rows) (defaultRateRow, error) {
			var d defaultRateRow
			err := row.Scan(&d.ZoneID, &d.MethodID, &d.TierID, &d.PriceMinor)
			return d, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load shipping rates: %w", err)
	}
	if data.ProducerRates, err = loadRows(ctx, r.Pool,
		`SELECT producer_id, zone_id, method_id, tier_id, price_minor FROM producer_shipping_rates`,
		func(row pgx.Rows) (producerRateRow, error) {
			var p producerRateRow
			err := row.Scan(&p.ProducerID, &p.ZoneID, &p.MethodID, &p.TierID, &p.PriceMinor)
			return p, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load producer shipping rates: %w", err)
	}
	if data.ProducerMethods, err = loadRows(ctx, r.Pool,
		`SELECT producer_id, method_id, enabled FROM producer_shipping_methods`,
		func(row pgx.Rows) (producerMethodRow, error) {
			var p producerMethodRow
			err := row.Scan(&p.ProducerID, &p.MethodID, &p.Enabled)
			return p, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load producer shipping methods: %w", err)
	}
	if data.FreeShipping, err = loadRows(ctx, r.Pool,
		`SELECT id, producer_id, zone_id, method_id, threshold_minor, active FROM producer_free_shipping`,
		func(row pgx.Rows) (freeShippingRuleJSON, error) {
			var f freeShippingRuleJSON
			err := row.Scan(&f.ID, &f.ProducerID, &f.ZoneID, &f.MethodID, &f.ThresholdMinor, &f.Active)
			return f, err
		}); err != nil {
		return snapshotData{}, fmt.Errorf("load free shipping rules: %w", err)
	}
	return data, nil
}

func loadRows[T any](ctx context.Context, pool *pgxpool.Pool, sql string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func buildTables(data snapshotData, defaultZoneCode string) (quote.Tables, error) {
	zones, err := zone.NewResolver(data.Zones, data.PostalRules, defaultZoneCode)
	if err != nil {
		return quote.Tables{}, fmt.Errorf("build zone resolver: %w", err)
	}
	weights, err := weight.NewClassifier(data.Tiers)
	if err != nil {
		return quote.Tables{}, fmt.Errorf("build weight classifier: %w", err)
	}
	defaults := make([]rate.DefaultRate, 0, len(data.DefaultRates))
	for _, d := range data.DefaultRates {
		defaults = append(defaults, rate.DefaultRate{
			Key:        rate.Key{ZoneID: d.ZoneID, MethodID: d.MethodID, TierID: d.TierID},
			PriceMinor: d.PriceMinor,
		})
	}
	overrides := make([]rate.ProducerRate, 0, len(data.ProducerRates))
	for _, p := range data.ProducerRates {
		overrides = append(overrides, rate.ProducerRate{
			ProducerID: p.ProducerID,
			Key:        rate.Key{ZoneID: p.ZoneID, MethodID: p.MethodID, TierID: p.TierID},
			PriceMinor: p.PriceMinor,
		})
	}
	producerMethods := make([]rate.ProducerMethod, 0, len(data.ProducerMethods))
	for _, p := range data.ProducerMethods {
		producerMethods = append(producerMethods, rate.ProducerMethod{
			ProducerID: p.ProducerID,
			MethodID:   p.MethodID,
			Enabled:    p.Enabled,
		})
	}
	rules := make([]freeship.Rule, 0, len(data.FreeShipping))
	for _, f := range data.FreeShipping {
		rules = append(rules, freeship.Rule{
			ID:             f.ID,
			ProducerID:     f.ProducerID,
			ZoneID:         f.ZoneID,
			MethodID:       f.MethodID,
			ThresholdMinor: f.ThresholdMinor,
			Active:         f.Active,
		})
	}
	return quote.Tables{
		Zones:        zones,
		Weights:      weights,
		Rates:        rate.NewResolver(data.Methods, defaults, overrides, producerMethods),
		FreeShipping: freeship.NewEvaluator(rules),
	}, nil
}

// ReplaceProducerRates swaps a producer's entire override table inside one
// transaction. Either the new snapshot commits as a whole or the previous
// rows remain untouched.
func (r *ShippingRepo) ReplaceProducerRates(ctx context.Context, producerID uuid.UUID, rows []rate.ProducerRate) error {
	if r == nil || r.Pool == nil {
		return errors.New("shipping repo not configured")
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM producer_shipping_rates WHERE producer_id = $1`, producerID); err != nil {
		return fmt.Errorf("delete existing rates: %w", err)
	}
	if len(rows) > 0 {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(
				`INSERT INTO producer_shipping_rates (producer_id, zone_id, method_id, tier_id, price_minor)
				 VALUES ($1, $2, $3, $4, $5)`,
				producerID, row.Key.ZoneID, row.Key.MethodID, row.Key.TierID, row.PriceMinor,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert replacement rates: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// InsertDomainEvent persists an emitted event, satisfying events.EventStore.
func (r *ShippingRepo) InsertDomainEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.DomainEvent, error) {
	if r == nil || r.Pool == nil {
		return events.DomainEvent{}, errors.New("shipping repo not configured")
	}
	ev := events.DomainEvent{Topic: topic, AggregateID: aggregateID, Payload: payload}
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO domain_events (topic, aggregate_id, payload) VALUES ($1, $2, $3)
		 RETURNING id, occurred_at`,
		topic, aggregateID, payload,
	).Scan(&ev.ID, &ev.OccurredAt)
	if err != nil {
		return events.DomainEvent{}, err
	}
	return ev, nil
}
