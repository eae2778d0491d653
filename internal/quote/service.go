package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/agora-dev/backend-agora/internal/freeship"
	"github.com/agora-dev/backend-agora/internal/pricing"
	"github.com/agora-dev/backend-agora/internal/rate"
	"github.com/agora-dev/backend-agora/internal/weight"
	"github.com/agora-dev/backend-agora/internal/zone"
)

// PaymentCashOnDelivery marks orders paid on delivery; the flat COD fee
// applies exactly once per order regardless of producer count.
const PaymentCashOnDelivery = "cash_on_delivery"

var (
	// ErrEmptyCart is returned when no items are provided.
	ErrEmptyCart = errors.New("no items to quote")
	// ErrNoDeliverableMethod is returned when a producer group ends up with
	// no offered delivery option, which makes the whole order unshippable.
	ErrNoDeliverableMethod = errors.New("no deliverable method for producer")
)

// Item is a cart or order line consumed read-only from the caller.
type Item struct {
	ProductID       uuid.UUID
	ProducerID      uuid.UUID
	Qty             int
	UnitPriceMinor  pricing.Money
	UnitWeightGrams int64
}

// Address carries the single delivery address of the order.
type Address struct {
	PostalCode string
	City       string
	Country    string
}

// Option is one offered (method, cost) candidate for a producer group.
type Option struct {
	MethodID   int64
	MethodCode string
	CostMinor  pricing.Money
	Free       bool
}

// ProducerQuote is the shipping breakdown for one producer's items.
type ProducerQuote struct {
	ProducerID        uuid.UUID
	SubtotalMinor     pricing.Money
	WeightGrams       int64
	TierCode          string
	Options           []Option
	SelectedCostMinor pricing.Money
}

// Quote is the full order-level shipping breakdown.
type Quote struct {
	Zone                  zone.Zone
	Groups                []ProducerQuote
	ShippingSubtotalMinor pricing.Money
	CODFeeMinor           pricing.Money
	TotalMinor            pricing.Money
}

// Tables bundles the reference lookups a quote computation reads. They are
// loaded once per request and never mutated by the computation.
type Tables struct {
	Zones        *zone.Resolver
	Weights      *weight.Classifier
	Rates        *rate.Resolver
	FreeShipping *freeship.Evaluator
}

// TableSource loads the current reference tables.
type TableSource interface {
	ShippingTables(ctx context.Context) (Tables, error)
}

// Service splits a multi-producer cart into independently priced shipments.
type Service struct {
	Source      TableSource
	CODFeeMinor pricing.Money
}

// Compute groups items by producer, resolves the delivery zone once, prices
// every enabled method per group and aggregates the order shipping total.
// The selected per-group cost defaults to the cheapest offered option; the
// caller may pick a different option from the returned candidates.
func (s *Service) Compute(ctx context.Context, items []Item, addr Address, paymentMethod string) (Quote, error) {
	if s == nil || s.Source == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	if len(items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	tables, err := s.Source.ShippingTables(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load shipping tables: %w", err)
	}

	groups := groupByProducer(items)
	if len(groups) == 0 {
		return Quote{}, ErrEmptyCart
	}

	deliveryZone, err := tables.Zones.Resolve(addr.PostalCode)
	if err != nil {
		return Quote{}, fmt.Errorf("resolve zone for %q: %w", addr.PostalCode, err)
	}

	q := Quote{Zone: deliveryZone, Groups: make([]ProducerQuote, 0, len(groups))}
	costs := make([]pricing.Money, 0, len(groups))
	for _, g := range groups {
		tier, err := tables.Weights.Classify(g.weightGrams)
		if err != nil {
			return Quote{}, fmt.Errorf("classify %d g for producer %s: %w", g.weightGrams, g.producerID, err)
		}
		pq := ProducerQuote{
			ProducerID:    g.producerID,
			SubtotalMinor: g.subtotalMinor,
			WeightGrams:   g.weightGrams,
			TierCode:      tier.Code,
		}
		for _, method := range tables.Rates.MethodsFor(g.producerID) {
			price, err := tables.Rates.Resolve(g.producerID, deliveryZone.ID, method.ID, tier.ID)
			if err != nil {
				// A missing rate only removes this method from the offer.
				if errors.Is(err, rate.ErrNoRate) || errors.Is(err, rate.ErrMethodNotEnabled) {
					continue
				}
				return Quote{}, err
			}
			opt := Option{MethodID: method.ID, MethodCode: method.Code, CostMinor: price}
			if tables.FreeShipping.Waived(g.producerID, deliveryZone.ID, method.ID, g.subtotalMinor) {
				opt.CostMinor = 0
				opt.Free = true
			}
			pq.Options = append(pq.Options, opt)
		}
		if len(pq.Options) == 0 {
			return Quote{}, fmt.Errorf("producer %s: %w", g.producerID, ErrNoDeliverableMethod)
		}
		pq.SelectedCostMinor = cheapest(pq.Options)
		costs = append(costs, pq.SelectedCostMinor)
		q.Groups = append(q.Groups, pq)
	}

	summary := pricing.Compute(costs, s.CODFeeMinor, paymentMethod == PaymentCashOnDelivery)
	q.ShippingSubtotalMinor = summary.ShippingSubtotal
	q.CODFeeMinor = summary.CODFee
	q.TotalMinor = summary.Total
	return q, nil
}

type producerGroup struct {
	producerID    uuid.UUID
	subtotalMinor pricing.Money
	weightGrams   int64
}

// groupByProducer keeps first-appearance order so output is deterministic.
func groupByProducer(items []Item) []producerGroup {
	idx := make(map[uuid.UUID]int)
	var groups []producerGroup
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		i, ok := idx[it.ProducerID]
		if !ok {
			i = len(groups)
			idx[it.ProducerID] = i
			groups = append(groups, producerGroup{producerID: it.ProducerID})
		}
		groups[i].subtotalMinor += pricing.Money(it.Qty) * it.UnitPriceMinor
		groups[i].weightGrams += int64(it.Qty) * it.UnitWeightGrams
	}
	return groups
}

func cheapest(options []Option) pricing.Money {
	best := options[0].CostMinor
	for _, opt := range options[1:] {
		if opt.CostMinor < best {
			best = opt.CostMinor
		}
	}
	return best
}
