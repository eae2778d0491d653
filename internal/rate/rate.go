package rate

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/agora-dev/backend-agora/internal/pricing"
)

var (
	// ErrNoRate is returned when neither a producer override nor a platform
	// default price exists for the requested key.
	ErrNoRate = errors.New("no rate defined for zone, method and tier")
	// ErrMethodNotEnabled is returned when the producer has not enabled the method.
	ErrMethodNotEnabled = errors.New("delivery method not enabled for producer")
)

// Method is a named shipping service level from the global catalog.
type Method struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Key identifies a price in the platform default table.
type Key struct {
	ZoneID   int64
	MethodID int64
	TierID   int64
}

// ProducerKey identifies a price in the producer override table.
type ProducerKey struct {
	ProducerID uuid.UUID
	Key        Key
}

// ProducerMethod records whether a producer has enabled a delivery method.
type ProducerMethod struct {
	ProducerID uuid.UUID
	MethodID   int64
	Enabled    bool
}

// DefaultRate is one row of the platform default table.
type DefaultRate struct {
	Key        Key
	PriceMinor pricing.Money
}

// ProducerRate is one row of a producer's sparse override table.
type ProducerRate struct {
	ProducerID uuid.UUID
	Key        Key
	PriceMinor pricing.Money
}

// Resolver answers price lookups over the layered rate tables. It is a pure
// function over maps built once per request; overrides always beat defaults.
type Resolver struct {
	methods   []Method
	methodIdx map[int64]Method
	defaults  map[Key]pricing.Money
	overrides map[ProducerKey]pricing.Money
	enabled   map[producerMethodKey]bool
}

type producerMethodKey struct {
	producerID uuid.UUID
	methodID   int64
}

// NewResolver indexes the rate tables. Inactive methods are dropped from the
// catalog; rows pointing at them are ignored.
func NewResolver(methods []Method, defaults []DefaultRate, overrides []ProducerRate, producerMethods []ProducerMethod) *Resolver {
	r := &Resolver{
		methodIdx: make(map[int64]Method),
		defaults:  make(map[Key]pricing.Money, len(defaults)),
		overrides: make(map[ProducerKey]pricing.Money, len(overrides)),
		enabled:   make(map[producerMethodKey]bool, len(producerMethods)),
	}
	for _, m := range methods {
		if !m.Active {
			continue
		}
		r.methods = append(r.methods, m)
		r.methodIdx[m.ID] = m
	}
	sort.Slice(r.methods, func(i, j int) bool { return r.methods[i].ID < r.methods[j].ID })
	for _, row := range defaults {
		if _, ok := r.methodIdx[row.Key.MethodID]; !ok {
			continue
		}
		r.defaults[row.Key] = row.PriceMinor
	}
	for _, row := range overrides {
		if _, ok := r.methodIdx[row.Key.MethodID]; !ok {
			continue
		}
		r.overrides[ProducerKey{ProducerID: row.ProducerID, Key: row.Key}] = row.PriceMinor
	}
	for _, pm := range producerMethods {
		r.enabled[producerMethodKey{producerID: pm.ProducerID, methodID: pm.MethodID}] = pm.Enabled
	}
	return r
}

// Resolve returns the price for (producer, zone, method, tier). The method
// enablement check happens before any rate lookup; a producer override wins
// over the platform default for the identical key.
func (r *Resolver) Resolve(producerID uuid.UUID, zoneID, methodID, tierID int64) (pricing.Money, error) {
	if _, ok := r.methodIdx[methodID]; !ok {
		return 0, ErrMethodNotEnabled
	}
	if !r.enabled[producerMethodKey{producerID: producerID, methodID: methodID}] {
		return 0, ErrMethodNotEnabled
	}
	key := Key{ZoneID: zoneID, MethodID: methodID, TierID: tierID}
	if price, ok := r.overrides[ProducerKey{ProducerID: producerID, Key: key}]; ok {
		return price, nil
	}
	if price, ok := r.defaults[key]; ok {
		return price, nil
	}
	return 0, ErrNoRate
}

// MethodsFor returns the active methods the producer has explicitly enabled,
// in catalog order.
func (r *Resolver) MethodsFor(producerID uuid.UUID) []Method {
	var out []Method
	for _, m := range r.methods {
		if r.enabled[producerMethodKey{producerID: producerID, methodID: m.ID}] {
			out = append(out, m)
		}
	}
	return out
}

// Method returns the active method with the given id.
func (r *Resolver) Method(id int64) (Method, bool) {
	m, ok := r.methodIdx[id]
	return m, ok
}

// MethodByCode returns the active method with the given code.
func (r *Resolver) MethodByCode(code string) (Method, bool) {
	for _, m := range r.methods {
		if m.Code == code {
			return m, true
		}
	}
	return Method{}, false
}
