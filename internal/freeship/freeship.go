package freeship

import (
	"github.com/google/uuid"

	"github.com/agora-dev/backend-agora/internal/pricing"
)

// Rule waives a producer's shipping charge when the order-group subtotal
// meets the threshold. A nil zone or method constraint applies to all.
type Rule struct {
	ID             int64
	ProducerID     uuid.UUID
	ZoneID         *int64
	MethodID       *int64
	ThresholdMinor pricing.Money
	Active         bool
}

// Evaluator decides free-shipping waivers from a producer's rule set.
type Evaluator struct {
	rules map[uuid.UUID][]Rule
}

// NewEvaluator indexes active rules by producer.
func NewEvaluator(rules []Rule) *Evaluator {
	e := &Evaluator{rules: make(map[uuid.UUID][]Rule)}
	for _, r := range rules {
		if !r.Active {
			continue
		}
		e.rules[r.ProducerID] = append(e.rules[r.ProducerID], r)
	}
	return e
}

// Waived reports whether the producer's shipping charge is waived for the
// resolved zone, method and group subtotal. When several rules match, the
// most specific one wins (zone and method set beats one constraint set,
// which beats an unconstrained rule); equally specific matches are decided
// by the lowest threshold. The subtotal comparison is inclusive.
func (e *Evaluator) Waived(producerID uuid.UUID, zoneID, methodID int64, subtotalMinor pricing.Money) bool {
	var (
		best     *Rule
		bestSpec int
	)
	for i := range e.rules[producerID] {
		r := &e.rules[producerID][i]
		if r.ZoneID != nil && *r.ZoneID != zoneID {
			continue
		}
		if r.MethodID != nil && *r.MethodID != methodID {
			continue
		}
		spec := specificity(r)
		switch {
		case best == nil, spec > bestSpec:
			best, bestSpec = r, spec
		case spec == bestSpec && r.ThresholdMinor < best.ThresholdMinor:
			best = r
		}
	}
	if best == nil {
		return false
	}
	return subtotalMinor >= best.ThresholdMinor
}

func specificity(r *Rule) int {
	n := 0
	if r.ZoneID != nil {
		n++
	}
	if r.MethodID != nil {
		n++
	}
	return n
}
