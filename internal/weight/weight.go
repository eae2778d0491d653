package weight

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnclassifiable is returned for weights above the heaviest configured tier.
	// Overweight packages are rejected rather than clamped to the heaviest tier.
	ErrUnclassifiable = errors.New("weight exceeds the heaviest configured tier")
	// ErrInvalidTierSet indicates the tier ranges do not partition the weight domain.
	ErrInvalidTierSet = errors.New("weight tiers must be contiguous non-overlapping ranges starting at zero")
)

// Tier is a contiguous weight range used to bucket package weight for pricing.
// Both bounds are inclusive and expressed in grams.
type Tier struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	MinGrams int64  `json:"minGrams"`
	MaxGrams int64  `json:"maxGrams"`
}

// Classifier maps a total package weight to its tier.
type Classifier struct {
	tiers []Tier
}

// NewClassifier validates and orders the tier set. The tiers must start at
// zero and partition the domain without gaps or overlaps; violations are
// configuration errors, not runtime errors.
func NewClassifier(tiers []Tier) (*Classifier, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("no weight tiers configured: %w", ErrInvalidTierSet)
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinGrams < sorted[j].MinGrams })

	if sorted[0].MinGrams != 0 {
		return nil, fmt.Errorf("first tier %q starts at %d g, not 0: %w", sorted[0].Code, sorted[0].MinGrams, ErrInvalidTierSet)
	}
	for i, tier := range sorted {
		if tier.MaxGrams < tier.MinGrams {
			return nil, fmt.Errorf("tier %q has max below min: %w", tier.Code, ErrInvalidTierSet)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if tier.MinGrams != prev.MaxGrams+1 {
			return nil, fmt.Errorf("tier %q does not continue from %q: %w", tier.Code, prev.Code, ErrInvalidTierSet)
		}
	}
	return &Classifier{tiers: sorted}, nil
}

// Classify returns the tier whose inclusive range contains the weight.
func (c *Classifier) Classify(totalGrams int64) (Tier, error) {
	if totalGrams < 0 {
		return Tier{}, fmt.Errorf("negative weight %d g: %w", totalGrams, ErrUnclassifiable)
	}
	idx := sort.Search(len(c.tiers), func(i int) bool { return c.tiers[i].MaxGrams >= totalGrams })
	if idx == len(c.tiers) {
		return Tier{}, ErrUnclassifiable
	}
	return c.tiers[idx], nil
}

// TierByCode returns the tier with the given code.
func (c *Classifier) TierByCode(code string) (Tier, bool) {
	for _, tier := range c.tiers {
		if tier.Code == code {
			return tier, true
		}
	}
	return Tier{}, false
}

// Tiers returns the ordered tier set.
func (c *Classifier) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}
