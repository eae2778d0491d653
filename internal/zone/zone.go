package zone

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnresolvedZone is returned when no postal pattern matches and no default zone is configured.
	ErrUnresolvedZone = errors.New("postal code does not resolve to a shipping zone")
	// ErrAmbiguousPattern indicates two patterns with the same specificity map to different zones.
	ErrAmbiguousPattern = errors.New("ambiguous postal code pattern")
)

// Zone is a platform-managed geographic grouping of postal codes.
type Zone struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// PostalRule maps a postal code pattern to a zone. Prefix rules match any
// postal code that starts with the pattern; exact rules match the full code.
type PostalRule struct {
	Pattern string `json:"pattern"`
	Prefix  bool   `json:"prefix"`
	ZoneID  int64  `json:"zoneId"`
}

// Resolver answers postal-code lookups against an indexed pattern set.
// Resolution prefers an exact match, then the longest matching prefix.
type Resolver struct {
	zones       map[int64]Zone
	exact       map[string]int64
	prefixes    map[string]int64
	prefixLens  []int
	defaultZone *Zone
}

// NewResolver indexes the rule set. Rules pointing at unknown or inactive
// zones are skipped. Duplicate patterns at the same specificity for
// different zones are a configuration error. When defaultZoneCode is
// non-empty the named zone is used as the fallback for unmatched codes;
// otherwise Resolve hard-fails with ErrUnresolvedZone.
func NewResolver(zones []Zone, rules []PostalRule, defaultZoneCode string) (*Resolver, error) {
	r := &Resolver{
		zones:    make(map[int64]Zone, len(zones)),
		exact:    make(map[string]int64),
		prefixes: make(map[string]int64),
	}
	for _, z := range zones {
		if !z.Active {
			continue
		}
		r.zones[z.ID] = z
	}
	if defaultZoneCode != "" {
		for _, z := range zones {
			if z.Active && strings.EqualFold(z.Code, defaultZoneCode) {
				dz := z
				r.defaultZone = &dz
				break
			}
		}
		if r.defaultZone == nil {
			return nil, fmt.Errorf("default zone %q not found among active zones", defaultZoneCode)
		}
	}
	lens := make(map[int]struct{})
	for _, rule := range rules {
		pattern := normalize(rule.Pattern)
		if pattern == "" {
			continue
		}
		if _, ok := r.zones[rule.ZoneID]; !ok {
			continue
		}
		if rule.Prefix {
			if existing, ok := r.prefixes[pattern]; ok && existing != rule.ZoneID {
				return nil, fmt.Errorf("prefix %q maps to zones %d and %d: %w", pattern, existing, rule.ZoneID, ErrAmbiguousPattern)
			}
			r.prefixes[pattern] = rule.ZoneID
			lens[len(pattern)] = struct{}{}
			continue
		}
		if existing, ok := r.exact[pattern]; ok && existing != rule.ZoneID {
			return nil, fmt.Errorf("pattern %q maps to zones %d and %d: %w", pattern, existing, rule.ZoneID, ErrAmbiguousPattern)
		}
		r.exact[pattern] = rule.ZoneID
	}
	r.prefixLens = make([]int, 0, len(lens))
	for l := range lens {
		r.prefixLens = append(r.prefixLens, l)
	}
	// Longest prefixes are tried first so the most specific rule wins.
	sort.Sort(sort.Reverse(sort.IntSlice(r.prefixLens)))
	return r, nil
}

// Resolve maps a postal code to its zone. An exact pattern beats any prefix;
// among prefixes the longest match wins.
func (r *Resolver) Resolve(postalCode string) (Zone, error) {
	code := normalize(postalCode)
	if code == "" {
		return r.fallback()
	}
	if zoneID, ok := r.exact[code]; ok {
		return r.zones[zoneID], nil
	}
	for _, l := range r.prefixLens {
		if l > len(code) {
			continue
		}
		if zoneID, ok := r.prefixes[code[:l]]; ok {
			return r.zones[zoneID], nil
		}
	}
	return r.fallback()
}

// HasDefault reports whether a fallback zone is configured.
func (r *Resolver) HasDefault() bool { return r.defaultZone != nil }

// Zone returns the active zone with the given id.
func (r *Resolver) Zone(id int64) (Zone, bool) {
	z, ok := r.zones[id]
	return z, ok
}

func (r *Resolver) fallback() (Zone, error) {
	if r.defaultZone != nil {
		return *r.defaultZone, nil
	}
	return Zone{}, ErrUnresolvedZone
}

func normalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}
