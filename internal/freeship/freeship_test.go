package freeship

import (
	"testing"

	"github.com/google/uuid"
)

var producer = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func ptr(v int64) *int64 { return &v }

func TestThresholdBoundaryInclusive(t *testing.T) {
	e := NewEvaluator([]Rule{
		{ID: 1, ProducerID: producer, ThresholdMinor: 5000, Active: true},
	})
	if !e.Waived(producer, 1, 1, 5000) {
		t.Fatal("subtotal equal to threshold must be waived")
	}
	if !e.Waived(producer, 1, 1, 7500) {
		t.Fatal("subtotal above threshold must be waived")
	}
	if e.Waived(producer, 1, 1, 4999) {
		t.Fatal("subtotal one cent below threshold must not be waived")
	}
}

func TestZoneAndMethodConstraints(t *testing.T) {
	e := NewEvaluator([]Rule{
		{ID: 1, ProducerID: producer, ZoneID: ptr(1), MethodID: ptr(2), ThresholdMinor: 1000, Active: true},
	})
	if !e.Waived(producer, 1, 2, 1000) {
		t.Fatal("matching zone and method must apply")
	}
	if e.Waived(producer, 2, 2, 1000) {
		t.Fatal("non-matching zone must not apply")
	}
	if e.Waived(producer, 1, 3, 1000) {
		t.Fatal("non-matching method must not apply")
	}
}

func TestMostSpecificRuleWins(t *testing.T) {
	// The unconstrained rule is generous, the zone+method rule is strict.
	e := NewEvaluator([]Rule{
		{ID: 1, ProducerID: producer, ThresholdMinor: 1000, Active: true},
		{ID: 2, ProducerID: producer, ZoneID: ptr(1), MethodID: ptr(1), ThresholdMinor: 9000, Active: true},
	})
	if e.Waived(producer, 1, 1, 5000) {
		t.Fatal("the zone+method rule must shadow the unconstrained one")
	}
	if !e.Waived(producer, 1, 1, 9000) {
		t.Fatal("the specific rule threshold must apply")
	}
	// Outside the specific rule's scope the general rule still applies.
	if !e.Waived(producer, 2, 2, 1000) {
		t.Fatal("the unconstrained rule must apply elsewhere")
	}
}

func TestEquallySpecificLowestThresholdWins(t *testing.T) {
	e := NewEvaluator([]Rule{
		{ID: 1, ProducerID: producer, ZoneID: ptr(1), ThresholdMinor: 8000, Active: true},
		{ID: 2, ProducerID: producer, MethodID: ptr(1), ThresholdMinor: 3000, Active: true},
	})
	if !e.Waived(producer, 1, 1, 3000) {
		t.Fatal("lowest threshold among equally specific rules must win")
	}
	if e.Waived(producer, 1, 1, 2999) {
		t.Fatal("below the winning threshold must not be waived")
	}
}

func TestInactiveRulesIgnored(t *testing.T) {
	e := NewEvaluator([]Rule{
		{ID: 1, ProducerID: producer, ThresholdMinor: 100, Active: false},
	})
	if e.Waived(producer, 1, 1, 100000) {
		t.Fatal("inactive rules must never waive")
	}
}

func TestNoRulesForProducer(t *testing.T) {
	e := NewEvaluator(nil)
	if e.Waived(producer, 1, 1, 1_000_000) {
		t.Fatal("no rules means no waiver")
	}
}
