package rateimport

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/agora-dev/backend-agora/internal/pricing"
	"github.com/agora-dev/backend-agora/internal/rate"
	"github.com/agora-dev/backend-agora/internal/weight"
	"github.com/agora-dev/backend-agora/internal/zone"
)

// expectedColumns is the exact column set of a rate upload.
var expectedColumns = []string{"shipping_zone_id", "weight_tier_code", "delivery_method_code", "price"}

// RowError describes one validation failure. Row numbers are 1-based and
// include the header row, so the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// ValidationError aggregates every row error of a rejected import.
type ValidationError struct {
	Errors []RowError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("import rejected with %d error(s)", len(e.Errors))
}

// Lookups bundles the reference tables rows are validated against.
type Lookups struct {
	Zones   *zone.Resolver
	Tiers   *weight.Classifier
	Methods *rate.Resolver
}

// validateHeader checks the column set matches the expected schema exactly.
// A mismatch rejects the input before any row is processed.
func validateHeader(columns []string) (map[string]int, *ValidationError) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, dup := index[name]; dup {
			return nil, &ValidationError{Errors: []RowError{{Row: 1, Column: name, Message: "duplicate column"}}}
		}
		index[name] = i
	}
	var errs []RowError
	for _, want := range expectedColumns {
		if _, ok := index[want]; !ok {
			errs = append(errs, RowError{Row: 1, Column: want, Message: "missing required column"})
		}
	}
	if len(index) != len(expectedColumns) {
		got := make([]string, 0, len(index))
		for name := range index {
			got = append(got, name)
		}
		sort.Strings(got)
		for _, name := range got {
			if !isExpectedColumn(name) {
				errs = append(errs, RowError{Row: 1, Column: name, Message: "unexpected column"})
			}
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return index, nil
}

func isExpectedColumn(name string) bool {
	for _, want := range expectedColumns {
		if name == want {
			return true
		}
	}
	return false
}

// validateRows resolves every row against the lookup tables, collecting all
// errors instead of stopping at the first failure.
func validateRows(producerID uuid.UUID, index map[string]int, rows [][]string, lookups Lookups) ([]rate.ProducerRate, *ValidationError) {
	var (
		out  []rate.ProducerRate
		errs []RowError
		seen = make(map[rate.Key]int)
	)
	for i, row := range rows {
		rowNum := i + 2 // 1-based, offset for the header row
		if len(row) != len(expectedColumns) {
			errs = append(errs, RowError{Row: rowNum, Message: fmt.Sprintf("expected %d values, got %d", len(expectedColumns), len(row))})
			continue
		}
		rowValid := true
		var key rate.Key

		zoneRaw := strings.TrimSpace(row[index["shipping_zone_id"]])
		zoneID, err := strconv.ParseInt(zoneRaw, 10, 64)
		if err != nil {
			errs = append(errs, RowError{Row: rowNum, Column: "shipping_zone_id", Message: fmt.Sprintf("%q is not an integer", zoneRaw)})
			rowValid = false
		} else if _, ok := lookups.Zones.Zone(zoneID); !ok {
			errs = append(errs, RowError{Row: rowNum, Column: "shipping_zone_id", Message: fmt.Sprintf("zone %d is not an active shipping zone", zoneID)})
			rowValid = false
		} else {
			key.ZoneID = zoneID
		}

		tierCode := strings.TrimSpace(row[index["weight_tier_code"]])
		if tier, ok := lookups.Tiers.TierByCode(tierCode); ok {
			key.TierID = tier.ID
		} else {
			errs = append(errs, RowError{Row: rowNum, Column: "weight_tier_code", Message: fmt.Sprintf("unknown weight tier %q", tierCode)})
			rowValid = false
		}

		methodCode := strings.TrimSpace(row[index["delivery_method_code"]])
		if method, ok := lookups.Methods.MethodByCode(methodCode); ok {
			key.MethodID = method.ID
		} else {
			errs = append(errs, RowError{Row: rowNum, Column: "delivery_method_code", Message: fmt.Sprintf("unknown delivery method %q", methodCode)})
			rowValid = false
		}

		priceRaw := strings.TrimSpace(row[index["price"]])
		price, err := pricing.ParsePrice(priceRaw)
		if err != nil {
			errs = append(errs, RowError{Row: rowNum, Column: "price", Message: fmt.Sprintf("invalid price %q", priceRaw)})
			rowValid = false
		}

		if !rowValid {
			continue
		}
		if firstRow, dup := seen[key]; dup {
			errs = append(errs, RowError{Row: rowNum, Message: fmt.Sprintf("duplicate rate for zone/method/tier, first defined at row %d", firstRow)})
			continue
		}
		seen[key] = rowNum
		out = append(out, rate.ProducerRate{ProducerID: producerID, Key: key, PriceMinor: price})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return out, nil
}
