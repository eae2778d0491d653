package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units (euro cents).
type Money = int64

var (
	// ErrNegativePrice is returned when a parsed price is below zero.
	ErrNegativePrice = errors.New("price must not be negative")
	// ErrTooPrecise is returned when a price carries more than two decimal places.
	ErrTooPrecise = errors.New("price must have at most two decimal places")
)

// ParsePrice converts a decimal string such as "2.50" into minor units.
func ParsePrice(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", value, err)
	}
	if d.IsNegative() {
		return 0, ErrNegativePrice
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrTooPrecise
	}
	return cents.IntPart(), nil
}

// FormatMinor renders minor units as a decimal string with two places.
func FormatMinor(m Money) string {
	return decimal.New(m, -2).StringFixed(2)
}

// Summary aggregates the shipping components of an order total.
type Summary struct {
	ShippingSubtotal Money
	CODFee           Money
	Total            Money
}

// Compute sums selected per-group shipping costs and applies the flat
// cash-on-delivery fee at most once for the whole order.
func Compute(groupCosts []Money, codFee Money, cashOnDelivery bool) Summary {
	var subtotal Money
	for _, cost := range groupCosts {
		if cost < 0 {
			continue
		}
		subtotal += cost
	}
	fee := Money(0)
	if cashOnDelivery && codFee > 0 {
		fee = codFee
	}
	return Summary{
		ShippingSubtotal: subtotal,
		CODFee:           fee,
		Total:            subtotal + fee,
	}
}
