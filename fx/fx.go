// Package fx converts amounts between currencies for a given simulated year.
package fx

import (
	"errors"
	"fmt"
	"sort"

	"github.com/etnz/finsim/money"
	"github.com/shopspring/decimal"
)

// ErrNoRate is wrapped by every hard conversion failure.
var ErrNoRate = errors.New("no exchange rate")

// Converter converts an amount from one locale to another for a simulated year.
//
// Conversions are strict: when no rate can be determined the second result
// is false and the amount must not be used.
type Converter interface {
	Convert(amount decimal.Decimal, from, to money.Locale, year int) (decimal.Decimal, bool)
}

// Func adapts a plain function to the Converter interface.
type Func func(amount decimal.Decimal, from, to money.Locale, year int) (decimal.Decimal, bool)

func (f Func) Convert(amount decimal.Decimal, from, to money.Locale, year int) (decimal.Decimal, bool) {
	return f(amount, from, to, year)
}

// Strict converts and turns a failure into an error wrapping ErrNoRate.
func Strict(c Converter, amount decimal.Decimal, from, to money.Locale, year int) (decimal.Decimal, error) {
	v, ok := c.Convert(amount, from, to, year)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s to %s in %d", ErrNoRate, from, to, year)
	}
	return v, nil
}

// Float converts a float64 amount, for the reporting layers.
func Float(c Converter, amount float64, from, to money.Locale, year int) (float64, bool) {
	v, ok := c.Convert(decimal.NewFromFloat(amount), from, to, year)
	if !ok {
		return 0, false
	}
	return v.InexactFloat64(), true
}

type pair struct{ from, to string }

type yearRate struct {
	year int
	rate decimal.Decimal
}

// Table is an in-memory Converter holding yearly rates for currency pairs.
//
// A rate is used for its year and every following year until a newer one is
// set. The zero value is not usable, use NewTable.
type Table struct {
	rates map[pair][]yearRate // sorted by year
}

// NewTable returns an empty rate table.
func NewTable() *Table {
	return &Table{rates: make(map[pair][]yearRate)}
}

// Set records that one unit of 'from' is worth rate units of 'to' from year onwards.
func (t *Table) Set(from, to string, year int, rate float64) *Table {
	p := pair{from, to}
	rs := t.rates[p]
	r := yearRate{year: year, rate: decimal.NewFromFloat(rate)}
	i := sort.Search(len(rs), func(i int) bool { return rs[i].year >= year })
	if i < len(rs) && rs[i].year == year {
		rs[i] = r
	} else {
		rs = append(rs, yearRate{})
		copy(rs[i+1:], rs[i:])
		rs[i] = r
	}
	t.rates[p] = rs
	return t
}

// rateAsOf returns the latest rate set at or before year.
func (t *Table) rateAsOf(p pair, year int) (decimal.Decimal, bool) {
	rs := t.rates[p]
	i := sort.Search(len(rs), func(i int) bool { return rs[i].year > year })
	if i == 0 {
		return decimal.Zero, false
	}
	return rs[i-1].rate, true
}

// Rate returns the rate to convert one unit of 'from' into 'to' in year.
func (t *Table) Rate(from, to string, year int) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	// To convert from 'from' to 'to', we need the pair from+to.
	if rate, ok := t.rateAsOf(pair{from, to}, year); ok {
		return rate, true
	}
	// If the direct pair is not found, try the inverse pair.
	inverse, ok := t.rateAsOf(pair{to, from}, year)
	if !ok || inverse.IsZero() {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(1).Div(inverse), true
}

// Convert implements Converter. Countries sharing a currency convert at par.
func (t *Table) Convert(amount decimal.Decimal, from, to money.Locale, year int) (decimal.Decimal, bool) {
	if from.Currency == "" || to.Currency == "" {
		return decimal.Zero, false
	}
	rate, ok := t.Rate(from.Currency, to.Currency, year)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(rate), true
}
