// Package attribution breaks yearly totals down into human readable sources,
// for reporting.
//
// An Attribution splits one metric into slices. A YearlyAccumulator collects
// the attributions of a simulated year, and Populate folds it onto the year's
// DataRow, after which the accumulator can no longer be used.
package attribution

import (
	"maps"
	"strings"

	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/money"
)

// Attribution is a metric total composed of slices from different sources.
type Attribution struct {
	Name string
	// Country and Year tell where and when the amounts were recorded, if known.
	Country string
	Year    int

	slices map[string]float64
}

// New returns an empty attribution of a metric.
func New(name string) *Attribution {
	return &Attribution{Name: name, slices: make(map[string]float64)}
}

// Add adds amount to the source's slice. Zero amounts are ignored.
func (a *Attribution) Add(source string, amount float64) {
	if amount == 0 {
		return
	}
	if a.slices == nil {
		a.slices = make(map[string]float64)
	}
	a.slices[source] += amount
}

// SetCountryContext sets the country and year, unless already set.
func (a *Attribution) SetCountryContext(country string, year int) {
	if a.Country == "" {
		a.Country = strings.ToLower(country)
	}
	if a.Year == 0 {
		a.Year = year
	}
}

// Total returns the sum of every slice.
func (a *Attribution) Total() float64 {
	var total float64
	for _, v := range a.slices {
		total += v
	}
	return total
}

// Breakdown returns a copy of the slices, by source.
func (a *Attribution) Breakdown() map[string]float64 {
	return maps.Clone(a.slices)
}

// Clone returns an independent copy of a.
func (a *Attribution) Clone() *Attribution {
	c := *a
	c.slices = maps.Clone(a.slices)
	if c.slices == nil {
		c.slices = make(map[string]float64)
	}
	return &c
}

// Normalized is a total expressed in another currency.
type Normalized struct {
	Amount   float64
	Currency string
	FXRate   float64
	// Original amount and currency, when a conversion took place.
	OriginalAmount   float64
	OriginalCurrency string
}

// CurrencyResolver tells the currency used in a country.
type CurrencyResolver interface {
	CurrencyOf(country string) (string, bool)
}

// NormalizedTotal returns the total converted to the currency of the base
// country, at the rates of the attribution's year.
//
// Without country context or known currencies, the total is returned as is
// with a rate of 1. A failed conversion keeps the original currency.
func (a *Attribution) NormalizedTotal(base string, currencies CurrencyResolver, c fx.Converter) Normalized {
	total := a.Total()
	if base == "" || a.Country == "" || a.Year == 0 || currencies == nil {
		return Normalized{Amount: total, FXRate: 1}
	}
	from, okFrom := currencies.CurrencyOf(a.Country)
	to, okTo := currencies.CurrencyOf(base)
	if !okFrom || !okTo {
		return Normalized{Amount: total, FXRate: 1}
	}
	if strings.EqualFold(a.Country, base) {
		return Normalized{Amount: total, Currency: to, FXRate: 1}
	}
	if c == nil {
		return Normalized{Amount: total, Currency: from, FXRate: 1}
	}
	converted, ok := fx.Float(c, total, money.L(from, a.Country), money.L(to, base), a.Year)
	if !ok {
		return Normalized{Amount: total, Currency: from, FXRate: 1}
	}
	rate := 1.0
	if total != 0 {
		rate = converted / total
	}
	return Normalized{
		Amount:           converted,
		Currency:         to,
		FXRate:           rate,
		OriginalAmount:   total,
		OriginalCurrency: from,
	}
}
