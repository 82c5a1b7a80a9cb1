// Package valuation writes the yearly nominal and present value aggregates
// of a simulation onto its DataRow.
//
// Present values are expressed in start year terms. Flows are deflated with
// the inflation of the residence country. Stocks and foreign flows are
// deflated with the inflation of the country they originate from, then
// brought back to the residence currency at start year exchange rates, so
// that currency depreciation is not mistaken for inflation.
package valuation

import (
	"math"
	"strings"

	"github.com/etnz/finsim/rules"
	"github.com/rs/zerolog"
)

// DefaultInflation is used when nothing else defines a country's inflation.
const DefaultInflation = 0.02

// Inflation resolves inflation rates and deflation factors by country.
type Inflation struct {
	StartYear int
	// BaseCountry is the country the scenario starts in.
	BaseCountry string
	// Scenario is the scenario inflation, if set.
	Scenario *float64
	// Overrides force a country's rate, typically set on relocation.
	Overrides map[string]float64
	// CPI holds yearly consumer price inflation by country, in percent.
	CPI   map[string]map[int]float64
	Rules *rules.Registry
	// Log receives a warning the first time a country falls back to
	// DefaultInflation.
	Log zerolog.Logger

	defaulted map[string]bool
}

// Rate returns the inflation rate of a country for a year, as a decimal.
//
// Precedence: per country override, scenario inflation for the base country,
// yearly CPI, ruleset inflation, scenario inflation, DefaultInflation.
func (inf *Inflation) Rate(country string, year int) float64 {
	base := strings.ToLower(inf.BaseCountry)
	key := strings.ToLower(strings.TrimSpace(country))
	if key == "" {
		key = base
	}
	if r, ok := inf.Overrides[key]; ok {
		return r
	}
	if key == base && inf.Scenario != nil {
		return *inf.Scenario
	}
	if r, ok := inf.CPI[key][year]; ok {
		return r / 100
	}
	if rs, ok := inf.Rules.Ruleset(key); ok {
		if r, ok := rs.InflationRate(); ok {
			return r
		}
	}
	if inf.Scenario != nil {
		return *inf.Scenario
	}
	if !inf.defaulted[key] {
		if inf.defaulted == nil {
			inf.defaulted = make(map[string]bool)
		}
		inf.defaulted[key] = true
		inf.Log.Warn().Str("country", key).Float64("rate", DefaultInflation).Msg("no inflation rate, using default")
	}
	return DefaultInflation
}

// Factor returns the deflation factor turning a year's nominal amount of a
// country into start year terms: 1/(1+rate)^(year-startYear).
func (inf *Inflation) Factor(country string, year int) float64 {
	n := year - inf.StartYear
	if n <= 0 {
		return 1
	}
	base := 1 + inf.Rate(country, year)
	if base <= 0 {
		return 1
	}
	return 1 / math.Pow(base, float64(n))
}
