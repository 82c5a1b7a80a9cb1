// Package revenue defines the tax declaration contract used by the
// investment ledgers, and a simple in-memory implementation of it.
package revenue

import (
	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/rules"
)

// Category is the tax category of a gains declaration.
type Category string

const (
	CapitalGains Category = "cgt"
	ExitTax      Category = "exitTax"
)

// GainFlags qualifies a gains declaration.
type GainFlags struct {
	Category                   Category
	EligibleForAnnualExemption bool
	AllowLossOffset            bool
}

// CrossBorder is a country whose tax rules still apply to a resident who left it.
type CrossBorder struct {
	Country string
	Ruleset *rules.Ruleset
}

// Revenue receives the taxable events of a simulated year.
type Revenue interface {
	DeclareInvestmentIncome(amount money.Money, label, country string)
	DeclareInvestmentGains(amount money.Money, rate float64, label string, flags GainFlags, country string)
	// TaxTotals returns the tax due this year by tax id.
	TaxTotals() map[string]float64
	TaxByType(id string) float64
	ActiveCrossBorderTaxCountries() []CrossBorder
}

// Kind tells income declarations from gains declarations.
type Kind int

const (
	Income Kind = iota
	Gains
)

func (k Kind) String() string {
	switch k {
	case Income:
		return "income"
	case Gains:
		return "gains"
	default:
		return "unknown"
	}
}

// Declaration is a pending taxable event produced by a ledger operation.
type Declaration struct {
	Kind    Kind
	Amount  money.Money
	Rate    float64 // Gains only
	Label   string
	Flags   GainFlags // Gains only
	Country string
}

// Apply sends every declaration to rev, in order.
func Apply(rev Revenue, decls []Declaration) {
	for _, d := range decls {
		switch d.Kind {
		case Income:
			rev.DeclareInvestmentIncome(d.Amount, d.Label, d.Country)
		case Gains:
			rev.DeclareInvestmentGains(d.Amount, d.Rate, d.Label, d.Flags, d.Country)
		}
	}
}
