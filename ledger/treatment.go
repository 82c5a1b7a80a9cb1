package ledger

import (
	"fmt"

	"github.com/etnz/finsim/revenue"
	"github.com/etnz/finsim/rules"
)

// Category defines how gains on a ledger are taxed.
type Category int

const (
	// CapitalGainsTax taxes gains when they are realized by a sale.
	CapitalGainsTax Category = iota
	// ExitTax taxes gains on sale and, every DeemedDisposalYears, as if the lot was sold.
	ExitTax
)

func (c Category) String() string {
	switch c {
	case CapitalGainsTax:
		return "capitalGains"
	case ExitTax:
		return "exitTax"
	default:
		return "unknown"
	}
}

// ParseCategory parses a string into a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "capitalGains", "cgt":
		return CapitalGainsTax, nil
	case "exitTax":
		return ExitTax, nil
	default:
		return 0, fmt.Errorf("unknown tax category: %q", s)
	}
}

func (c Category) declared() revenue.Category {
	if c == ExitTax {
		return revenue.ExitTax
	}
	return revenue.CapitalGains
}

// TaxTreatment is the tax behaviour of a ledger.
//
// DeemedDisposalYears is only meaningful for ExitTax, 0 disables deemed disposal.
// When RateRef is set, the rate is read again from the ruleset at every
// declaration, Rate is the value it had at construction.
type TaxTreatment struct {
	Category            Category
	Rate                float64
	RateRef             string
	AllowLossOffset     bool
	ExemptionEligible   bool
	DeemedDisposalYears int
}

// NewCapitalGains returns the default capital gains treatment.
func NewCapitalGains(rate float64) TaxTreatment {
	return TaxTreatment{Category: CapitalGainsTax, Rate: rate, AllowLossOffset: true, ExemptionEligible: true}
}

// NewExitTax returns the default exit tax treatment.
func NewExitTax(rate float64, deemedDisposalYears int) TaxTreatment {
	return TaxTreatment{Category: ExitTax, Rate: rate, AllowLossOffset: true, DeemedDisposalYears: deemedDisposalYears}
}

func (t TaxTreatment) String() string {
	if t.Category == ExitTax && t.DeemedDisposalYears > 0 {
		return fmt.Sprintf("%v %.4g%% (deemed disposal every %d years)", t.Category, t.Rate*100, t.DeemedDisposalYears)
	}
	return fmt.Sprintf("%v %.4g%%", t.Category, t.Rate*100)
}

func (t TaxTreatment) flags() revenue.GainFlags {
	return revenue.GainFlags{
		Category:                   t.Category.declared(),
		EligibleForAnnualExemption: t.ExemptionEligible,
		AllowLossOffset:            t.AllowLossOffset,
	}
}

// ResolveTreatment derives the tax treatment of an investment type.
//
// Explicit exitTax fields win over capitalGains fields, which win over the
// defaults: losses can be offset, capital gains are eligible to the annual
// exemption and exit tax is not. A capitalGains rateRef is evaluated against rs.
func ResolveTreatment(t rules.InvestmentType, rs *rules.Ruleset) TaxTreatment {
	tx := t.Taxation
	if tx == nil {
		tx = &rules.Taxation{}
	}
	var tt TaxTreatment
	if tx.ExitTax != nil {
		tt.Category = ExitTax
	}

	tt.AllowLossOffset = true
	switch {
	case tx.ExitTax != nil && tx.ExitTax.AllowLossOffset != nil:
		tt.AllowLossOffset = *tx.ExitTax.AllowLossOffset
	case tx.CapitalGains != nil && tx.CapitalGains.AllowLossOffset != nil:
		tt.AllowLossOffset = *tx.CapitalGains.AllowLossOffset
	}

	switch {
	case tx.ExitTax != nil && tx.ExitTax.EligibleForAnnualExemption != nil:
		tt.ExemptionEligible = *tx.ExitTax.EligibleForAnnualExemption
	case tx.CapitalGains != nil && tx.CapitalGains.EligibleForAnnualExemption != nil:
		tt.ExemptionEligible = *tx.CapitalGains.EligibleForAnnualExemption
	case tx.ExitTax != nil:
		tt.ExemptionEligible = false
	case tx.CapitalGains != nil:
		tt.ExemptionEligible = true
	}

	if tx.ExitTax != nil && tx.ExitTax.DeemedDisposalYears != nil {
		tt.DeemedDisposalYears = *tx.ExitTax.DeemedDisposalYears
	}

	switch {
	case tx.ExitTax != nil && tx.ExitTax.Rate != nil:
		tt.Rate = *tx.ExitTax.Rate
	case tx.CapitalGains != nil && tx.CapitalGains.Rate != nil:
		tt.Rate = *tx.CapitalGains.Rate
	case tx.CapitalGains != nil && tx.CapitalGains.RateRef != "" && rs != nil:
		tt.RateRef = tx.CapitalGains.RateRef
		if r, err := rs.Rate(tt.RateRef); err == nil {
			tt.Rate = r
		}
	}
	return tt
}

// deemedDisposalYears returns the deemed disposal interval declared by an investment type.
func deemedDisposalYears(t rules.InvestmentType) int {
	if t.Taxation == nil || t.Taxation.ExitTax == nil || t.Taxation.ExitTax.DeemedDisposalYears == nil {
		return 0
	}
	return *t.Taxation.ExitTax.DeemedDisposalYears
}
