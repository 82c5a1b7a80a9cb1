package revenue

import (
	"math"
	"sort"

	"github.com/etnz/finsim/money"
	"github.com/rs/zerolog"
)

// Book is an in-memory Revenue. It records every declaration of the year and
// computes the investment taxes due.
//
// Tax ids are "<category>:<country>", for instance "cgt:ie" or "exitTax:ie".
// Gains taxed in a category are offset by the losses declared with
// AllowLossOffset in that same category, never below zero. The annual
// exemption is consumed by eligible gains in declaration order.
type Book struct {
	AnnualExemption float64

	log          zerolog.Logger
	declarations []Declaration
	crossBorder  []CrossBorder
}

// NewBook returns an empty book.
func NewBook(annualExemption float64, logger zerolog.Logger) *Book {
	return &Book{
		AnnualExemption: annualExemption,
		log:             logger.With().Str("component", "revenue").Logger(),
	}
}

func (b *Book) DeclareInvestmentIncome(amount money.Money, label, country string) {
	b.log.Debug().Str("label", label).Stringer("amount", amount).Msg("investment income")
	b.declarations = append(b.declarations, Declaration{Kind: Income, Amount: amount, Label: label, Country: country})
}

func (b *Book) DeclareInvestmentGains(amount money.Money, rate float64, label string, flags GainFlags, country string) {
	b.log.Debug().Str("label", label).Stringer("amount", amount).Float64("rate", rate).Str("category", string(flags.Category)).Msg("investment gains")
	b.declarations = append(b.declarations, Declaration{Kind: Gains, Amount: amount, Rate: rate, Label: label, Flags: flags, Country: country})
}

// AddCrossBorder registers a country whose rules still follow the resident.
func (b *Book) AddCrossBorder(country string, rs CrossBorder) {
	rs.Country = country
	b.crossBorder = append(b.crossBorder, rs)
}

func (b *Book) ActiveCrossBorderTaxCountries() []CrossBorder {
	return append([]CrossBorder(nil), b.crossBorder...)
}

// Declarations returns the declarations received since the last Reset.
func (b *Book) Declarations() []Declaration {
	return append([]Declaration(nil), b.declarations...)
}

// InvestmentIncome returns the total declared investment income.
func (b *Book) InvestmentIncome() float64 {
	var total float64
	for _, d := range b.declarations {
		if d.Kind == Income {
			total += d.Amount.Float()
		}
	}
	return total
}

// Gains returns the total declared gains, labelled by declaration label.
func (b *Book) Gains() map[string]float64 {
	gains := make(map[string]float64)
	for _, d := range b.declarations {
		if d.Kind == Gains {
			gains[d.Label] += d.Amount.Float()
		}
	}
	return gains
}

// Reset forgets every declaration, keeping cross border countries.
func (b *Book) Reset() { b.declarations = nil }

// TaxID returns the tax id for a category in a country.
func TaxID(c Category, country string) string { return string(c) + ":" + country }

func (b *Book) TaxTotals() map[string]float64 {
	totals := make(map[string]float64)
	exemption := b.AnnualExemption
	for _, d := range b.declarations {
		if d.Kind != Gains {
			continue
		}
		id := TaxID(d.Flags.Category, d.Country)
		amount := d.Amount.Float()
		if _, ok := totals[id]; !ok {
			totals[id] = 0
		}
		switch {
		case amount > 0:
			if d.Flags.EligibleForAnnualExemption && exemption > 0 {
				used := math.Min(exemption, amount)
				exemption -= used
				amount -= used
			}
			totals[id] += amount * d.Rate
		case amount < 0 && d.Flags.AllowLossOffset:
			totals[id] += amount * d.Rate
		}
	}
	for id, t := range totals {
		if t < 0 {
			totals[id] = 0
		}
	}
	return totals
}

func (b *Book) TaxByType(id string) float64 { return b.TaxTotals()[id] }

// TaxIDs returns the ids of TaxTotals, sorted.
func (b *Book) TaxIDs() []string {
	var ids []string
	for id := range b.TaxTotals() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
