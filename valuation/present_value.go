package valuation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/revenue"
	"github.com/etnz/finsim/rules"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownInvestmentKey is returned when an investment capital has no type.
	ErrUnknownInvestmentKey = errors.New("unknown investment key")
	// ErrUnknownCurrency is returned when a non zero amount has no resolvable currency.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrMissingStartCountry is returned when the context has no start country.
	ErrMissingStartCountry = errors.New("start country is required")
	// ErrMissingInflation is returned when the context has no inflation.
	ErrMissingInflation = errors.New("inflation is required")
)

// CurrencyResolver tells the currency used in a country. *rules.Registry implements it.
type CurrencyResolver interface {
	CurrencyOf(country string) (string, bool)
}

// Investment describes an investment type for stock deflation.
type Investment struct {
	Scope rules.Scope
	Base  money.Locale
}

// Property is a real estate asset, valued in its own currency.
type Property struct {
	Key           string
	Value         float64
	Currency      string
	LinkedCountry string
}

// StatePension is a state pension paid by a country, in that country's currency.
type StatePension struct {
	Country  string
	Currency string
	Amount   float64
}

// PVContext holds what present values are computed from.
//
// Scalar amounts are nominal, in residence currency. ByCountry maps hold
// amounts in the currency of their country.
type PVContext struct {
	Row          *finsim.DataRow
	Year         int
	StartYear    int
	Country      string // of residence
	StartCountry string
	Residence    money.Locale
	Inflation    *Inflation
	FX           fx.Converter
	Currencies   CurrencyResolver
	Revenue      revenue.Revenue
	Log          zerolog.Logger

	IncomeSalaries       float64
	IncomeRSUs           float64
	IncomeRentals        float64
	IncomePrivatePension float64
	IncomeStatePension   float64
	IncomeFundsRent      float64
	IncomeSharesRent     float64
	CashWithdraw         float64
	IncomeDefinedBenefit float64
	IncomeTaxFree        float64
	NetIncome            float64
	Expenses             float64
	PensionContribution  float64
	Cash                 float64
	PensionCapital       float64

	// per country flows, replacing the matching scalar when set.
	SalariesByCountry            map[string]float64
	RentalsByCountry             map[string]float64
	PrivatePensionByCountry      map[string]float64
	PensionContributionByCountry map[string]float64

	StatePension *StatePension
	RealEstate   []Property

	InvestmentIncomeByKey map[string]float64
	CapitalByKey          map[string]float64
	// Investments describes every key of CapitalByKey. When nil, every
	// investment is deflated with the residence inflation.
	Investments map[string]Investment
}

// pv accumulates the present values of one call before they reach the row.
type pv struct {
	finsim.DataRow
}

// ComputePresentValue adds the present value aggregates of a year to its row.
//
// Either every aggregate is added, or an error is returned and the row is
// left untouched.
func ComputePresentValue(ctx PVContext) error {
	if ctx.StartCountry == "" {
		return ErrMissingStartCountry
	}
	if ctx.Inflation == nil {
		return ErrMissingInflation
	}
	country := strings.ToLower(ctx.Country)
	if country == "" {
		country = strings.ToLower(ctx.StartCountry)
	}
	startCountry := strings.ToLower(ctx.StartCountry)
	factor := ctx.Inflation.Factor(country, ctx.Year)

	d := pv{*finsim.NewDataRow(ctx.Year, 0)}
	var err error

	// per country flows
	flows := []struct {
		metric    string
		byCountry map[string]float64
		nominal   float64
		target    *float64
	}{
		{"incomeSalaries", ctx.SalariesByCountry, ctx.IncomeSalaries, &d.IncomeSalariesPV},
		{"incomeRentals", ctx.RentalsByCountry, ctx.IncomeRentals, &d.IncomeRentalsPV},
		{"incomePrivatePension", ctx.PrivatePensionByCountry, ctx.IncomePrivatePension, &d.IncomePrivatePensionPV},
		{"pensionContribution", ctx.PensionContributionByCountry, ctx.PensionContribution, &d.PensionContributionPV},
	}
	for _, f := range flows {
		if f.byCountry == nil {
			*f.target = f.nominal * factor
			continue
		}
		if *f.target, err = ctx.sourceDeflated(f.metric, f.byCountry); err != nil {
			return err
		}
	}

	// scalar flows
	d.IncomeRSUsPV = ctx.IncomeRSUs * factor
	d.IncomeFundsRentPV = ctx.IncomeFundsRent * factor
	d.IncomeSharesRentPV = ctx.IncomeSharesRent * factor
	d.IncomeCashPV = math.Max(ctx.CashWithdraw, 0) * factor
	d.IncomeDefinedBenefitPV = ctx.IncomeDefinedBenefit * factor
	d.IncomeTaxFreePV = ctx.IncomeTaxFree * factor
	d.NetIncomePV = ctx.NetIncome * factor
	d.ExpensesPV = ctx.Expenses * factor
	d.CashPV = ctx.Cash * factor

	// the state pension keeps the paying country's purchasing power and currency.
	switch sp := ctx.StatePension; {
	case ctx.IncomeStatePension > 0 && sp != nil && sp.Amount > 0 && sp.Country != "":
		d.IncomeStatePensionPV = sp.Amount * ctx.Inflation.Factor(sp.Country, ctx.Year)
	case ctx.IncomeStatePension > 0:
		d.IncomeStatePensionPV = ctx.IncomeStatePension * factor
	}

	// stocks
	for _, p := range ctx.RealEstate {
		v, err := ctx.propertyPV(p, startCountry)
		if err != nil {
			return err
		}
		d.RealEstateCapitalPV += v
	}
	d.PensionFundPV = ctx.PensionCapital * ctx.Inflation.Factor(startCountry, ctx.Year)

	var investments float64
	for key, capital := range ctx.CapitalByKey {
		v, err := ctx.investmentPV(key, capital, factor)
		if err != nil {
			return err
		}
		d.InvestmentCapitalByKeyPV[key] = v
		investments += v
	}
	for key, income := range ctx.InvestmentIncomeByKey {
		d.InvestmentIncomeByKeyPV[key] = income * factor
	}

	if ctx.Revenue != nil {
		for id := range ctx.Revenue.TaxTotals() {
			d.TaxColumnsPV[finsim.TaxColumnPrefix+id] = ctx.Revenue.TaxByType(id) * factor
		}
	}

	d.WorthPV = d.RealEstateCapitalPV + d.PensionFundPV + investments + d.CashPV

	d.addTo(ctx.Row)
	ctx.Log.Debug().Int("year", ctx.Year).Float64("factor", factor).Float64("worthPV", d.WorthPV).Msg("present values")
	return nil
}

// sourceDeflated deflates each country's amount with that country's
// inflation, and converts it to the residence currency at start year rates.
func (ctx PVContext) sourceDeflated(metric string, byCountry map[string]float64) (float64, error) {
	var total float64
	for cc, amount := range byCountry {
		if amount == 0 {
			continue
		}
		v := amount * ctx.Inflation.Factor(cc, ctx.Year)
		currency, ok := ctx.currencyOf(cc)
		if !ok {
			return 0, fmt.Errorf("%s for %q: %w", metric, cc, ErrUnknownCurrency)
		}
		v, err := ctx.toResidence(v, money.L(currency, cc), ctx.StartYear)
		if err != nil {
			return 0, fmt.Errorf("%s for %q: %w", metric, cc, err)
		}
		total += v
	}
	return total, nil
}

// propertyPV deflates a property with the inflation of its linked country.
func (ctx PVContext) propertyPV(p Property, startCountry string) (float64, error) {
	if p.Value == 0 {
		return 0, nil
	}
	cc := strings.ToLower(p.LinkedCountry)
	if cc == "" {
		cc = startCountry
	}
	v := p.Value * ctx.Inflation.Factor(cc, ctx.Year)
	if p.Currency == "" {
		return v, nil
	}
	v, err := ctx.toResidence(v, money.L(p.Currency, cc), ctx.StartYear)
	if err != nil {
		return 0, fmt.Errorf("realEstateCapital for property %q: %w", p.Key, err)
	}
	return v, nil
}

// investmentPV deflates the residence currency capital of an investment.
func (ctx PVContext) investmentPV(key string, capital, factor float64) (float64, error) {
	if capital == 0 {
		return 0, nil
	}
	if ctx.Investments == nil {
		return capital * factor, nil
	}
	inv, ok := ctx.Investments[key]
	if !ok {
		return 0, fmt.Errorf("investmentCapital for %q: %w", key, ErrUnknownInvestmentKey)
	}
	if inv.Scope != rules.Global {
		return capital * factor, nil
	}
	if inv.Base.Currency == "" {
		return 0, fmt.Errorf("investmentCapital for %q: %w", key, ErrUnknownCurrency)
	}
	// back to the asset currency at this year's rates, deflated by the asset
	// country, then to the residence currency at start year rates.
	v, err := ctx.fromResidence(capital, inv.Base, ctx.Year)
	if err != nil {
		return 0, fmt.Errorf("investmentCapital for %q: %w", key, err)
	}
	v *= ctx.Inflation.Factor(inv.Base.Country, ctx.Year)
	if v, err = ctx.toResidence(v, inv.Base, ctx.StartYear); err != nil {
		return 0, fmt.Errorf("investmentCapital for %q: %w", key, err)
	}
	return v, nil
}

func (ctx PVContext) currencyOf(country string) (string, bool) {
	if strings.EqualFold(country, ctx.Residence.Country) {
		return ctx.Residence.Currency, true
	}
	if ctx.Currencies == nil {
		return "", false
	}
	return ctx.Currencies.CurrencyOf(country)
}

func (ctx PVContext) toResidence(v float64, from money.Locale, year int) (float64, error) {
	if from.Currency == ctx.Residence.Currency {
		return v, nil
	}
	return ctx.convert(v, from, ctx.Residence, year)
}

func (ctx PVContext) fromResidence(v float64, to money.Locale, year int) (float64, error) {
	if to.Currency == ctx.Residence.Currency {
		return v, nil
	}
	return ctx.convert(v, ctx.Residence, to, year)
}

func (ctx PVContext) convert(v float64, from, to money.Locale, year int) (float64, error) {
	if ctx.FX == nil {
		return 0, fmt.Errorf("%w: no converter for %s to %s", fx.ErrNoRate, from, to)
	}
	c, ok := fx.Float(ctx.FX, v, from, to, year)
	if !ok {
		return 0, fmt.Errorf("%w: %s to %s in %d", fx.ErrNoRate, from, to, year)
	}
	return c, nil
}

// addTo adds every present value of d to row.
func (d *pv) addTo(row *finsim.DataRow) {
	row.EnsureMaps()
	row.IncomeSalariesPV += d.IncomeSalariesPV
	row.IncomeRSUsPV += d.IncomeRSUsPV
	row.IncomeRentalsPV += d.IncomeRentalsPV
	row.IncomePrivatePensionPV += d.IncomePrivatePensionPV
	row.IncomeStatePensionPV += d.IncomeStatePensionPV
	row.IncomeFundsRentPV += d.IncomeFundsRentPV
	row.IncomeSharesRentPV += d.IncomeSharesRentPV
	row.IncomeCashPV += d.IncomeCashPV
	row.IncomeDefinedBenefitPV += d.IncomeDefinedBenefitPV
	row.IncomeTaxFreePV += d.IncomeTaxFreePV
	row.RealEstateCapitalPV += d.RealEstateCapitalPV
	row.NetIncomePV += d.NetIncomePV
	row.ExpensesPV += d.ExpensesPV
	row.PensionFundPV += d.PensionFundPV
	row.CashPV += d.CashPV
	row.PensionContributionPV += d.PensionContributionPV
	row.WorthPV += d.WorthPV
	for k, v := range d.InvestmentCapitalByKeyPV {
		row.InvestmentCapitalByKeyPV[k] += v
	}
	for k, v := range d.InvestmentIncomeByKeyPV {
		row.InvestmentIncomeByKeyPV[k] += v
	}
	for k, v := range d.TaxColumnsPV {
		row.TaxColumnsPV[k] += v
	}
}
