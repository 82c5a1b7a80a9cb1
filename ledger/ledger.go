// Package ledger models investment vehicles as ledgers of lots.
//
// A Ledger owns the lots bought into one investment type (index funds,
// shares, ...). It grows them every simulated year, sells them first in first
// out and produces the tax declarations those operations trigger. Declarations
// are returned to the caller, who applies them to its revenue.Revenue with
// revenue.Apply.
package ledger

import (
	"errors"
	"fmt"

	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/revenue"
	"github.com/etnz/finsim/rules"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrMissingLocale is returned when buying without a currency or a country.
var ErrMissingLocale = errors.New("buy requires a currency and a country")

// DeemedDisposalLabel labels the gains realized by deemed disposals.
const DeemedDisposalLabel = "Deemed Disposal"

// Ledger holds the lots of one investment vehicle.
type Ledger struct {
	Key       string
	Label     string
	Growth    float64 // mean yearly growth rate
	Stdev     float64 // yearly growth standard deviation
	Treatment TaxTreatment
	// Base is the currency and country the ledger is denominated in. It is set
	// from the type definition, then the ruleset, then the first Buy, and
	// never changes once set.
	Base  money.Locale
	Scope rules.Scope
	// Mix, when set, replaces Growth and Stdev with a blend of two assets
	// depending on the owner's age.
	Mix *MixConfig

	log     zerolog.Logger
	ruleset *rules.Ruleset // for live rate references

	lots         lots
	yearlyBought tally
	yearlySold   decimal.Decimal // in residence currency
	yearlyGrowth tally
}

// New returns an empty ledger.
func New(key, label string, treatment TaxTreatment, logger zerolog.Logger) *Ledger {
	if key == "" {
		key = "asset"
	}
	if label == "" {
		label = key
	}
	return &Ledger{
		Key:          key,
		Label:        label,
		Treatment:    treatment,
		Scope:        rules.Local,
		log:          logger.With().Str("component", "ledger").Str("key", key).Logger(),
		yearlyBought: make(tally),
		yearlyGrowth: make(tally),
	}
}

// FromType returns an empty ledger for an investment type of ruleset rs.
func FromType(t rules.InvestmentType, rs *rules.Ruleset, growth, stdev float64, logger zerolog.Logger) *Ledger {
	l := New(t.Key, t.Label, ResolveTreatment(t, rs), logger)
	l.Growth = growth
	l.Stdev = stdev
	l.ruleset = rs
	l.Base = money.L(t.BaseCurrency, t.AssetCountry)
	if t.ResidenceScope != "" {
		l.Scope = t.ResidenceScope
	}
	if rs != nil {
		if l.Base.Currency == "" {
			l.Base.Currency = rs.CurrencyCode()
		}
		if l.Base.Country == "" {
			l.Base = money.L(l.Base.Currency, rs.CountryCode())
		}
	}
	return l
}

// Lots returns a copy of the ledger lots, oldest first.
func (l *Ledger) Lots() []Lot { return append([]Lot(nil), l.lots...) }

// rate returns the current tax rate.
func (l *Ledger) rate() float64 {
	if l.Treatment.RateRef != "" && l.ruleset != nil {
		if r, err := l.ruleset.Rate(l.Treatment.RateRef); err == nil {
			return r
		}
	}
	return l.Treatment.Rate
}

// Buy appends a new lot of amount, held in currency and country.
// No conversion happens: lots stay in the locale they were bought in.
func (l *Ledger) Buy(ctx Context, amount decimal.Decimal, currency, country string, opts ...LotOption) error {
	if currency == "" || country == "" {
		return fmt.Errorf("%s: %w", l.Key, ErrMissingLocale)
	}
	loc := money.L(currency, country)
	if l.Base.Currency == "" {
		l.Base.Currency = loc.Currency
	}
	if l.Base.Country == "" {
		l.Base.Country = loc.Country
	}
	lot := Lot{Principal: money.In(amount, loc), Interest: money.Zero(loc)}
	for _, opt := range opts {
		opt(&lot)
	}
	l.lots = append(l.lots, lot)
	l.yearlyBought.add(loc, amount)
	l.log.Debug().Int("year", ctx.Year).Stringer("amount", lot.Principal).Msg("buy")
	return nil
}

// Sale is the outcome of a Sell.
type Sale struct {
	Amount       decimal.Decimal // sold, in residence currency
	Gains        decimal.Decimal // realized gains, in residence currency
	Declarations []revenue.Declaration
}

// Sell sells lots, oldest first, for amount expressed in the residence currency.
//
// The last lot involved is partially sold. If any lot cannot be converted to
// the residence currency, ok is false and no lot is modified. Selling from an
// empty ledger is a zero Sale.
func (l *Ledger) Sell(ctx Context, amount decimal.Decimal) (s Sale, ok bool) {
	if len(l.lots) == 0 {
		return Sale{}, true
	}
	plan, ok := l.lots.planSale(amount, ctx.toResidence)
	if !ok {
		l.log.Warn().Int("year", ctx.Year).Str("amount", amount.String()).Msg("sale cannot be priced")
		return Sale{}, false
	}
	l.lots = l.lots.apply(plan)
	l.yearlySold = l.yearlySold.Add(plan.sold)

	return Sale{
		Amount:       plan.sold,
		Gains:        plan.gains,
		Declarations: l.declareRevenue(ctx, plan.sold, plan.gains, " Sale"),
	}, true
}

// declareRevenue builds the declarations of a sale, in residence currency.
func (l *Ledger) declareRevenue(ctx Context, income, gains decimal.Decimal, gainsSuffix string) []revenue.Declaration {
	decls := []revenue.Declaration{{
		Kind:    revenue.Income,
		Amount:  money.In(income, ctx.Residence),
		Label:   l.Label + " Income",
		Country: l.Base.Country,
	}}
	if gains.IsPositive() || l.Treatment.AllowLossOffset {
		decls = append(decls, revenue.Declaration{
			Kind:    revenue.Gains,
			Amount:  money.In(gains, ctx.Residence),
			Rate:    l.rate(),
			Label:   l.Label + gainsSuffix,
			Flags:   l.Treatment.flags(),
			Country: l.Base.Country,
		})
	}
	return decls
}

// Capital returns the value of all lots in the residence currency.
func (l *Ledger) Capital(ctx Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, lot := range l.lots {
		v, err := ctx.strictToResidence(lot.Value().Amount(), lot.Locale())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s capital: %w", l.Key, err)
		}
		total = total.Add(v)
	}
	return total, nil
}

// Stats summarizes a ledger in the residence currency.
type Stats struct {
	Principal    decimal.Decimal
	TotalGain    decimal.Decimal
	YearlyBought decimal.Decimal
	YearlySold   decimal.Decimal
	YearlyGrowth decimal.Decimal
}

// Stats returns the ledger statistics, converted lot by lot.
func (l *Ledger) Stats(ctx Context) (Stats, error) {
	s := Stats{YearlySold: l.yearlySold}
	for _, lot := range l.lots {
		p, err := ctx.strictToResidence(lot.Principal.Amount(), lot.Principal.Locale())
		if err != nil {
			return Stats{}, fmt.Errorf("%s principal: %w", l.Key, err)
		}
		g, err := ctx.strictToResidence(lot.Interest.Amount(), lot.Interest.Locale())
		if err != nil {
			return Stats{}, fmt.Errorf("%s gain: %w", l.Key, err)
		}
		s.Principal = s.Principal.Add(p)
		s.TotalGain = s.TotalGain.Add(g)
	}
	var err error
	if s.YearlyBought, err = l.yearlyBought.total(ctx); err != nil {
		return Stats{}, fmt.Errorf("%s yearly bought: %w", l.Key, err)
	}
	if s.YearlyGrowth, err = l.yearlyGrowth.total(ctx); err != nil {
		return Stats{}, fmt.Errorf("%s yearly growth: %w", l.Key, err)
	}
	return s, nil
}

// ResetYearlyStats zeroes the yearly bought, sold and growth accumulators.
func (l *Ledger) ResetYearlyStats() {
	l.yearlyBought = make(tally)
	l.yearlySold = decimal.Zero
	l.yearlyGrowth = make(tally)
}

// growthParams returns the mean and standard deviation of a lot's yearly growth.
func (l *Ledger) growthParams(ctx Context, lot Lot) (mean, stdev float64) {
	mean, stdev = l.Growth, l.Stdev
	if l.Mix != nil {
		mean, stdev = l.Mix.BlendedGrowth(ctx.Age), l.Mix.BlendedVolatility(ctx.Age)
	}
	if lot.Growth != nil {
		mean = *lot.Growth
	}
	if lot.Stdev != nil {
		stdev = *lot.Stdev
	}
	return mean, stdev
}

// AddYear grows every lot by one simulated year and, under exit tax, applies
// deemed disposals. It returns the resulting declarations.
func (l *Ledger) AddYear(ctx Context) ([]revenue.Declaration, error) {
	for i := range l.lots {
		lot := &l.lots[i]
		rate := ctx.gaussian(l.growthParams(ctx, *lot))
		growth := lot.Value().Amount().Mul(decimal.NewFromFloat(rate))
		lot.Interest = lot.Interest.WithAmount(lot.Interest.Amount().Add(growth))
		l.yearlyGrowth.add(lot.Interest.Locale(), growth)
		lot.Age++
		lot.floor()
	}

	if l.Treatment.Category != ExitTax {
		return nil, nil
	}
	return l.deemedDisposal(ctx)
}

// deemedDisposal realizes the gains of every lot that reached the interval.
func (l *Ledger) deemedDisposal(ctx Context) ([]revenue.Declaration, error) {
	years := l.activeDeemedDisposalYears(ctx)
	if years <= 0 {
		return nil, nil
	}

	// convert first so that a failure leaves the lots untouched.
	var due []int
	var converted []decimal.Decimal
	for i, lot := range l.lots {
		if lot.Age == 0 || lot.Age%years != 0 {
			continue
		}
		gains := lot.Interest.Amount()
		var v decimal.Decimal
		if gains.IsPositive() || l.Treatment.AllowLossOffset {
			var err error
			if v, err = ctx.strictToResidence(gains, lot.Interest.Locale()); err != nil {
				return nil, fmt.Errorf("%s deemed disposal: %w", l.Key, err)
			}
		}
		due = append(due, i)
		converted = append(converted, v)
	}

	var decls []revenue.Declaration
	for j, i := range due {
		lot := &l.lots[i]
		gains := lot.Interest
		lot.Principal = lot.Principal.Add(gains)
		lot.Interest = money.Zero(gains.Locale())
		lot.Age = 0
		if !gains.Amount().IsPositive() && !l.Treatment.AllowLossOffset {
			continue
		}
		l.log.Debug().Int("year", ctx.Year).Stringer("gains", gains).Msg("deemed disposal")
		decls = append(decls, revenue.Declaration{
			Kind:    revenue.Gains,
			Amount:  money.In(converted[j], ctx.Residence),
			Rate:    l.rate(),
			Label:   DeemedDisposalLabel,
			Flags:   l.Treatment.flags(),
			Country: l.Base.Country,
		})
	}
	return decls, nil
}

// activeDeemedDisposalYears resolves the deemed disposal interval of the
// country the owner currently lives in, then of the countries whose rules
// still follow them. Without rulesets the interval resolved at construction
// applies.
func (l *Ledger) activeDeemedDisposalYears(ctx Context) int {
	if ctx.Rules == nil {
		return l.Treatment.DeemedDisposalYears
	}
	if rs, ok := ctx.Rules.Ruleset(ctx.Country); ok {
		if t, ok := rs.FindInvestmentTypeByKey(l.Key); ok {
			if n := deemedDisposalYears(t); n > 0 {
				return n
			}
		}
	}
	if ctx.Revenue == nil {
		return 0
	}
	for _, cb := range ctx.Revenue.ActiveCrossBorderTaxCountries() {
		if cb.Ruleset == nil {
			continue
		}
		if t, ok := cb.Ruleset.FindInvestmentTypeByKey(l.Key); ok {
			if n := deemedDisposalYears(t); n > 0 {
				return n
			}
		}
	}
	return 0
}

// SimulateSellAll prices the sale of every lot without selling anything.
//
// The hypothetical declarations are sent to scratch, never to the real
// revenue. ok is false if any lot cannot be converted.
func (l *Ledger) SimulateSellAll(ctx Context, scratch revenue.Revenue) (decimal.Decimal, bool) {
	capital, gains := decimal.Zero, decimal.Zero
	for _, lot := range l.lots {
		c, ok := ctx.toResidence(lot.Value().Amount(), lot.Locale())
		if !ok {
			return decimal.Zero, false
		}
		g, ok := ctx.toResidence(lot.Interest.Amount(), lot.Interest.Locale())
		if !ok {
			return decimal.Zero, false
		}
		capital = capital.Add(c)
		gains = gains.Add(g)
	}
	revenue.Apply(scratch, l.declareRevenue(ctx, capital, gains, " Sim"))
	return capital, true
}

// tally sums amounts held in different locales.
type tally map[money.Locale]decimal.Decimal

func (t tally) add(loc money.Locale, v decimal.Decimal) { t[loc] = t[loc].Add(v) }

// total converts and sums the tally in the residence currency.
func (t tally) total(ctx Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for loc, v := range t {
		c, err := ctx.strictToResidence(v, loc)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(c)
	}
	return sum, nil
}
