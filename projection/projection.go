// Package projection runs scenarios year by year.
//
// It is a small driver around the core packages: every simulated year it
// buys, grows and sells the investment ledgers, collects their tax
// declarations into a revenue book, then writes the year's nominal values,
// present values and attributions onto a new DataRow.
package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/attribution"
	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/ledger"
	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/revenue"
	"github.com/etnz/finsim/rules"
	"github.com/etnz/finsim/valuation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownInvestment is returned when a scenario invests in a type its
// country's ruleset does not define.
var ErrUnknownInvestment = errors.New("unknown investment type")

// Run is the outcome of one projection of a scenario.
type Run struct {
	ID   string
	Seed uint64
	Rows []*finsim.DataRow

	// Ledgers are the investment ledgers as of the last year.
	Ledgers []*ledger.Ledger
}

// Projector projects a scenario under a set of tax rules.
type Projector struct {
	Scenario *config.Scenario
	Rules    *rules.Registry
	Log      zerolog.Logger
}

// run holds the state of one projection.
type run struct {
	scenario    *config.Scenario
	registry    *rules.Registry
	log         zerolog.Logger
	residence   money.Locale
	rates       fx.Converter
	sampler     ledger.Sampler
	book        *revenue.Book
	inflation   *valuation.Inflation
	ledgers     []*ledger.Ledger
	byKey       map[string]*ledger.Ledger
	investments map[string]valuation.Investment
	taxIDs      map[string]bool
}

// Run projects the scenario once, drawing growth from a sampler seeded with seed.
func (p *Projector) Run(ctx context.Context, seed uint64) (*Run, error) {
	s := p.Scenario
	rs, err := p.Rules.MustRuleset(s.Country)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	log := p.Log.With().Str("component", "projection").Str("run", id).Logger()

	r := &run{
		scenario:  s,
		registry:  p.Rules,
		log:       log,
		residence: money.L(rs.CurrencyCode(), rs.CountryCode()),
		rates:     s.FX(),
		sampler:   ledger.NewNormalSampler(seed),
		book:      revenue.NewBook(rs.CapitalGainsAnnualExemption(), log),
		inflation: &valuation.Inflation{
			StartYear:   s.StartYear,
			BaseCountry: s.Country,
			Scenario:    s.Inflation,
			Overrides:   s.InflationOverrides,
			CPI:         s.CPI,
			Rules:       p.Rules,
			Log:         log,
		},
		ledgers:     ledger.NewLedgers(rs, s.LedgerParams(), log),
		byKey:       make(map[string]*ledger.Ledger),
		investments: make(map[string]valuation.Investment),
		taxIDs:      make(map[string]bool),
	}
	for _, l := range r.ledgers {
		r.byKey[l.Key] = l
		r.investments[l.Key] = valuation.Investment{Scope: l.Scope, Base: l.Base}
	}
	for _, inv := range s.Investments {
		if _, ok := r.byKey[inv.Key]; !ok {
			return nil, fmt.Errorf("%w %q in %s", ErrUnknownInvestment, inv.Key, rs.CountryCode())
		}
	}

	log.Info().Uint64("seed", seed).Int("years", s.Years).Msg("projection started")
	out := &Run{ID: id, Seed: seed}
	for i := range s.Years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.year(s.StartYear+i, s.StartAge+i, i == 0)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", s.StartYear+i, err)
		}
		out.Rows = append(out.Rows, row)
	}
	out.Ledgers = r.ledgers
	log.Info().Msg("projection done")
	return out, nil
}

// year simulates one year and returns its row.
func (r *run) year(year, age int, first bool) (*finsim.DataRow, error) {
	s := r.scenario
	r.book.Reset()
	lctx := ledger.Context{
		Year:      year,
		StartYear: s.StartYear,
		Age:       age,
		Country:   s.Country,
		Residence: r.residence,
		Rules:     r.registry,
		FX:        r.rates,
		Revenue:   r.book,
		Sampler:   r.sampler,
	}
	acc := attribution.NewYearlyAccumulator(s.Country, year)
	withdrawing := s.Withdrawal != nil && age >= s.Withdrawal.Age

	for _, l := range r.ledgers {
		l.ResetYearlyStats()
	}
	if err := r.invest(lctx, first, withdrawing); err != nil {
		return nil, err
	}
	for _, l := range r.ledgers {
		decls, err := l.AddYear(lctx)
		if err != nil {
			return nil, err
		}
		revenue.Apply(r.book, decls)
	}

	income := make(map[string]float64)
	var withdrawn float64
	if withdrawing {
		for _, l := range r.ledgers {
			capital, err := l.Capital(lctx)
			if err != nil {
				return nil, err
			}
			amount := capital.Mul(money.D(s.Withdrawal.Rate))
			if !amount.IsPositive() {
				continue
			}
			sale, ok := l.Sell(lctx, amount)
			if !ok {
				r.log.Warn().Int("year", year).Str("key", l.Key).Msg("withdrawal skipped")
				continue
			}
			revenue.Apply(r.book, sale.Declarations)
			income[l.Key] += sale.Amount.InexactFloat64()
			withdrawn += sale.Amount.InexactFloat64()
			if err := acc.Record("incomeCash", l.Label, sale.Amount.InexactFloat64()); err != nil {
				return nil, err
			}
		}
	}

	capitals := make(map[string]float64)
	for _, l := range r.ledgers {
		c, err := l.Capital(lctx)
		if err != nil {
			return nil, err
		}
		capitals[l.Key] = c.InexactFloat64()
	}

	var tax float64
	for id, t := range r.book.TaxTotals() {
		r.taxIDs[id] = true
		tax += t
		if err := acc.Record("tax:"+id, "Investments", t); err != nil {
			return nil, err
		}
	}
	for _, d := range r.book.Declarations() {
		if d.Kind == revenue.Gains {
			if err := acc.Record("investmentGains:"+d.Country, d.Label, d.Amount.Float()); err != nil {
				return nil, err
			}
		}
	}

	var rate float64
	if withdrawing {
		rate = s.Withdrawal.Rate
	}
	row := finsim.NewDataRow(year, age)
	valuation.ComputeNominal(valuation.NominalContext{
		Row:                   row,
		Year:                  year,
		Age:                   age,
		CashWithdraw:          withdrawn,
		NetIncome:             withdrawn - tax,
		WithdrawalRate:        rate,
		InvestmentIncomeByKey: income,
		CapitalByKey:          capitals,
		Revenue:               r.book,
		StableTaxIDs:          finsim.SortedKeys(r.taxIDs),
	})
	err := valuation.ComputePresentValue(valuation.PVContext{
		Row:                   row,
		Year:                  year,
		StartYear:             s.StartYear,
		Country:               s.Country,
		StartCountry:          s.Country,
		Residence:             r.residence,
		Inflation:             r.inflation,
		FX:                    r.rates,
		Currencies:            r.registry,
		Revenue:               r.book,
		Log:                   r.log,
		CashWithdraw:          withdrawn,
		NetIncome:             withdrawn - tax,
		InvestmentIncomeByKey: income,
		CapitalByKey:          capitals,
		Investments:           r.investments,
	})
	if err != nil {
		return nil, err
	}

	assets, err := attribution.Assets(lctx, r.ledgers)
	if err != nil {
		return nil, err
	}
	if err := attribution.Populate(row, assets, acc, r.book, r.log); err != nil {
		return nil, err
	}
	return row, nil
}

// invest buys the initial amounts the first year, and the contributions
// afterwards until withdrawals start.
func (r *run) invest(lctx ledger.Context, first, withdrawing bool) error {
	for _, inv := range r.scenario.Investments {
		amount := inv.Contribution
		if first {
			amount = inv.Amount
		}
		if amount <= 0 || (!first && withdrawing) {
			continue
		}
		currency, country := inv.Currency, inv.Country
		if currency == "" {
			currency = r.residence.Currency
		}
		if country == "" {
			country = r.residence.Country
		}
		var opts []ledger.LotOption
		if inv.Growth != nil {
			opts = append(opts, ledger.WithGrowth(*inv.Growth))
		}
		if inv.Volatility != nil {
			opts = append(opts, ledger.WithStdev(*inv.Volatility))
		}
		if err := r.byKey[inv.Key].Buy(lctx, money.D(amount), currency, country, opts...); err != nil {
			return err
		}
	}
	return nil
}
