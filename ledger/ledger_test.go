package ledger

import (
	"errors"
	"testing"

	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/revenue"
	"github.com/etnz/finsim/rules"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var equalMoney = cmp.Comparer(money.Money.Equal)

func usdContext() Context {
	return Context{Year: 2025, StartYear: 2025, Country: "us", Residence: money.L("USD", "us")}
}

func assertMoney(t *testing.T, name string, got money.Money, want float64) {
	t.Helper()
	if !got.Amount().Equal(money.D(want)) {
		t.Errorf("%s = %v, want %v", name, got.Amount(), want)
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want float64) {
	t.Helper()
	if !got.Equal(money.D(want)) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestLedger_Scenario(t *testing.T) {
	ctx := usdContext()
	l := New("indexFunds", "Index Funds", NewCapitalGains(0), zerolog.Nop())

	if err := l.Buy(ctx, money.D(10000), "USD", "US"); err != nil {
		t.Fatalf("Buy() unexpected error: %v", err)
	}
	if l.Base != money.L("USD", "us") {
		t.Errorf("Base = %v, want USD/US", l.Base)
	}
	if _, err := l.AddYear(ctx); err != nil {
		t.Fatalf("AddYear() unexpected error: %v", err)
	}
	capital, err := l.Capital(ctx)
	if err != nil {
		t.Fatalf("Capital() unexpected error: %v", err)
	}
	assertDecimal(t, "Capital()", capital, 10000)

	sale, ok := l.Sell(ctx, money.D(4000))
	if !ok {
		t.Fatalf("Sell() ok = false, want true")
	}
	assertDecimal(t, "Sell().Amount", sale.Amount, 4000)
	lots := l.Lots()
	if len(lots) != 1 {
		t.Fatalf("len(Lots()) = %d, want 1", len(lots))
	}
	assertMoney(t, "Principal", lots[0].Principal, 6000)
	assertMoney(t, "Interest", lots[0].Interest, 0)

	l.Treatment = NewExitTax(0.41, 1)
	l.Growth = 0.1
	decls, err := l.AddYear(ctx)
	if err != nil {
		t.Fatalf("AddYear() unexpected error: %v", err)
	}
	lots = l.Lots()
	assertMoney(t, "Principal", lots[0].Principal, 6600)
	assertMoney(t, "Interest", lots[0].Interest, 0)
	if lots[0].Age != 0 {
		t.Errorf("Age = %d, want 0", lots[0].Age)
	}

	want := []revenue.Declaration{{
		Kind:    revenue.Gains,
		Amount:  money.M(600, "USD", "us"),
		Rate:    0.41,
		Label:   "Deemed Disposal",
		Flags:   revenue.GainFlags{Category: revenue.ExitTax, AllowLossOffset: true},
		Country: "us",
	}}
	if diff := cmp.Diff(want, decls, equalMoney); diff != "" {
		t.Errorf("AddYear() declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_SellDeclarations(t *testing.T) {
	ctx := usdContext()
	l := New("shares", "Shares", NewCapitalGains(0.33), zerolog.Nop())
	l.Growth = 0.1
	l.Buy(ctx, money.D(1000), "USD", "us")
	l.AddYear(ctx)

	sale, ok := l.Sell(ctx, money.D(1100))
	if !ok {
		t.Fatalf("Sell() ok = false, want true")
	}
	assertDecimal(t, "Sell().Gains", sale.Gains, 100)
	want := []revenue.Declaration{
		{Kind: revenue.Income, Amount: money.M(1100, "USD", "us"), Label: "Shares Income", Country: "us"},
		{Kind: revenue.Gains, Amount: money.M(100, "USD", "us"), Rate: 0.33, Label: "Shares Sale",
			Flags:   revenue.GainFlags{Category: revenue.CapitalGains, EligibleForAnnualExemption: true, AllowLossOffset: true},
			Country: "us"},
	}
	if diff := cmp.Diff(want, sale.Declarations, equalMoney); diff != "" {
		t.Errorf("Sell() declarations mismatch (-want +got):\n%s", diff)
	}
	if len(l.Lots()) != 0 {
		t.Errorf("len(Lots()) = %d, want 0", len(l.Lots()))
	}

	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() unexpected error: %v", err)
	}
	assertDecimal(t, "YearlyBought", stats.YearlyBought, 1000)
	assertDecimal(t, "YearlySold", stats.YearlySold, 1100)
	assertDecimal(t, "YearlyGrowth", stats.YearlyGrowth, 100)

	l.ResetYearlyStats()
	stats, _ = l.Stats(ctx)
	assertDecimal(t, "YearlySold", stats.YearlySold, 0)
}

func TestLedger_SellNoLossDeclaration(t *testing.T) {
	ctx := usdContext()
	tt := NewExitTax(0.41, 0)
	tt.AllowLossOffset = false
	l := New("funds", "Funds", tt, zerolog.Nop())
	l.Growth = -0.1
	l.Buy(ctx, money.D(1000), "USD", "us")
	l.AddYear(ctx)

	sale, _ := l.Sell(ctx, money.D(450))
	if len(sale.Declarations) != 1 || sale.Declarations[0].Kind != revenue.Income {
		t.Errorf("Sell() declarations = %v, want the income only", sale.Declarations)
	}
}

func TestLedger_SellFIFO(t *testing.T) {
	testCases := []struct {
		name       string
		amount     float64
		wantSold   float64
		wantValues []float64
	}{
		{name: "within the oldest lot", amount: 500, wantSold: 500, wantValues: []float64{500, 2000}},
		{name: "exactly the oldest lot", amount: 1000, wantSold: 1000, wantValues: []float64{2000}},
		{name: "across lots", amount: 1500, wantSold: 1500, wantValues: []float64{1500}},
		{name: "more than held", amount: 5000, wantSold: 3000, wantValues: nil},
		{name: "nothing", amount: 0, wantSold: 0, wantValues: []float64{1000, 2000}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := usdContext()
			l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
			l.Buy(ctx, money.D(1000), "USD", "us")
			l.Buy(ctx, money.D(2000), "USD", "us")

			sale, ok := l.Sell(ctx, money.D(tc.amount))
			if !ok {
				t.Fatalf("Sell() ok = false, want true")
			}
			assertDecimal(t, "Sell().Amount", sale.Amount, tc.wantSold)
			lots := l.Lots()
			if len(lots) != len(tc.wantValues) {
				t.Fatalf("len(Lots()) = %d, want %d", len(lots), len(tc.wantValues))
			}
			for i, want := range tc.wantValues {
				assertMoney(t, "Lots()[i].Value()", lots[i].Value(), want)
			}
		})
	}
}

func TestLedger_SellEmpty(t *testing.T) {
	l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
	sale, ok := l.Sell(usdContext(), money.D(100))
	if !ok || !sale.Amount.IsZero() || len(sale.Declarations) != 0 {
		t.Errorf("Sell() = %v, %v, want a zero sale", sale, ok)
	}
}

func TestLedger_SellAllOrNothing(t *testing.T) {
	ctx := usdContext()
	// EUR converts, GBP does not.
	ctx.FX = fx.NewTable().Set("EUR", "USD", 2000, 1.25)

	l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
	l.Buy(ctx, money.D(1000), "EUR", "ie")
	l.Buy(ctx, money.D(1000), "GBP", "gb")
	before := l.Lots()

	if _, ok := l.Sell(ctx, money.D(2000)); ok {
		t.Fatalf("Sell() ok = true, want false")
	}
	if diff := cmp.Diff(before, l.Lots(), equalMoney); diff != "" {
		t.Errorf("Lots() changed after a failed sale (-want +got):\n%s", diff)
	}

	// a sale that stops before the GBP lot succeeds.
	sale, ok := l.Sell(ctx, money.D(625))
	if !ok {
		t.Fatalf("Sell() ok = false, want true")
	}
	assertDecimal(t, "Sell().Amount", sale.Amount, 625)
	assertMoney(t, "Lots()[0].Principal", l.Lots()[0].Principal, 500)

	if _, err := l.Capital(ctx); !errors.Is(err, fx.ErrNoRate) {
		t.Errorf("Capital() error = %v, want ErrNoRate", err)
	}
	if _, err := l.Stats(ctx); !errors.Is(err, fx.ErrNoRate) {
		t.Errorf("Stats() error = %v, want ErrNoRate", err)
	}
}

func TestLedger_BuyMissingLocale(t *testing.T) {
	l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
	if err := l.Buy(usdContext(), money.D(1), "", "us"); !errors.Is(err, ErrMissingLocale) {
		t.Errorf("Buy() error = %v, want ErrMissingLocale", err)
	}
	if err := l.Buy(usdContext(), money.D(1), "USD", ""); !errors.Is(err, ErrMissingLocale) {
		t.Errorf("Buy() error = %v, want ErrMissingLocale", err)
	}
	if !l.Base.IsZero() {
		t.Errorf("Base = %v, want unset", l.Base)
	}
}

func TestLedger_BaseIsFixed(t *testing.T) {
	ctx := usdContext()
	ctx.FX = fx.NewTable().Set("EUR", "USD", 2000, 1.25)
	l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
	l.Buy(ctx, money.D(1), "EUR", "ie")
	l.Buy(ctx, money.D(1), "USD", "us")
	if l.Base != money.L("EUR", "ie") {
		t.Errorf("Base = %v, want EUR/IE", l.Base)
	}
}

func TestLedger_LotOverrides(t *testing.T) {
	ctx := usdContext()
	ctx.Sampler = NewNormalSampler(1)
	l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
	l.Growth, l.Stdev = 0.5, 0.3
	l.Buy(ctx, money.D(1000), "USD", "us", WithGrowth(0.1), WithStdev(0))
	l.AddYear(ctx)
	assertMoney(t, "Interest", l.Lots()[0].Interest, 100)
}

func TestLedger_FloorInvariant(t *testing.T) {
	ctx := usdContext()
	l := New("shares", "", NewCapitalGains(0), zerolog.Nop())
	l.Growth = -1.5
	l.Buy(ctx, money.D(1000), "USD", "us")
	l.AddYear(ctx)
	lot := l.Lots()[0]
	assertMoney(t, "Principal", lot.Principal, 0)
	assertMoney(t, "Interest", lot.Interest, 0)
	if lot.Age != 1 {
		t.Errorf("Age = %d, want 1", lot.Age)
	}
}

func TestLedger_DeemedDisposalPeriodicity(t *testing.T) {
	const every = 3
	ctx := usdContext()
	l := New("funds", "Funds", NewExitTax(0.41, every), zerolog.Nop())
	l.Growth = 0.1
	l.Buy(ctx, money.D(1000), "USD", "us")

	for year := 1; year <= 3*every+1; year++ {
		decls, err := l.AddYear(ctx)
		if err != nil {
			t.Fatalf("AddYear() year %d unexpected error: %v", year, err)
		}
		lot := l.Lots()[0]
		disposed := lot.Interest.IsZero() && lot.Age == 0
		if want := year%every == 0; disposed != want {
			t.Errorf("year %d: disposed = %v, want %v (age %d, interest %v)", year, disposed, want, lot.Age, lot.Interest)
		}
		if want := year%every == 0; (len(decls) == 1) != want {
			t.Errorf("year %d: got %d declarations", year, len(decls))
		}
	}
}

func TestLedger_DeemedDisposalConversionFailure(t *testing.T) {
	ctx := usdContext()
	l := New("funds", "Funds", NewExitTax(0.41, 1), zerolog.Nop())
	l.Growth = 0.1
	l.Buy(ctx, money.D(1000), "EUR", "ie")
	if _, err := l.AddYear(ctx); !errors.Is(err, fx.ErrNoRate) {
		t.Errorf("AddYear() error = %v, want ErrNoRate", err)
	}
	// the gains were not realized.
	assertMoney(t, "Interest", l.Lots()[0].Interest, 100)
}

func TestLedger_ActiveDeemedDisposal(t *testing.T) {
	reg, err := rules.Load("../rules/testdata")
	if err != nil {
		t.Fatalf("rules.Load() unexpected error: %v", err)
	}
	ie, _ := reg.Ruleset("ie")
	funds, _ := ie.FindInvestmentTypeByKey("indexFunds_ie")
	l := FromType(funds, ie, 0, 0, zerolog.Nop())

	book := revenue.NewBook(0, zerolog.Nop())
	ctx := Context{Country: "ie", Rules: reg, Revenue: book}
	if got := l.activeDeemedDisposalYears(ctx); got != 8 {
		t.Errorf("activeDeemedDisposalYears(ie) = %d, want 8", got)
	}
	ctx.Country = "us"
	if got := l.activeDeemedDisposalYears(ctx); got != 0 {
		t.Errorf("activeDeemedDisposalYears(us) = %d, want 0", got)
	}
	book.AddCrossBorder("ie", revenue.CrossBorder{Ruleset: ie})
	if got := l.activeDeemedDisposalYears(ctx); got != 8 {
		t.Errorf("activeDeemedDisposalYears(us, trailing ie) = %d, want 8", got)
	}
	ctx.Rules = nil
	l.Treatment.DeemedDisposalYears = 5
	if got := l.activeDeemedDisposalYears(ctx); got != 5 {
		t.Errorf("activeDeemedDisposalYears(no rules) = %d, want 5", got)
	}
}

func TestLedger_SimulateSellAll(t *testing.T) {
	ctx := usdContext()
	ctx.FX = fx.NewTable().Set("EUR", "USD", 2000, 2)
	l := New("funds", "Funds", NewExitTax(0.41, 0), zerolog.Nop())
	l.Growth = 0.1
	l.Buy(ctx, money.D(1000), "EUR", "ie")
	l.AddYear(ctx)
	before := l.Lots()

	scratch := revenue.NewBook(0, zerolog.Nop())
	total, ok := l.SimulateSellAll(ctx, scratch)
	if !ok {
		t.Fatalf("SimulateSellAll() ok = false, want true")
	}
	assertDecimal(t, "SimulateSellAll()", total, 2200)
	if diff := cmp.Diff(before, l.Lots(), equalMoney); diff != "" {
		t.Errorf("Lots() changed (-want +got):\n%s", diff)
	}
	if got := scratch.Gains()["Funds Sim"]; got != 200 {
		t.Errorf("scratch gains = %v, want 200", got)
	}
	if got := scratch.InvestmentIncome(); got != 2200 {
		t.Errorf("scratch income = %v, want 2200", got)
	}

	ctx.FX = nil
	if _, ok := l.SimulateSellAll(ctx, scratch); ok {
		t.Errorf("SimulateSellAll() without rates ok = true, want false")
	}
}

func TestLedger_MixGrowth(t *testing.T) {
	ctx := usdContext()
	ctx.Age = 40
	l := New("funds", "Funds", NewCapitalGains(0), zerolog.Nop())
	l.Mix = &MixConfig{Type: FixedMix, StartAsset1Pct: 50, StartAsset2Pct: 50, Asset1Growth: 0.1, Asset2Growth: 0.02}
	l.Buy(ctx, money.D(1000), "USD", "us")
	l.AddYear(ctx)
	assertMoney(t, "Interest", l.Lots()[0].Interest, 60)
}

func TestNormalSampler(t *testing.T) {
	a, b := NewNormalSampler(42), NewNormalSampler(42)
	for i := 0; i < 5; i++ {
		if x, y := a.Gaussian(0.05, 0.2), b.Gaussian(0.05, 0.2); x != y {
			t.Fatalf("Gaussian() draw %d = %v and %v, want equal for equal seeds", i, x, y)
		}
	}
	if got := a.Gaussian(0.07, 0); got != 0.07 {
		t.Errorf("Gaussian(0.07, 0) = %v, want 0.07", got)
	}
}
