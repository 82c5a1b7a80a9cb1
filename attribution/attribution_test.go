package attribution

import (
	"errors"
	"math"
	"testing"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/ledger"
	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/revenue"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestAttribution(t *testing.T) {
	a := New("incomeTax")
	a.Add("Salary", 100)
	a.Add("Salary", 50)
	a.Add("Rental", 30)
	a.Add("Nothing", 0)

	if got, want := a.Total(), 180.0; got != want {
		t.Errorf("Total() = %v, want %v", got, want)
	}
	want := map[string]float64{"Salary": 150, "Rental": 30}
	if diff := cmp.Diff(want, a.Breakdown()); diff != "" {
		t.Errorf("Breakdown() mismatch (-want +got):\n%s", diff)
	}

	c := a.Clone()
	c.Add("Salary", 1)
	if got := a.Breakdown()["Salary"]; got != 150 {
		t.Errorf("Clone() shares slices: Salary = %v, want 150", got)
	}

	a.SetCountryContext("IE", 2030)
	a.SetCountryContext("us", 2031)
	if a.Country != "ie" || a.Year != 2030 {
		t.Errorf("SetCountryContext() = %s/%d, want ie/2030", a.Country, a.Year)
	}
}

type currencies map[string]string

func (c currencies) CurrencyOf(country string) (string, bool) {
	v, ok := c[country]
	return v, ok
}

func TestAttribution_NormalizedTotal(t *testing.T) {
	cur := currencies{"ie": "EUR", "us": "USD"}
	rates := fx.NewTable().Set("USD", "EUR", 2030, 0.5)

	a := New("incomeSalaries")
	a.Add("Salary", 1000)

	if got := a.NormalizedTotal("ie", cur, rates); got.Amount != 1000 || got.FXRate != 1 || got.Currency != "" {
		t.Errorf("NormalizedTotal() without context = %+v, want the raw total", got)
	}

	a.SetCountryContext("us", 2030)
	got := a.NormalizedTotal("ie", cur, rates)
	want := Normalized{Amount: 500, Currency: "EUR", FXRate: 0.5, OriginalAmount: 1000, OriginalCurrency: "USD"}
	if got != want {
		t.Errorf("NormalizedTotal() = %+v, want %+v", got, want)
	}

	if got := a.NormalizedTotal("us", cur, rates); got.Currency != "USD" || got.Amount != 1000 {
		t.Errorf("NormalizedTotal() same country = %+v, want 1000 USD", got)
	}
	if got := a.NormalizedTotal("ie", cur, fx.NewTable()); got.Currency != "USD" || got.Amount != 1000 {
		t.Errorf("NormalizedTotal() without rate = %+v, want 1000 USD", got)
	}
}

func TestPopulate(t *testing.T) {
	row := finsim.NewDataRow(2030, 40)
	acc := NewYearlyAccumulator("ie", 2030)
	mustRecord(t, acc, "incomeSalaries:us", "Salary", 1000)
	mustRecord(t, acc, "incomeSalaries", "Salary", 500)
	mustRecord(t, acc, "tax:incomeTax:us", "Salary", 200)
	mustRecord(t, acc, "broken", "NaN", math.NaN())

	book := revenue.NewBook(0, zerolog.Nop())
	book.DeclareInvestmentGains(money.M(100, "EUR", "ie"), 0.5, "Shares Sale", revenue.GainFlags{Category: revenue.CapitalGains}, "ie")
	row.TaxByKey["cgt:ie"] = 10

	assets := []Asset{
		{Key: "indexFunds", Stats: ledger.Stats{Principal: money.D(1000), TotalGain: money.D(50), YearlyBought: money.D(300), YearlySold: money.D(100)}},
		{Key: "shares", Stats: ledger.Stats{Principal: money.D(500), YearlySold: money.D(200)}},
		{Key: "Crypto", Stats: ledger.Stats{}},
	}

	if err := Populate(row, assets, acc, book, zerolog.Nop()); err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}

	want := map[string]map[string]float64{
		"incomeSalaries":    {"Salary (US)": 1000, "Salary": 500},
		"tax:incomeTax:us":  {"Salary": 200},
		"indexfundscapital": {"Bought": 200, "Principal": 1000, "P/L": 50},
		"sharescapital":     {"Sold": 200, "Principal": 500},
	}
	if diff := cmp.Diff(want, row.Attributions); diff != "" {
		t.Errorf("Attributions mismatch (-want +got):\n%s", diff)
	}
	if got := row.TaxByKey["cgt:ie"]; got != 60 {
		t.Errorf("TaxByKey[cgt:ie] = %v, want 60", got)
	}

	if !acc.Consumed() {
		t.Errorf("Consumed() = false, want true")
	}
	if err := acc.Record("x", "y", 1); !errors.Is(err, ErrAccumulatorConsumed) {
		t.Errorf("Record() after Populate error = %v, want %v", err, ErrAccumulatorConsumed)
	}
	if err := Populate(row, nil, acc, nil, zerolog.Nop()); !errors.Is(err, ErrAccumulatorConsumed) {
		t.Errorf("Populate() twice error = %v, want %v", err, ErrAccumulatorConsumed)
	}
}

func TestPopulate_ZeroRow(t *testing.T) {
	row := &finsim.DataRow{Year: 2030}
	acc := NewYearlyAccumulator("ie", 2030)
	mustRecord(t, acc, "incomeSalaries", "Salary", 500)
	book := revenue.NewBook(0, zerolog.Nop())
	book.DeclareInvestmentGains(money.M(100, "EUR", "ie"), 0.5, "Shares Sale", revenue.GainFlags{Category: revenue.CapitalGains}, "ie")

	if err := Populate(row, nil, acc, book, zerolog.Nop()); err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}
	if got := row.TaxByKey["cgt:ie"]; got != 50 {
		t.Errorf("TaxByKey[cgt:ie] = %v, want 50", got)
	}
	if got := row.Attributions["incomeSalaries"]["Salary"]; got != 500 {
		t.Errorf("Attributions[incomeSalaries][Salary] = %v, want 500", got)
	}
}

func TestPopulate_AccumulatesAcrossYears(t *testing.T) {
	row := finsim.NewDataRow(2030, 40)
	for year := 2030; year < 2033; year++ {
		acc := NewYearlyAccumulator("us", year)
		mustRecord(t, acc, "incomeSalaries:us", "Salary", 100)
		if err := Populate(row, nil, acc, nil, zerolog.Nop()); err != nil {
			t.Fatalf("Populate(%d) unexpected error: %v", year, err)
		}
	}
	if got := row.Attributions["incomeSalaries"]["Salary (US)"]; got != 300 {
		t.Errorf("Attributions[incomeSalaries][Salary (US)] = %v, want 300", got)
	}
}

func TestSplitMetric(t *testing.T) {
	testCases := []struct {
		metric, base, country string
	}{
		{"incomeSalaries:us", "incomeSalaries", "us"},
		{"incomeSalaries", "incomeSalaries", ""},
		{"tax:incomeTax:us", "tax:incomeTax:us", ""},
		{":us", ":us", ""},
		{"a:b:c", "a", "b"},
	}
	for _, tc := range testCases {
		base, country := splitMetric(tc.metric)
		if base != tc.base || country != tc.country {
			t.Errorf("splitMetric(%q) = %q, %q, want %q, %q", tc.metric, base, country, tc.base, tc.country)
		}
	}
}

func TestCapitalMetric(t *testing.T) {
	for key, want := range map[string]string{
		"indexFunds":    "indexfundscapital",
		"shares":        "sharescapital",
		"indexFunds_ie": "indexfunds_iecapital",
	} {
		if got := CapitalMetric(key); got != want {
			t.Errorf("CapitalMetric(%q) = %q, want %q", key, got, want)
		}
	}
}

func mustRecord(t *testing.T, acc *YearlyAccumulator, metric, source string, amount float64) {
	t.Helper()
	if err := acc.Record(metric, source, amount); err != nil {
		t.Fatalf("Record(%q) unexpected error: %v", metric, err)
	}
}
