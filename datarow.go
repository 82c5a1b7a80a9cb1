package finsim

import "sort"

// TaxColumnPrefix prefixes the per tax id columns of a DataRow.
const TaxColumnPrefix = "Tax__"

// DataRow is the record of one simulated year.
//
// Every field is accumulated: stages add to it and never reset it, the row
// lifecycle belongs to the simulation loop. Nominal amounts are in the
// residence currency of that year, PV amounts in start year terms.
type DataRow struct {
	Age  int
	Year int

	IncomeSalaries       float64
	IncomeRSUs           float64
	IncomeRentals        float64
	IncomePrivatePension float64
	IncomeStatePension   float64
	IncomeFundsRent      float64
	IncomeSharesRent     float64
	IncomeCash           float64
	IncomeDefinedBenefit float64
	IncomeTaxFree        float64
	RealEstateCapital    float64
	NetIncome            float64
	Expenses             float64
	PensionFund          float64
	Cash                 float64
	PensionContribution  float64
	WithdrawalRate       float64
	Worth                float64

	IncomeSalariesPV       float64
	IncomeRSUsPV           float64
	IncomeRentalsPV        float64
	IncomePrivatePensionPV float64
	IncomeStatePensionPV   float64
	IncomeFundsRentPV      float64
	IncomeSharesRentPV     float64
	IncomeCashPV           float64
	IncomeDefinedBenefitPV float64
	IncomeTaxFreePV        float64
	RealEstateCapitalPV    float64
	NetIncomePV            float64
	ExpensesPV             float64
	PensionFundPV          float64
	CashPV                 float64
	PensionContributionPV  float64
	WorthPV                float64

	// Attributions breaks metrics down by source: metric -> source -> amount.
	Attributions map[string]map[string]float64
	// TaxByKey sums the revenue tax totals by tax id.
	TaxByKey map[string]float64
	// TaxColumns and TaxColumnsPV are keyed by TaxColumnPrefix+id.
	TaxColumns   map[string]float64
	TaxColumnsPV map[string]float64

	InvestmentIncomeByKey    map[string]float64
	InvestmentCapitalByKey   map[string]float64
	InvestmentIncomeByKeyPV  map[string]float64
	InvestmentCapitalByKeyPV map[string]float64
}

// NewDataRow returns an empty row with every map allocated.
func NewDataRow(year, age int) *DataRow {
	r := &DataRow{Year: year, Age: age}
	r.EnsureMaps()
	return r
}

// EnsureMaps allocates the maps of a row that were left nil, keeping the
// others. Writers call it so that a zero DataRow is usable.
func (r *DataRow) EnsureMaps() {
	if r.Attributions == nil {
		r.Attributions = make(map[string]map[string]float64)
	}
	for _, m := range []*map[string]float64{
		&r.TaxByKey,
		&r.TaxColumns,
		&r.TaxColumnsPV,
		&r.InvestmentIncomeByKey,
		&r.InvestmentCapitalByKey,
		&r.InvestmentIncomeByKeyPV,
		&r.InvestmentCapitalByKeyPV,
	} {
		if *m == nil {
			*m = make(map[string]float64)
		}
	}
}

// AddAttribution adds amount to the metric's source.
func (r *DataRow) AddAttribution(metric, source string, amount float64) {
	r.EnsureMaps()
	m, ok := r.Attributions[metric]
	if !ok {
		m = make(map[string]float64)
		r.Attributions[metric] = m
	}
	m[source] += amount
}

// Metric is a named pair of nominal and present value amounts of a row.
type Metric struct {
	Name    string
	Nominal float64
	PV      float64
}

// Metrics lists the scalar metrics of the row, in display order.
func (r *DataRow) Metrics() []Metric {
	return []Metric{
		{"incomeSalaries", r.IncomeSalaries, r.IncomeSalariesPV},
		{"incomeRSUs", r.IncomeRSUs, r.IncomeRSUsPV},
		{"incomeRentals", r.IncomeRentals, r.IncomeRentalsPV},
		{"incomePrivatePension", r.IncomePrivatePension, r.IncomePrivatePensionPV},
		{"incomeStatePension", r.IncomeStatePension, r.IncomeStatePensionPV},
		{"incomeFundsRent", r.IncomeFundsRent, r.IncomeFundsRentPV},
		{"incomeSharesRent", r.IncomeSharesRent, r.IncomeSharesRentPV},
		{"incomeCash", r.IncomeCash, r.IncomeCashPV},
		{"incomeDefinedBenefit", r.IncomeDefinedBenefit, r.IncomeDefinedBenefitPV},
		{"incomeTaxFree", r.IncomeTaxFree, r.IncomeTaxFreePV},
		{"realEstateCapital", r.RealEstateCapital, r.RealEstateCapitalPV},
		{"netIncome", r.NetIncome, r.NetIncomePV},
		{"expenses", r.Expenses, r.ExpensesPV},
		{"pensionFund", r.PensionFund, r.PensionFundPV},
		{"cash", r.Cash, r.CashPV},
		{"pensionContribution", r.PensionContribution, r.PensionContributionPV},
		{"worth", r.Worth, r.WorthPV},
	}
}

// SortedKeys returns the keys of m, sorted.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
