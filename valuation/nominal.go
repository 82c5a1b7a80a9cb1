package valuation

import (
	"math"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/revenue"
)

// NominalContext holds the nominal values of a year, in residence currency.
type NominalContext struct {
	Row  *finsim.DataRow
	Year int
	Age  int

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
	WithdrawalRate       float64
	PensionCapital       float64
	RealEstate           float64
	Cash                 float64

	InvestmentIncomeByKey map[string]float64
	CapitalByKey          map[string]float64

	Revenue revenue.Revenue
	// StableTaxIDs get a tax column even in years they are not due.
	StableTaxIDs []string
}

// ComputeNominal adds the nominal aggregates of a year to its row.
func ComputeNominal(ctx NominalContext) {
	row := ctx.Row
	row.EnsureMaps()
	row.Age = ctx.Age
	row.Year = ctx.Year

	for _, id := range ctx.StableTaxIDs {
		col := finsim.TaxColumnPrefix + id
		row.TaxColumns[col] += 0
		row.TaxColumnsPV[col] += 0
	}

	row.IncomeSalaries += ctx.IncomeSalaries
	row.IncomeRSUs += ctx.IncomeRSUs
	row.IncomeRentals += ctx.IncomeRentals
	row.IncomePrivatePension += ctx.IncomePrivatePension
	row.IncomeStatePension += ctx.IncomeStatePension
	row.IncomeFundsRent += ctx.IncomeFundsRent
	row.IncomeSharesRent += ctx.IncomeSharesRent
	row.IncomeCash += math.Max(ctx.CashWithdraw, 0)
	row.IncomeDefinedBenefit += ctx.IncomeDefinedBenefit
	row.IncomeTaxFree += ctx.IncomeTaxFree
	row.RealEstateCapital += ctx.RealEstate
	row.NetIncome += ctx.NetIncome
	row.Expenses += ctx.Expenses
	row.PensionFund += ctx.PensionCapital
	row.Cash += ctx.Cash
	row.PensionContribution += ctx.PensionContribution
	row.WithdrawalRate += ctx.WithdrawalRate

	for k, v := range ctx.InvestmentIncomeByKey {
		row.InvestmentIncomeByKey[k] += v
	}
	var investments float64
	for k, v := range ctx.CapitalByKey {
		row.InvestmentCapitalByKey[k] += v
		investments += v
	}

	if ctx.Revenue != nil {
		for id := range ctx.Revenue.TaxTotals() {
			row.TaxColumns[finsim.TaxColumnPrefix+id] += ctx.Revenue.TaxByType(id)
		}
	}

	row.Worth += ctx.RealEstate + ctx.PensionCapital + investments + ctx.Cash
}
