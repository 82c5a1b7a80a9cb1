package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/finsim/ledger"
	"github.com/etnz/finsim/rules"
)

// InvestmentTypesMarkdown renders the investment types of a ruleset, with
// the ledgers the factory builds for them.
func InvestmentTypesMarkdown(rs *rules.Ruleset, ledgers []*ledger.Ledger) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Investment Types in %s\n\n", rs.CountryCode())
	fmt.Fprintf(&b, "Currency: %s\n\n", rs.CurrencyCode())
	fmt.Fprintf(&b, "Capital gains tax: %.4g%%, annual exemption %s\n\n",
		rs.CapitalGainsRate()*100, amount(rs.CapitalGainsAnnualExemption(), rs.CurrencyCode()))

	table(&b, "Key", "Label", "Base", "Scope", "Taxation", "Growth", "Volatility")
	for _, l := range ledgers {
		tableRow(&b,
			l.Key,
			l.Label,
			l.Base.String(),
			string(l.Scope),
			l.Treatment.String(),
			fmt.Sprintf("%.2f%%", l.Growth*100),
			fmt.Sprintf("%.2f%%", l.Stdev*100),
		)
	}
	return b.String()
}

// LotsMarkdown renders the lots of ledgers, oldest first.
func LotsMarkdown(ledgers []*ledger.Ledger) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Lots\n\n")
	table(&b, "Investment", "Age", "Principal", "Gains", "Value")
	for _, l := range ledgers {
		for _, lot := range l.Lots() {
			tableRow(&b,
				l.Label,
				fmt.Sprint(lot.Age),
				lot.Principal.String(),
				lot.Interest.SignedString(),
				lot.Value().String(),
			)
		}
	}
	return b.String()
}
