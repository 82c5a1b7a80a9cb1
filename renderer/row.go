package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/finsim"
)

// RowMarkdown renders the metrics, taxes and attributions of a simulated year.
// Amounts are formatted in currency, the residence currency of that year.
func RowMarkdown(row *finsim.DataRow, currency string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Year %d (age %d)\n\n", row.Year, row.Age)

	fmt.Fprint(&b, "## Metrics\n\n")
	table(&b, "Metric", "Nominal", "Present Value")
	for _, m := range row.Metrics() {
		if m.Nominal == 0 && m.PV == 0 && m.Name != "worth" {
			continue
		}
		name := m.Name
		if name == "worth" {
			name = "**worth**"
		}
		tableRow(&b, name, amount(m.Nominal, currency), amount(m.PV, currency))
	}
	if row.WithdrawalRate != 0 {
		fmt.Fprintf(&b, "\nWithdrawal rate: %.2f%%\n", row.WithdrawalRate*100)
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Taxes\n\n")
		table(w, "Tax", "Nominal", "Present Value")
		for _, col := range finsim.SortedKeys(row.TaxColumns) {
			id := strings.TrimPrefix(col, finsim.TaxColumnPrefix)
			tableRow(w, id, amount(row.TaxColumns[col], currency), amount(row.TaxColumnsPV[col], currency))
		}
		return len(row.TaxColumns) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Investments\n\n")
		table(w, "Investment", "Capital", "Present Value", "Income")
		for _, key := range finsim.SortedKeys(row.InvestmentCapitalByKey) {
			tableRow(w, key,
				amount(row.InvestmentCapitalByKey[key], currency),
				amount(row.InvestmentCapitalByKeyPV[key], currency),
				amount(row.InvestmentIncomeByKey[key], currency),
			)
		}
		return len(row.InvestmentCapitalByKey) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Attributions\n")
		return writeAttributions(w, row.Attributions, currency)
	})

	return b.String()
}

// writeAttributions writes one table per metric, and reports if any was written.
func writeAttributions(w io.Writer, attributions map[string]map[string]float64, currency string) bool {
	written := false
	for _, metric := range finsim.SortedKeys(attributions) {
		sources := attributions[metric]
		if len(sources) == 0 {
			continue
		}
		written = true
		fmt.Fprintf(w, "\n### %s\n\n", metric)
		table(w, "Source", "Amount")
		var total float64
		for _, source := range finsim.SortedKeys(sources) {
			total += sources[source]
			tableRow(w, source, amount(sources[source], currency))
		}
		tableRow(w, "**Total**", "**"+amount(total, currency)+"**")
	}
	return written
}
