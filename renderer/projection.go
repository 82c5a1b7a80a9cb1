package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/finsim/projection"
)

// ProjectionMarkdown renders the yearly worth quantiles of a set of runs.
func ProjectionMarkdown(title string, runs int, nominal, pv []projection.Quantiles, currency string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Runs: %d\n\n", runs)

	fmt.Fprint(&b, "## Worth\n\n")
	table(&b, "Year", "Age", "P10", "Median", "P90", "Median (PV)")
	for i, q := range nominal {
		medianPV := "-"
		if i < len(pv) {
			medianPV = amount(pv[i].P50, currency)
		}
		tableRow(&b,
			fmt.Sprint(q.Year),
			fmt.Sprint(q.Age),
			amount(q.P10, currency),
			amount(q.P50, currency),
			amount(q.P90, currency),
			medianPV,
		)
	}
	return b.String()
}
