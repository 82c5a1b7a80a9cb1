// Package renderer renders simulation results as markdown.
package renderer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/etnz/finsim/money"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// amount formats a float amount in currency.
func amount(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return money.In(v, money.Locale{Currency: currency}).String()
}

// table writes a markdown table header, the first column left aligned and
// the others right aligned.
func table(w io.Writer, headers ...string) {
	fmt.Fprint(w, "|")
	for _, h := range headers {
		fmt.Fprintf(w, " %s |", h)
	}
	fmt.Fprint(w, "\n|:---|")
	for range headers[1:] {
		fmt.Fprint(w, "---:|")
	}
	fmt.Fprintln(w)
}

// tableRow writes one markdown table row.
func tableRow(w io.Writer, cells ...string) {
	fmt.Fprint(w, "|")
	for _, c := range cells {
		fmt.Fprintf(w, " %s |", c)
	}
	fmt.Fprintln(w)
}
