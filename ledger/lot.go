package ledger

import (
	"github.com/etnz/finsim/money"
	"github.com/shopspring/decimal"
)

// Lot represents a single purchase into a ledger.
//
// Principal+Interest is the lot value in its own currency. Growth and Stdev,
// when set, replace the ledger's parameters for this lot.
type Lot struct {
	Principal money.Money
	Interest  money.Money
	Age       int
	Growth    *float64
	Stdev     *float64
}

// Value returns principal plus interest.
func (l Lot) Value() money.Money { return l.Principal.Add(l.Interest) }

// Locale returns the currency and country the lot is held in.
func (l Lot) Locale() money.Locale { return l.Principal.Locale() }

// floor zeroes a lot whose value went negative.
func (l *Lot) floor() {
	if l.Value().IsNegative() {
		l.Principal = money.Zero(l.Principal.Locale())
		l.Interest = money.Zero(l.Interest.Locale())
	}
}

// scale multiplies principal and interest in place.
func (l *Lot) scale(ratio decimal.Decimal) {
	l.Principal = l.Principal.Mul(ratio)
	l.Interest = l.Interest.Mul(ratio)
}

// LotOption customizes a lot at Buy time.
type LotOption func(*Lot)

// WithGrowth overrides the ledger mean growth for the lot.
func WithGrowth(g float64) LotOption { return func(l *Lot) { l.Growth = &g } }

// WithStdev overrides the ledger growth standard deviation for the lot.
func WithStdev(s float64) LotOption { return func(l *Lot) { l.Stdev = &s } }

type lots []Lot

// sale is the outcome of a FIFO sale plan, before it is applied.
type sale struct {
	fullySold int             // number of leading lots entirely sold
	partial   bool            // whether the next lot is partially sold
	fraction  decimal.Decimal // sold fraction of that lot
	sold      decimal.Decimal // in residence currency
	gains     decimal.Decimal // in residence currency
}

// convertFunc converts an amount held in a locale into the residence currency.
type convertFunc func(amount decimal.Decimal, from money.Locale) (decimal.Decimal, bool)

// planSale computes which lots a FIFO sale of amount (in residence currency)
// consumes, without modifying them. It fails if any conversion fails.
func (l lots) planSale(amount decimal.Decimal, convert convertFunc) (sale, bool) {
	var s sale
	remaining := amount
	for _, current := range l {
		if !remaining.IsPositive() {
			break
		}
		capital := current.Value().Amount()
		converted, ok := convert(capital, current.Locale())
		if !ok {
			return sale{}, false
		}

		if remaining.GreaterThanOrEqual(converted) {
			// Full sale of this lot
			gains, ok := convert(current.Interest.Amount(), current.Interest.Locale())
			if !ok {
				return sale{}, false
			}
			s.sold = s.sold.Add(converted)
			s.gains = s.gains.Add(gains)
			s.fullySold++
			remaining = remaining.Sub(converted)
			continue
		}

		// Partial sale from this lot
		fraction := decimal.Zero
		if converted.IsPositive() {
			fraction = remaining.Div(converted)
		}
		soldPortion, ok := convert(capital.Mul(fraction), current.Locale())
		if !ok {
			return sale{}, false
		}
		gainsPortion, ok := convert(current.Interest.Amount().Mul(fraction), current.Interest.Locale())
		if !ok {
			return sale{}, false
		}
		s.sold = s.sold.Add(soldPortion)
		s.gains = s.gains.Add(gainsPortion)
		s.partial = true
		s.fraction = fraction
		remaining = decimal.Zero
	}
	return s, true
}

// apply removes the fully sold lots and scales the partially sold one.
func (l lots) apply(s sale) lots {
	remaining := append(lots(nil), l[s.fullySold:]...)
	if s.partial && len(remaining) > 0 {
		remaining[0].scale(decimal.NewFromInt(1).Sub(s.fraction))
	}
	return remaining
}
