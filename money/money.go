// Package money provides the currency and country tagged monetary value used
// across the simulation.
//
// A Money carries its amount as a decimal in major units, the ISO currency
// code it is denominated in and the ISO-2 code of the country whose economy it
// belongs to. Two Money values can only be combined when both tags match.
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrInvalidLocale is returned when a currency or country code is missing or unknown.
var ErrInvalidLocale = errors.New("invalid currency or country")

// Locale pairs a currency with the country it is used in.
//
// Currencies are stored upper case ("EUR"), countries lower case ("ie").
type Locale struct {
	Currency string
	Country  string
}

// L returns a normalized Locale.
func L(currency, country string) Locale {
	return Locale{
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
		Country:  strings.ToLower(strings.TrimSpace(country)),
	}
}

func (l Locale) IsZero() bool { return l.Currency == "" && l.Country == "" }

// Complete reports whether both the currency and the country are set.
func (l Locale) Complete() bool { return l.Currency != "" && l.Country != "" }

func (l Locale) String() string { return l.Currency + "/" + strings.ToUpper(l.Country) }

// Validate checks that the locale is complete and that the currency is a known ISO code.
func (l Locale) Validate() error {
	if !l.Complete() {
		return fmt.Errorf("%w: %q", ErrInvalidLocale, l.String())
	}
	if gomoney.GetCurrency(l.Currency) == nil {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidLocale, l.Currency)
	}
	return nil
}

// Money represents a monetary value tagged with a currency and a country.
type Money struct {
	value decimal.Decimal // as major unit value
	loc   Locale
}

// Number lists the types accepted by the generic constructors.
type Number interface {
	float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal
}

// D is a convenient factory for decimal.Decimal.
func D[T Number](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// New creates a Money after validating the currency and country.
func New[T Number](value T, currency, country string) (Money, error) {
	loc := L(currency, country)
	if !loc.Complete() {
		return Money{}, fmt.Errorf("%w: currency %q, country %q", ErrInvalidLocale, currency, country)
	}
	return Money{value: D(value), loc: loc}, nil
}

// M creates a Money and panics if the currency or country is missing.
// It is meant for literals in tests and for values whose tags were already validated.
func M[T Number](value T, currency, country string) Money {
	m, err := New(value, currency, country)
	if err != nil {
		panic(err)
	}
	return m
}

// In creates a Money in the given locale.
func In[T Number](value T, loc Locale) Money { return Money{value: D(value), loc: loc} }

// Zero returns a zero amount in the given locale.
func Zero(loc Locale) Money { return Money{value: decimal.Zero, loc: loc} }

func (m Money) Amount() decimal.Decimal { return m.value }
func (m Money) Currency() string        { return m.loc.Currency }
func (m Money) Country() string         { return m.loc.Country }
func (m Money) Locale() Locale          { return m.loc }
func (m Money) IsZero() bool            { return m.value.IsZero() }
func (m Money) IsPositive() bool        { return m.value.IsPositive() }
func (m Money) IsNegative() bool        { return m.value.IsNegative() }
func (m Money) Neg() Money              { return Money{value: m.value.Neg(), loc: m.loc} }
func (m Money) Equal(n Money) bool      { return m.value.Equal(n.value) && m.loc == n.loc }

// Mul scales the amount by a plain factor.
func (m Money) Mul(f decimal.Decimal) Money { return Money{value: m.value.Mul(f), loc: m.loc} }

// WithAmount returns a copy of m holding a different amount.
func (m Money) WithAmount(v decimal.Decimal) Money { return Money{value: v, loc: m.loc} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), loc: loc(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), loc: loc(m, n)} }

// makes the zero locale totally weak.
func loc(a, b Money) Locale {
	if a.loc.IsZero() {
		return b.loc
	}
	if b.loc.IsZero() {
		return a.loc
	}
	if a.loc.Currency != b.loc.Currency {
		panic("currency mismatch " + a.loc.Currency + "!=" + b.loc.Currency)
	}
	if a.loc.Country != b.loc.Country {
		panic("country mismatch " + a.loc.Country + "!=" + b.loc.Country)
	}
	return a.loc
}

// Float returns the amount as a float64, for the reporting layers that work in floats.
func (m Money) Float() float64 { return m.value.InexactFloat64() }

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := gomoney.GetCurrency(m.loc.Currency)
	if cur == nil {
		return m.value.StringFixed(2) + " " + m.loc.Currency
	}
	minor := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}
