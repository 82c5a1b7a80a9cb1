package attribution

import (
	"errors"

	"github.com/etnz/finsim"
)

// ErrAccumulatorConsumed is returned when an accumulator is used after it
// was folded onto a row.
var ErrAccumulatorConsumed = errors.New("attribution accumulator already consumed")

// YearlyAccumulator collects the attributions of one simulated year.
//
// Its lifecycle is create, record, fold with Populate. Once folded it is
// consumed and rejects any further use: a new year needs a new accumulator.
type YearlyAccumulator struct {
	Country string
	Year    int

	attributions map[string]*Attribution
	consumed     bool
}

// NewYearlyAccumulator returns an empty accumulator for a year spent in a country.
func NewYearlyAccumulator(country string, year int) *YearlyAccumulator {
	return &YearlyAccumulator{
		Country:      country,
		Year:         year,
		attributions: make(map[string]*Attribution),
	}
}

// Record adds amount to the source of a metric.
func (y *YearlyAccumulator) Record(metric, source string, amount float64) error {
	if y.consumed {
		return ErrAccumulatorConsumed
	}
	a, ok := y.attributions[metric]
	if !ok {
		a = New(metric)
		a.SetCountryContext(y.Country, y.Year)
		y.attributions[metric] = a
	}
	a.Add(source, amount)
	return nil
}

// Attribution returns a copy of a metric's attribution, empty if nothing
// was recorded for it.
func (y *YearlyAccumulator) Attribution(metric string) (*Attribution, error) {
	if y.consumed {
		return nil, ErrAccumulatorConsumed
	}
	a, ok := y.attributions[metric]
	if !ok {
		a = New(metric)
		a.SetCountryContext(y.Country, y.Year)
		return a, nil
	}
	return a.Clone(), nil
}

// Metrics returns the recorded metrics, sorted.
func (y *YearlyAccumulator) Metrics() []string {
	return finsim.SortedKeys(y.attributions)
}

// Consumed reports whether the accumulator was already folded.
func (y *YearlyAccumulator) Consumed() bool { return y.consumed }

// take hands the attributions over and consumes the accumulator.
func (y *YearlyAccumulator) take() (map[string]*Attribution, error) {
	if y.consumed {
		return nil, ErrAccumulatorConsumed
	}
	y.consumed = true
	attrs := y.attributions
	y.attributions = nil
	return attrs, nil
}
