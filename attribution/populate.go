package attribution

import (
	"fmt"
	"math"
	"strings"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/ledger"
	"github.com/etnz/finsim/revenue"
	"github.com/rs/zerolog"
)

// Asset is an investment ledger's key and its statistics for the year.
type Asset struct {
	Key   string
	Stats ledger.Stats
}

// Assets collects the statistics of ledgers, in residence currency.
func Assets(ctx ledger.Context, ledgers []*ledger.Ledger) ([]Asset, error) {
	assets := make([]Asset, 0, len(ledgers))
	for _, l := range ledgers {
		s, err := l.Stats(ctx)
		if err != nil {
			return nil, err
		}
		assets = append(assets, Asset{Key: l.Key, Stats: s})
	}
	return assets, nil
}

type record struct {
	source string
	amount float64
}

// CapitalMetric returns the attribution metric of an investment's capital.
func CapitalMetric(key string) string {
	switch key {
	case "indexFunds":
		return "indexfundscapital"
	case "shares":
		return "sharescapital"
	default:
		return strings.ToLower(key) + "capital"
	}
}

// Populate records the activity of the assets into acc, then folds every
// metric of acc onto row.Attributions and the tax totals of rev onto
// row.TaxByKey.
//
// Metric keys qualified by a country, like "incomeSalaries:us", are folded
// onto their base metric with the source displayed as "Salary (US)". Keys
// starting with "tax:" are kept whole. Amounts add to what the row already
// holds.
//
// A metric whose breakdown cannot be folded is logged and skipped. acc is
// consumed, even on error.
func Populate(row *finsim.DataRow, assets []Asset, acc *YearlyAccumulator, rev revenue.Revenue, logger zerolog.Logger) error {
	row.EnsureMaps()
	log := logger.With().Str("component", "attribution").Int("year", row.Year).Logger()

	for _, a := range assets {
		metric := CapitalMetric(a.Key)
		net := a.Stats.YearlyBought.Sub(a.Stats.YearlySold).InexactFloat64()
		records := []record{
			{"Principal", a.Stats.Principal.InexactFloat64()},
			{"P/L", a.Stats.TotalGain.InexactFloat64()},
		}
		switch {
		case net > 0:
			records = append(records, record{"Bought", net})
		case net < 0:
			records = append(records, record{"Sold", -net})
		}
		for _, r := range records {
			if err := acc.Record(metric, r.source, r.amount); err != nil {
				return err
			}
		}
	}

	attrs, err := acc.take()
	if err != nil {
		return err
	}
	for _, metric := range finsim.SortedKeys(attrs) {
		if err := fold(row, metric, attrs[metric]); err != nil {
			log.Error().Err(err).Str("metric", metric).Msg("cannot fold attribution")
		}
	}

	if rev != nil {
		for id, total := range rev.TaxTotals() {
			row.TaxByKey[id] += total
		}
	}
	return nil
}

// fold adds the breakdown of one metric to the row, or nothing at all.
func fold(row *finsim.DataRow, metric string, a *Attribution) error {
	base, country := splitMetric(metric)
	breakdown := a.Breakdown()
	for source, v := range breakdown {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("source %q: invalid amount %v", source, v)
		}
	}
	if _, ok := row.Attributions[base]; !ok {
		row.Attributions[base] = make(map[string]float64)
	}
	for source, v := range breakdown {
		if country != "" {
			source = fmt.Sprintf("%s (%s)", source, strings.ToUpper(country))
		}
		row.AddAttribution(base, source, v)
	}
	return nil
}

// splitMetric splits a country qualified metric key.
func splitMetric(metric string) (base, country string) {
	if strings.HasPrefix(metric, "tax:") {
		return metric, ""
	}
	base, country, ok := strings.Cut(metric, ":")
	if !ok || base == "" {
		return metric, ""
	}
	country, _, _ = strings.Cut(country, ":")
	return base, country
}
