package ledger

import (
	"strings"

	"github.com/etnz/finsim/rules"
	"github.com/rs/zerolog"
)

// NewLedgers builds one empty ledger per investment type of rs, in ruleset order.
func NewLedgers(rs *rules.Ruleset, p Params, logger zerolog.Logger) []*Ledger {
	if rs == nil {
		return nil
	}
	country := strings.ToLower(rs.CountryCode())
	var ledgers []*Ledger
	for _, t := range rs.ResolvedInvestmentTypes() {
		growth, stdev := resolveGrowth(p, t, country)
		l := FromType(t, rs, growth, stdev, logger)
		mixKey := t.BaseKey
		if mixKey == "" {
			mixKey = baseKey(t.Key, country)
		}
		l.Mix = ResolveMix(p, country, mixKey)
		logger.Debug().Str("key", l.Key).Float64("growth", growth).Float64("stdev", stdev).
			Stringer("treatment", l.Treatment).Bool("mix", l.Mix != nil).Msg("ledger created")
		ledgers = append(ledgers, l)
	}
	return ledgers
}

// baseKey strips the "_<country>" suffix of a per-country key.
func baseKey(key, country string) string {
	return strings.TrimSuffix(key, "_"+country)
}

// resolveGrowth returns the growth and volatility of an investment type.
//
// Wrapper types prefer the asset level percentages of their base over the
// wrapper level decimals. Both kinds fall back to the wrapper level value of
// the key without its country suffix. Growth and volatility resolve
// independently, and default to 0.
func resolveGrowth(p Params, t rules.InvestmentType, country string) (growth, stdev float64) {
	var growthSet, stdevSet bool
	if t.IsWrapper() && t.BaseKey != "" {
		if v, ok := p.number("GlobalAssetGrowth_" + t.BaseKey); ok {
			growth, growthSet = v/100, true
		}
		if v, ok := p.number("GlobalAssetVolatility_" + t.BaseKey); ok {
			stdev, stdevSet = v/100, true
		}
	}
	keys := []string{t.Key}
	if b := baseKey(t.Key, country); b != t.Key {
		keys = append(keys, b)
	}
	if !growthSet {
		growth = lookup(p.GrowthByKey, keys)
	}
	if !stdevSet {
		stdev = lookup(p.StdevByKey, keys)
	}
	return growth, stdev
}

func lookup(m map[string]float64, keys []string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return 0
}
