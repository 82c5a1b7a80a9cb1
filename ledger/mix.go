package ledger

import (
	"strconv"
	"strings"
)

// Params are the user parameters the factory reads growth, volatility and
// mixes from.
//
// GrowthByKey and StdevByKey are wrapper level rates, as decimals (0.07).
// Values holds the namespaced parameters, as entered: GlobalAssetGrowth_<base>
// and GlobalAssetVolatility_<base> are percentages (7), MixConfig_<cc>_<base>_<field>
// and GlobalMixConfig_<base>_<field> describe asset mixes.
type Params struct {
	GrowthByKey map[string]float64
	StdevByKey  map[string]float64
	Values      map[string]string
}

func (p Params) str(name string) (string, bool) {
	v, ok := p.Values[name]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p Params) number(name string) (float64, bool) {
	s, ok := p.str(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MixType selects how a mix evolves with age.
type MixType string

const (
	FixedMix  MixType = "fixed"
	GlidePath MixType = "glidePath"
)

// MixConfig blends two assets, with percentages that can glide with age.
type MixConfig struct {
	Type           MixType
	Asset1, Asset2 string
	StartAge       float64
	TargetAge      float64
	StartAsset1Pct float64
	StartAsset2Pct float64
	EndAsset1Pct   float64
	EndAsset2Pct   float64

	// growth and volatility of each asset, as decimals.
	Asset1Growth, Asset1Volatility float64
	Asset2Growth, Asset2Volatility float64
}

// ResolveMix reads the mix of baseKey in country, from the country namespace
// first then the global one. It returns nil when no valid mix is configured.
func ResolveMix(p Params, country, baseKey string) *MixConfig {
	prefix := "MixConfig_" + strings.ToLower(country) + "_" + baseKey + "_"
	if _, ok := p.str(prefix + "type"); !ok {
		prefix = "GlobalMixConfig_" + baseKey + "_"
	}
	kind, _ := p.str(prefix + "type")

	var m MixConfig
	switch kind {
	case "fixed":
		m.Type = FixedMix
	case "glide", "glidePath":
		m.Type = GlidePath
	default:
		return nil
	}
	m.Asset1, _ = p.str(prefix + "asset1")
	m.Asset2, _ = p.str(prefix + "asset2")
	m.StartAge, _ = p.number(prefix + "startAge")
	m.TargetAge, _ = p.number(prefix + "targetAge")
	m.StartAsset1Pct, _ = p.number(prefix + "startAsset1Pct")
	m.EndAsset1Pct, _ = p.number(prefix + "endAsset1Pct")
	var ok bool
	if m.StartAsset2Pct, ok = p.number(prefix + "startAsset2Pct"); !ok {
		m.StartAsset2Pct = 100 - m.StartAsset1Pct
	}
	if m.EndAsset2Pct, ok = p.number(prefix + "endAsset2Pct"); !ok {
		m.EndAsset2Pct = 100 - m.EndAsset1Pct
	}

	m.Asset1Growth, m.Asset1Volatility = assetParams(p, m.Asset1)
	m.Asset2Growth, m.Asset2Volatility = assetParams(p, m.Asset2)
	return &m
}

// assetParams returns the asset level growth and volatility, as decimals.
func assetParams(p Params, asset string) (growth, volatility float64) {
	growth, _ = p.number("GlobalAssetGrowth_" + asset)
	volatility, _ = p.number("GlobalAssetVolatility_" + asset)
	return growth / 100, volatility / 100
}

// CurrentMix returns the percentages of each asset at age.
func (m *MixConfig) CurrentMix(age int) (asset1Pct, asset2Pct float64) {
	a := float64(age)
	switch {
	case m.Type == FixedMix, a < m.StartAge:
		return m.StartAsset1Pct, m.StartAsset2Pct
	case a >= m.TargetAge:
		return m.EndAsset1Pct, m.EndAsset2Pct
	}
	progress := (a - m.StartAge) / (m.TargetAge - m.StartAge)
	asset1Pct = m.StartAsset1Pct + (m.EndAsset1Pct-m.StartAsset1Pct)*progress
	asset2Pct = m.StartAsset2Pct + (m.EndAsset2Pct-m.StartAsset2Pct)*progress
	return asset1Pct, asset2Pct
}

// BlendedGrowth returns the mean growth of the mix at age.
func (m *MixConfig) BlendedGrowth(age int) float64 {
	p1, p2 := m.CurrentMix(age)
	return (p1*m.Asset1Growth + p2*m.Asset2Growth) / 100
}

// BlendedVolatility returns the volatility of the mix at age, assuming both
// assets move together.
func (m *MixConfig) BlendedVolatility(age int) float64 {
	p1, p2 := m.CurrentMix(age)
	return (p1*m.Asset1Volatility + p2*m.Asset2Volatility) / 100
}
