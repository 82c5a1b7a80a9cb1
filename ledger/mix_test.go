package ledger

import (
	"math"
	"testing"
)

func TestResolveMix(t *testing.T) {
	p := Params{Values: map[string]string{
		"MixConfig_ie_globalEquity_type":           "fixed",
		"MixConfig_ie_globalEquity_asset1":         "equity",
		"MixConfig_ie_globalEquity_asset2":         "bonds",
		"MixConfig_ie_globalEquity_startAsset1Pct": "60",
		"GlobalMixConfig_globalEquity_type":        "glidePath",
		"GlobalMixConfig_globalEquity_startAge":    "30",
		"GlobalMixConfig_bonds_type":               "random",
		"GlobalAssetGrowth_equity":                 "7",
		"GlobalAssetVolatility_equity":             "15",
		"GlobalAssetGrowth_bonds":                  "2",
	}}

	ie := ResolveMix(p, "IE", "globalEquity")
	if ie == nil {
		t.Fatalf("ResolveMix(ie) = nil")
	}
	if ie.Type != FixedMix {
		t.Errorf("Type = %v, want fixed", ie.Type)
	}
	if ie.StartAsset2Pct != 40 {
		t.Errorf("StartAsset2Pct = %v, want 40", ie.StartAsset2Pct)
	}
	if ie.Asset1Growth != 0.07 || ie.Asset1Volatility != 0.15 || ie.Asset2Growth != 0.02 {
		t.Errorf("asset params = %v %v %v, want 0.07 0.15 0.02", ie.Asset1Growth, ie.Asset1Volatility, ie.Asset2Growth)
	}

	us := ResolveMix(p, "us", "globalEquity")
	if us == nil || us.Type != GlidePath || us.StartAge != 30 {
		t.Errorf("ResolveMix(us) = %+v, want the global glide path", us)
	}

	if m := ResolveMix(p, "ie", "bonds"); m != nil {
		t.Errorf("ResolveMix(bonds) = %+v, want nil for an unknown type", m)
	}
	if m := ResolveMix(p, "ie", "shares"); m != nil {
		t.Errorf("ResolveMix(shares) = %+v, want nil", m)
	}
}

func TestMixConfig_CurrentMix(t *testing.T) {
	glide := &MixConfig{
		Type: GlidePath, StartAge: 30, TargetAge: 60,
		StartAsset1Pct: 90, StartAsset2Pct: 10, EndAsset1Pct: 30, EndAsset2Pct: 70,
		Asset1Growth: 0.08, Asset2Growth: 0.02,
	}
	fixed := &MixConfig{Type: FixedMix, StartAge: 30, TargetAge: 60, StartAsset1Pct: 80, StartAsset2Pct: 20, EndAsset1Pct: 0}

	testCases := []struct {
		name         string
		mix          *MixConfig
		age          int
		want1, want2 float64
		wantGrowth   float64
	}{
		{name: "before start", mix: glide, age: 20, want1: 90, want2: 10, wantGrowth: 0.074},
		{name: "at start", mix: glide, age: 30, want1: 90, want2: 10, wantGrowth: 0.074},
		{name: "halfway", mix: glide, age: 45, want1: 60, want2: 40, wantGrowth: 0.056},
		{name: "at target", mix: glide, age: 60, want1: 30, want2: 70, wantGrowth: 0.038},
		{name: "after target", mix: glide, age: 80, want1: 30, want2: 70, wantGrowth: 0.038},
		{name: "fixed", mix: fixed, age: 70, want1: 80, want2: 20},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got1, got2 := tc.mix.CurrentMix(tc.age)
			if got1 != tc.want1 || got2 != tc.want2 {
				t.Errorf("CurrentMix(%d) = %v, %v, want %v, %v", tc.age, got1, got2, tc.want1, tc.want2)
			}
			if got := tc.mix.BlendedGrowth(tc.age); math.Abs(got-tc.wantGrowth) > 1e-12 {
				t.Errorf("BlendedGrowth(%d) = %v, want %v", tc.age, got, tc.wantGrowth)
			}
		})
	}
}
