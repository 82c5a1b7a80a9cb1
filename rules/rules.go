// Package rules reads the per-country tax rulesets.
//
// A ruleset is a JSON document describing one country: its currency, its
// capital gains rate, its inflation and the investment types available to a
// resident. Investment types can be "wrappers" around a shared base type
// declared in the global ruleset, referenced with baseRef.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// ErrUnknownRef is returned when a rateRef cannot be evaluated against the ruleset.
var ErrUnknownRef = errors.New("unknown rate reference")

// capitalGainsRateRef is the reference mapped to CapitalGainsRate.
const capitalGainsRateRef = "capitalGainsTax.rate"

// Scope selects how an investment's stock value is deflated.
type Scope string

const (
	// Local assets are deflated with the residence country inflation.
	Local Scope = "local"
	// Global assets are deflated with their own asset country inflation.
	Global Scope = "global"
)

// ExitTax holds the exit tax block of a taxation definition.
type ExitTax struct {
	Rate                       *float64 `json:"rate,omitempty"`
	DeemedDisposalYears        *int     `json:"deemedDisposalYears,omitempty"`
	AllowLossOffset            *bool    `json:"allowLossOffset,omitempty"`
	EligibleForAnnualExemption *bool    `json:"eligibleForAnnualExemption,omitempty"`
}

// CapitalGains holds the capital gains block of a taxation definition.
type CapitalGains struct {
	Rate                       *float64 `json:"rate,omitempty"`
	RateRef                    string   `json:"rateRef,omitempty"`
	AllowLossOffset            *bool    `json:"allowLossOffset,omitempty"`
	EligibleForAnnualExemption *bool    `json:"eligibleForAnnualExemption,omitempty"`
}

// Taxation describes how gains on an investment type are taxed.
type Taxation struct {
	ExitTax      *ExitTax      `json:"exitTax,omitempty"`
	CapitalGains *CapitalGains `json:"capitalGains,omitempty"`
}

// InvestmentType is one entry of a ruleset investmentTypes list, or of the
// global investmentBaseTypes list.
type InvestmentType struct {
	Key            string    `json:"key,omitempty"`
	BaseKey        string    `json:"baseKey,omitempty"`
	BaseRef        string    `json:"baseRef,omitempty"`
	Label          string    `json:"label,omitempty"`
	BaseCurrency   string    `json:"baseCurrency,omitempty"`
	AssetCountry   string    `json:"assetCountry,omitempty"`
	ResidenceScope Scope     `json:"residenceScope,omitempty"`
	Taxation       *Taxation `json:"taxation,omitempty"`
}

// IsWrapper reports whether the type inherits from a shared base type.
func (t InvestmentType) IsWrapper() bool { return t.BaseRef != "" || t.BaseKey != "" }

// inherit fills every field t leaves empty from base.
func (t InvestmentType) inherit(base InvestmentType) InvestmentType {
	if t.Label == "" {
		t.Label = base.Label
	}
	if t.BaseCurrency == "" {
		t.BaseCurrency = base.BaseCurrency
	}
	if t.AssetCountry == "" {
		t.AssetCountry = base.AssetCountry
	}
	if t.ResidenceScope == "" {
		t.ResidenceScope = base.ResidenceScope
	}
	if t.Taxation == nil {
		t.Taxation = base.Taxation
	}
	t.BaseKey = base.BaseKey
	return t
}

type file struct {
	Country string `json:"country"`
	Locale  struct {
		CurrencyCode string `json:"currencyCode"`
	} `json:"locale"`
	CapitalGainsTax struct {
		Rate            *float64 `json:"rate"`
		AnnualExemption *float64 `json:"annualExemption"`
	} `json:"capitalGainsTax"`
	InflationRate       *float64         `json:"inflationRate"`
	InvestmentTypes     []InvestmentType `json:"investmentTypes"`
	InvestmentBaseTypes []InvestmentType `json:"investmentBaseTypes"`
}

// Ruleset is a parsed country ruleset.
type Ruleset struct {
	raw   any // decoded JSON, for rate references
	f     file
	bases map[string]InvestmentType // by baseKey
}

// Parse decodes a ruleset from its JSON representation.
func Parse(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := json.Unmarshal(data, &rs.f); err != nil {
		return nil, fmt.Errorf("parsing ruleset: %w", err)
	}
	if err := json.Unmarshal(data, &rs.raw); err != nil {
		return nil, fmt.Errorf("parsing ruleset: %w", err)
	}
	rs.bases = make(map[string]InvestmentType)
	for i, t := range rs.f.InvestmentTypes {
		if t.Key == "" {
			rs.f.InvestmentTypes[i].Key = fmt.Sprintf("asset%d", i)
		}
	}
	return &rs, nil
}

// WithBaseTypes makes base types available for baseRef resolution.
// Base types already declared in the ruleset itself take precedence.
func (rs *Ruleset) WithBaseTypes(bases []InvestmentType) *Ruleset {
	for _, b := range bases {
		if _, ok := rs.bases[b.BaseKey]; !ok && b.BaseKey != "" {
			rs.bases[b.BaseKey] = b
		}
	}
	return rs
}

// BaseTypes returns the investment base types declared by this ruleset.
func (rs *Ruleset) BaseTypes() []InvestmentType { return rs.f.InvestmentBaseTypes }

// CountryCode returns the ISO-2 country code, upper case. Defaults to "IE".
func (rs *Ruleset) CountryCode() string {
	if rs.f.Country == "" {
		return "IE"
	}
	return strings.ToUpper(rs.f.Country)
}

// CurrencyCode returns the ISO currency code used in this country, or "" if undeclared.
func (rs *Ruleset) CurrencyCode() string { return strings.ToUpper(rs.f.Locale.CurrencyCode) }

// CapitalGainsRate returns the capital gains tax rate, 0 if undeclared.
func (rs *Ruleset) CapitalGainsRate() float64 {
	if rs.f.CapitalGainsTax.Rate == nil {
		return 0
	}
	return *rs.f.CapitalGainsTax.Rate
}

// CapitalGainsAnnualExemption returns the yearly exempted gains amount, 0 if undeclared.
func (rs *Ruleset) CapitalGainsAnnualExemption() float64 {
	if rs.f.CapitalGainsTax.AnnualExemption == nil {
		return 0
	}
	return *rs.f.CapitalGainsTax.AnnualExemption
}

// InflationRate returns the country's inflation rate as a decimal, if declared.
func (rs *Ruleset) InflationRate() (float64, bool) {
	if rs.f.InflationRate == nil {
		return 0, false
	}
	return *rs.f.InflationRate, true
}

// InvestmentTypes returns the investment types as declared, without base inheritance.
func (rs *Ruleset) InvestmentTypes() []InvestmentType { return rs.f.InvestmentTypes }

// ResolvedInvestmentTypes returns the investment types, in ruleset order,
// with wrapper types completed by their base type.
func (rs *Ruleset) ResolvedInvestmentTypes() []InvestmentType {
	types := make([]InvestmentType, 0, len(rs.f.InvestmentTypes))
	for _, t := range rs.f.InvestmentTypes {
		types = append(types, rs.resolve(t))
	}
	return types
}

func (rs *Ruleset) resolve(t InvestmentType) InvestmentType {
	if t.BaseRef == "" {
		return t
	}
	base, ok := rs.bases[t.BaseRef]
	if !ok {
		// unknown bases still identify the wrapper's underlying asset.
		t.BaseKey = t.BaseRef
		return t
	}
	return t.inherit(base)
}

// FindInvestmentTypeByKey returns the resolved investment type with that key.
func (rs *Ruleset) FindInvestmentTypeByKey(key string) (InvestmentType, bool) {
	for _, t := range rs.f.InvestmentTypes {
		if t.Key == key {
			return rs.resolve(t), true
		}
	}
	return InvestmentType{}, false
}

// Rate evaluates a dotted rate reference such as "capitalGainsTax.rate"
// against the raw ruleset.
func (rs *Ruleset) Rate(ref string) (float64, error) {
	if ref == capitalGainsRateRef {
		return rs.CapitalGainsRate(), nil
	}
	path := ref
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}
	jval, err := jsonpath.Get(path, rs.raw)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrUnknownRef, ref, err)
	}
	// jsonpath may return a list of one answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("%w %q: not a number %v", ErrUnknownRef, ref, jval)
	}
	return val, nil
}
