package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoRuleset is returned when no ruleset is known for a country.
var ErrNoRuleset = errors.New("no ruleset for country")

const (
	filePrefix = "tax-rules-"
	globalName = "global"
)

// Registry holds the rulesets of every country of a simulation, indexed by
// lower case ISO-2 country code.
type Registry struct {
	rulesets map[string]*Ruleset
	bases    []InvestmentType
}

// NewRegistry returns an empty registry using bases for baseRef resolution.
func NewRegistry(bases ...InvestmentType) *Registry {
	return &Registry{rulesets: make(map[string]*Ruleset), bases: bases}
}

// Add registers a ruleset under its own country code.
func (r *Registry) Add(rs *Ruleset) {
	rs.WithBaseTypes(r.bases)
	r.rulesets[strings.ToLower(rs.CountryCode())] = rs
}

// Ruleset returns the ruleset of a country. A nil registry knows no country.
func (r *Registry) Ruleset(country string) (*Ruleset, bool) {
	if r == nil {
		return nil, false
	}
	rs, ok := r.rulesets[strings.ToLower(country)]
	return rs, ok
}

// MustRuleset is like Ruleset but returns ErrNoRuleset when the country is unknown.
func (r *Registry) MustRuleset(country string) (*Ruleset, error) {
	rs, ok := r.Ruleset(country)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoRuleset, country)
	}
	return rs, nil
}

// CurrencyOf returns the currency used in a country.
func (r *Registry) CurrencyOf(country string) (string, bool) {
	rs, ok := r.Ruleset(country)
	if !ok || rs.CurrencyCode() == "" {
		return "", false
	}
	return rs.CurrencyCode(), true
}

// Countries returns the registered country codes, sorted.
func (r *Registry) Countries() []string {
	var cc []string
	for c := range r.rulesets {
		cc = append(cc, c)
	}
	sort.Strings(cc)
	return cc
}

// Load reads every "tax-rules-<cc>.json" file in dir. The optional
// "tax-rules-global.json" file provides the investment base types.
func Load(dir string) (*Registry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no ruleset in %q: %w", dir, fs.ErrNotExist)
	}

	var countries []*Ruleset
	var bases []InvestmentType
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		rs, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), filePrefix), ".json")
		if name == globalName {
			bases = append(bases, rs.BaseTypes()...)
			continue
		}
		if rs.f.Country == "" {
			rs.f.Country = name
		}
		countries = append(countries, rs)
	}

	r := NewRegistry(bases...)
	for _, rs := range countries {
		r.Add(rs)
	}
	return r, nil
}
