package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/ledger"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is wrapped by every scenario validation error.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario describes a projection: who, where, since when, and which
// investments.
type Scenario struct {
	StartYear int    `yaml:"startYear"`
	Years     int    `yaml:"years"`
	StartAge  int    `yaml:"startAge"`
	Country   string `yaml:"country"`

	// Inflation is the scenario inflation, a decimal.
	Inflation          *float64           `yaml:"inflation,omitempty"`
	InflationOverrides map[string]float64 `yaml:"inflationOverrides,omitempty"`
	// CPI is the yearly consumer price inflation by country, in percent.
	CPI map[string]map[int]float64 `yaml:"cpi,omitempty"`

	// Growth and Volatility are per investment key decimals.
	Growth     map[string]float64 `yaml:"growth,omitempty"`
	Volatility map[string]float64 `yaml:"volatility,omitempty"`
	// Params are the namespaced parameters (GlobalAssetGrowth_*, MixConfig_*).
	Params map[string]string `yaml:"params,omitempty"`

	Investments []Investment `yaml:"investments"`
	Withdrawal  *Withdrawal  `yaml:"withdrawal,omitempty"`

	// Rates are the exchange rates of the projection.
	Rates []Rate `yaml:"rates,omitempty"`
}

// Rate is the value of one unit of From in To, from Year onward.
type Rate struct {
	From string  `yaml:"from"`
	To   string  `yaml:"to"`
	Year int     `yaml:"year"`
	Rate float64 `yaml:"rate"`
}

// Investment is the initial amount and yearly contribution put into an
// investment type.
type Investment struct {
	Key          string   `yaml:"key"`
	Amount       float64  `yaml:"amount"`
	Contribution float64  `yaml:"contribution,omitempty"`
	Currency     string   `yaml:"currency,omitempty"`
	Country      string   `yaml:"country,omitempty"`
	Growth       *float64 `yaml:"growth,omitempty"`
	Volatility   *float64 `yaml:"volatility,omitempty"`
}

// Withdrawal sells a share of the investments every year from an age onward.
type Withdrawal struct {
	Age  int     `yaml:"age"`
	Rate float64 `yaml:"rate"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.Country = strings.ToLower(s.Country)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario is complete.
func (s *Scenario) Validate() error {
	switch {
	case s.StartYear <= 0:
		return fmt.Errorf("%w: startYear is required", ErrInvalidScenario)
	case s.Years <= 0:
		return fmt.Errorf("%w: years must be positive, got %d", ErrInvalidScenario, s.Years)
	case s.Country == "":
		return fmt.Errorf("%w: country is required", ErrInvalidScenario)
	}
	for i, inv := range s.Investments {
		if inv.Key == "" {
			return fmt.Errorf("%w: investment #%d has no key", ErrInvalidScenario, i)
		}
		if inv.Amount < 0 || inv.Contribution < 0 {
			return fmt.Errorf("%w: investment %q has a negative amount", ErrInvalidScenario, inv.Key)
		}
	}
	if w := s.Withdrawal; w != nil && (w.Rate < 0 || w.Rate > 1) {
		return fmt.Errorf("%w: withdrawal rate %v is not in [0, 1]", ErrInvalidScenario, w.Rate)
	}
	for _, r := range s.Rates {
		if r.From == "" || r.To == "" || r.Rate <= 0 {
			return fmt.Errorf("%w: invalid rate %s/%s %v", ErrInvalidScenario, r.From, r.To, r.Rate)
		}
	}
	return nil
}

// FX returns the exchange rate table of the scenario.
func (s *Scenario) FX() *fx.Table {
	t := fx.NewTable()
	for _, r := range s.Rates {
		year := r.Year
		if year == 0 {
			year = s.StartYear
		}
		t.Set(strings.ToUpper(r.From), strings.ToUpper(r.To), year, r.Rate)
	}
	return t
}

// LedgerParams returns the parameters the ledger factory reads.
func (s *Scenario) LedgerParams() ledger.Params {
	return ledger.Params{
		GrowthByKey: s.Growth,
		StdevByKey:  s.Volatility,
		Values:      s.Params,
	}
}
