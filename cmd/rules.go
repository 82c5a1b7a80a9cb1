package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/ledger"
	"github.com/etnz/finsim/renderer"
	"github.com/google/subcommands"
)

type rulesCmd struct {
	scenario string
}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "list the investment types of tax rulesets" }
func (*rulesCmd) Usage() string {
	return `finsim rules [-scenario <file>] [<country>...]

List the investment types of the given countries, or of every loaded country,
with the growth and volatility their ledgers get.
`
}

func (c *rulesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.scenario, "scenario", "", "scenario whose growth parameters apply")
}

func (c *rulesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	log := NewLogger(cfg, os.Stderr)

	reg, err := loadRules(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		return subcommands.ExitFailure
	}

	var params ledger.Params
	if c.scenario != "" {
		s, err := config.LoadScenario(c.scenario)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
			return subcommands.ExitFailure
		}
		params = s.LedgerParams()
	}

	countries := f.Args()
	if len(countries) == 0 {
		countries = reg.Countries()
	}

	var b strings.Builder
	for _, country := range countries {
		rs, err := reg.MustRuleset(country)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		b.WriteString(renderer.InvestmentTypesMarkdown(rs, ledger.NewLedgers(rs, params, log)))
		b.WriteString("\n")
	}
	printMarkdown(os.Stdout, b.String(), cfg.Pretty)
	return subcommands.ExitSuccess
}
