package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/projection"
	"github.com/etnz/finsim/renderer"
	"github.com/google/subcommands"
)

type projectCmd struct {
	runs int
	seed uint64
	year int
	lots bool
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "project a scenario year by year" }
func (*projectCmd) Usage() string {
	return `finsim project [-runs <n>] [-seed <n>] [-year <year>] [-lots] <scenario.yaml>

Project a scenario. A single run prints the yearly rows (or only the row of
-year). Several runs print the worth quantiles of every year.
`
}

func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.runs, "runs", 0, "number of runs (default $"+config.EnvRuns+")")
	f.Uint64Var(&c.seed, "seed", 0, "seed of the first run (default $"+config.EnvSeed+")")
	f.IntVar(&c.year, "year", 0, "only print the row of this year")
	f.BoolVar(&c.lots, "lots", false, "print the lots left at the end of a single run")
}

func (c *projectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a single scenario file is required")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.runs > 0 {
		cfg.Runs = c.runs
	}
	if c.seed > 0 {
		cfg.Seed = c.seed
	}
	log := NewLogger(cfg, os.Stderr)

	s, err := config.LoadScenario(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		return subcommands.ExitFailure
	}
	reg, err := loadRules(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		return subcommands.ExitFailure
	}
	rs, err := reg.MustRuleset(s.Country)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	currency := rs.CurrencyCode()

	p := &projection.Projector{Scenario: s, Rules: reg, Log: log}
	runs, err := p.RunAll(ctx, cfg.Seed, cfg.Runs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error projecting %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	if len(runs) > 1 {
		nominal := projection.Summarize(runs, projection.Worth)
		pv := projection.Summarize(runs, projection.WorthPV)
		b.WriteString(renderer.ProjectionMarkdown(f.Arg(0), len(runs), nominal, pv, currency))
		printMarkdown(os.Stdout, b.String(), cfg.Pretty)
		return subcommands.ExitSuccess
	}

	found := false
	for _, row := range runs[0].Rows {
		if c.year != 0 && row.Year != c.year {
			continue
		}
		found = true
		b.WriteString(renderer.RowMarkdown(row, currency))
		b.WriteString("\n")
	}
	if !found {
		fmt.Fprintf(os.Stderr, "Error: year %d is not projected\n", c.year)
		return subcommands.ExitUsageError
	}
	if c.lots {
		b.WriteString(renderer.LotsMarkdown(runs[0].Ledgers))
	}
	printMarkdown(os.Stdout, b.String(), cfg.Pretty)
	return subcommands.ExitSuccess
}
