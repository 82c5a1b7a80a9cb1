// Package cmd implements the finsim command line.
package cmd

import (
	"flag"
	"io"
	"time"

	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/rules"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&rulesCmd{}, "simulation")
	c.Register(&projectCmd{}, "simulation")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var rulesDir = flag.String("rules-dir", "", "Path to the tax rules folder (default $"+config.EnvRulesDir+")")
var Verbose = flag.Bool("v", false, "Log debug messages")

// loadConfig reads the configuration and applies the global flags on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *rulesDir != "" {
		cfg.RulesDir = *rulesDir
	}
	if *Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// NewLogger returns the command logger writing to w.
func NewLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// loadRules reads the tax rules folder of the configuration.
func loadRules(cfg *config.Config) (*rules.Registry, error) {
	return rules.Load(cfg.RulesDir)
}
