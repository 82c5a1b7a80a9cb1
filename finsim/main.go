// Command finsim projects personal finance scenarios across countries.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/etnz/finsim/cmd"
	"github.com/etnz/finsim/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion().Complete("finsim")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	cmd.Register(subcommands.DefaultCommander)

	flag.Parse()

	if name := flag.Arg(0); name != "" && !registered(name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(subcommands.Execute(context.Background())))
}

// registered reports whether name is a builtin subcommand.
func registered(name string) bool {
	found := false
	subcommands.DefaultCommander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		if c.Name() == name {
			found = true
		}
	})
	return found
}

// completion describes the command line for shell completion.
func completion() *complete.Command {
	topics, _ := docs.GetAllTopics()
	global := map[string]complete.Predictor{
		"rules-dir": predict.Dirs("*"),
		"v":         predict.Nothing,
	}
	return &complete.Command{
		Flags: global,
		Sub: map[string]*complete.Command{
			"project": {
				Flags: map[string]complete.Predictor{
					"runs": predict.Nothing,
					"seed": predict.Nothing,
					"year": predict.Nothing,
					"lots": predict.Nothing,
				},
				Args: predict.Files("*.yaml"),
			},
			"rules": {
				Flags: map[string]complete.Predictor{
					"scenario": predict.Files("*.yaml"),
				},
			},
			"topic": {
				Flags: map[string]complete.Predictor{"list": predict.Nothing},
				Args:  predict.Set(append(topics, "*")),
			},
			"help": {},
		},
	}
}
