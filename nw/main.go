// Command nw tracks accounts and net worth, and talks with a financial assistant.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/networth/cmd"
	"github.com/google/subcommands"
)

func main() {
	flag.BoolVar(&cmd.Raw, "raw", false, "print markdown without terminal rendering")

	// handles COMP_LINE when called by the shell, and COMP_INSTALL=1.
	cmd.Completion(flag.CommandLine).Complete("nw")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
