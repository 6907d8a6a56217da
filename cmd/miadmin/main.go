package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

// Commands lists every subcommand of miadmin.
var Commands = []subcommands.Command{
	&accountsCmd{},
	&movementsCmd{},
	&debtsCmd{},
	&savingsCmd{},
	&subscriptionsCmd{},
	&budgetsCmd{},
	&reconcileCmd{},
	&summaryCmd{},
	&upcomingCmd{},
	&totalsCmd{},
	&auditCmd{},
	&exportCmd{},
	&importCmd{},
	&resetCmd{},
	&pinCmd{},
	&themeCmd{},
}

func main() {
	commander := newCommander(flag.CommandLine, path.Base(os.Args[0]))
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func newCommander(fs *flag.FlagSet, name string) *subcommands.Commander {
	commander := subcommands.NewCommander(fs, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range Commands {
		commander.Register(c, "")
	}
	return commander
}
