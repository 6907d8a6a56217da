package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"miadmin/internal/ledger"
	"miadmin/internal/services"
)

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a backup of the whole ledger" }
func (*exportCmd) Usage() string {
	return `miadmin export [-o <file> | -o -]

  Writes the ledger as JSON. Without -o the file is named after today's
  date; -o - writes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "Output file, - for stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		if c.out == "-" {
			return e.Export(stdout)
		}
		name := c.out
		if name == "" {
			name = ledger.ExportFileName(now().In(location))
		}
		file, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := e.Export(file); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, name)
		return nil
	})
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger with a backup" }
func (*importCmd) Usage() string {
	return `miadmin import <file>

  Replaces the whole ledger with a backup written by export. A document
  that is not a valid backup leaves the ledger untouched.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "import needs exactly one file")
		return subcommands.ExitUsageError
	}
	return withEngine(ctx, func(e *services.Engine) error {
		file, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer file.Close()
		return e.Import(ctx, file)
	})
}

type resetCmd struct {
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "erase the whole ledger" }
func (*resetCmd) Usage() string {
	return `miadmin reset -yes

  Deletes every account, movement, debt, goal, subscription and setting.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the reset.")
}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(stderr, "Refusing to reset without -yes")
		return subcommands.ExitUsageError
	}
	return withEngine(ctx, func(e *services.Engine) error {
		return e.Reset(ctx)
	})
}

type pinCmd struct {
	pin     string
	confirm string
}

func (*pinCmd) Name() string     { return "pin" }
func (*pinCmd) Synopsis() string { return "set or check the access PIN" }
func (*pinCmd) Usage() string {
	return `miadmin pin [set -pin <pin> -confirm <pin> | check -pin <pin>]

  The PIN guards the HTTP API. Without an action, reports whether one is set.
`
}

func (c *pinCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pin, "pin", "", "PIN, 4 digits.")
	f.StringVar(&c.confirm, "confirm", "", "The same PIN again.")
}

func (c *pinCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "status") {
		case "status":
			if e.HasPIN() {
				fmt.Fprintln(stdout, "PIN is set.")
			} else {
				fmt.Fprintln(stdout, "No PIN set.")
			}
			return nil
		case "set":
			return e.SetPIN(ctx, c.pin, c.confirm)
		case "check":
			return e.VerifyPIN(c.pin)
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}

type themeCmd struct{}

func (*themeCmd) Name() string     { return "theme" }
func (*themeCmd) Synopsis() string { return "show or change the UI theme" }
func (*themeCmd) Usage() string {
	return `miadmin theme [light | dark]
`
}

func (*themeCmd) SetFlags(*flag.FlagSet) {}

func (*themeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		if f.NArg() == 0 {
			fmt.Fprintln(stdout, e.Snapshot().Theme)
			return nil
		}
		return e.SetTheme(ctx, f.Arg(0))
	})
}
