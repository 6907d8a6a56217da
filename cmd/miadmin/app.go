package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"miadmin/internal/backend"
	"miadmin/internal/cli"
	"miadmin/internal/config"
	"miadmin/internal/core"
	"miadmin/internal/log"
	"miadmin/internal/services"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	// openEngine is replaced in tests.
	openEngine = openConfiguredEngine
	location   = time.Local
	now        = time.Now
)

var errUsage = errors.New("usage")

// openConfiguredEngine opens the ledger the environment points at. Logs go
// to stderr and only from WARN up, stdout is reserved for command output.
func openConfiguredEngine(ctx context.Context) (*services.Engine, backend.CleanupFunc, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	level := cfg.SlogLevel()
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	})
	core.DisplayCurrency = cfg.Currency
	location = cfg.Location()
	return cli.OpenEngine(ctx, logger, cfg)
}

// withEngine runs fn against the configured ledger and maps its error to an
// exit status.
func withEngine(ctx context.Context, fn func(*services.Engine) error) subcommands.ExitStatus {
	engine, cleanup, err := openEngine(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error opening ledger:", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := cleanup(); err != nil {
			fmt.Fprintln(stderr, "Error closing ledger:", err)
		}
	}()

	if err := fn(engine); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			return subcommands.ExitUsageError
		}
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// action returns the first positional argument, or def when there is none.
func action(f *flag.FlagSet, def string) string {
	if f.NArg() == 0 {
		return def
	}
	return f.Arg(0)
}

// idArg returns the positional argument after the action.
func idArg(f *flag.FlagSet) (string, error) {
	if f.NArg() < 2 || f.Arg(1) == "" {
		return "", usageError("%s needs an id", f.Arg(0))
	}
	return f.Arg(1), nil
}

// setFlags reports which flags were given on the command line.
func setFlags(f *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

type output struct {
	json bool
}

func (o *output) register(f *flag.FlagSet) {
	f.BoolVar(&o.json, "json", false, "Print JSON instead of a table.")
}

// print writes v as indented JSON when -json was given, and calls
// table otherwise.
func (o *output) print(v any, table func(w io.Writer)) error {
	if o.json {
		return printJSON(v)
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseMonth(s string) (int, time.Month, error) {
	if s == "" {
		t := now().In(location)
		return t.Year(), t.Month(), nil
	}
	t, err := time.ParseInLocation("2006-01", s, location)
	if err != nil {
		return 0, 0, usageError("invalid month %q, want YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, location)
	if err != nil {
		return time.Time{}, usageError("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func optAmount(s string) (*core.Money, error) {
	m, err := core.ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, s)
	}
	return &m, nil
}
