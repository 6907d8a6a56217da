package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/subcommands"

	"miadmin/internal/core"
	"miadmin/internal/report"
	"miadmin/internal/services"
)

type summaryCmd struct {
	output
	month     string
	from      string
	to        string
	direction string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize income and expenses for a month or date range" }
func (*summaryCmd) Usage() string {
	return `miadmin summary [-month YYYY-MM | -from YYYY-MM-DD -to YYYY-MM-DD [-type income|expense]]

  Totals income, expense and net, broken down by category. -from and -to
  select an inclusive date range instead of a calendar month.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.month, "month", "", "Month, YYYY-MM. Defaults to the current month.")
	f.StringVar(&c.from, "from", "", "First day of a custom range.")
	f.StringVar(&c.to, "to", "", "Last day of a custom range.")
	f.StringVar(&c.direction, "type", "", "Keep only income or expense movements in a range.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		st := e.Snapshot()
		if c.from == "" && c.to == "" {
			year, month, err := parseMonth(c.month)
			if err != nil {
				return err
			}
			s := report.MonthSummary(st, year, month, location)
			return c.print(s, func(w io.Writer) {
				fmt.Fprintf(w, "%d-%02d\tINCOME\t%s\n", s.Year, s.Month, s.Income)
				fmt.Fprintf(w, "\tEXPENSE\t%s\n", s.Expense)
				fmt.Fprintf(w, "\tNET\t%s\n", s.Net)
				printCategories(w, s.ByCategory)
			})
		}

		from, err := parseDate(c.from)
		if err != nil {
			return err
		}
		to, err := parseDate(c.to)
		if err != nil {
			return err
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return usageError("-to %s is before -from %s", c.to, c.from)
		}
		d := core.Direction(c.direction)
		if d != "" && !d.Valid() {
			return fmt.Errorf("%w: %q", core.ErrInvalidDirection, d)
		}
		r := report.RangeSummary(st, from, to, d)
		return c.print(r, func(w io.Writer) {
			fmt.Fprintf(w, "RANGE\tINCOME\t%s\n", r.Income)
			fmt.Fprintf(w, "\tEXPENSE\t%s\n", r.Expense)
			fmt.Fprintf(w, "\tNET\t%s\n", r.Net)
			fmt.Fprintf(w, "\tMOVEMENTS\t%d\n", len(r.Movements))
			printCategories(w, r.ByCategory)
		})
	})
}

func printCategories(w io.Writer, cats []core.CategoryAmount) {
	for _, ca := range cats {
		fmt.Fprintf(w, "\t%s\t%s\n", ca.Category, ca.Amount)
	}
}

type upcomingCmd struct {
	output
	n int
}

func (*upcomingCmd) Name() string     { return "upcoming" }
func (*upcomingCmd) Synopsis() string { return "list the next subscription charges" }
func (*upcomingCmd) Usage() string {
	return `miadmin upcoming [-n <count>]

  Lists the next charge of every subscription, soonest first.
`
}

func (c *upcomingCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.n, "n", 5, "Show at most N charges, -1 for all.")
}

func (c *upcomingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		ps := report.UpcomingPayments(e.Snapshot(), now().In(location), c.n)
		return c.print(ps, func(w io.Writer) {
			fmt.Fprintln(w, "DUE\tDAYS\tTIER\tNAME\tAMOUNT")
			for _, p := range ps {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
					p.Due.Format("2006-01-02"), p.DaysLeft, p.Tier, p.Subscription.Name, p.Subscription.Amount)
			}
		})
	})
}

type totalsCmd struct {
	output
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "show total balances and debt" }
func (*totalsCmd) Usage() string {
	return `miadmin totals

  Sums account balances, derived cash and outstanding debt.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *totalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		st := e.Snapshot()
		v := struct {
			Balances report.Overview    `json:"balances"`
			Debts    report.DebtSummary `json:"debts"`
		}{report.Totals(st), report.DebtTotals(st)}
		return c.print(v, func(w io.Writer) {
			fmt.Fprintf(w, "ACCOUNTS\t%s\n", v.Balances.Accounts)
			fmt.Fprintf(w, "CASH\t%s\n", v.Balances.Cash)
			fmt.Fprintf(w, "TOTAL\t%s\n", v.Balances.Total)
			fmt.Fprintf(w, "DEBT PENDING\t%s\n", v.Debts.Pending)
		})
	})
}

type auditCmd struct {
	output
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "check account balances against their movements" }
func (*auditCmd) Usage() string {
	return `miadmin audit

  Replays every account from its opening balance and lists the ones whose
  stored balance disagrees. Exits non-zero when any account drifted.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *auditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var drifted bool
	status := withEngine(ctx, func(e *services.Engine) error {
		drift := e.Audit()
		drifted = len(drift) > 0
		return c.print(drift, func(w io.Writer) {
			if !drifted {
				fmt.Fprintln(w, "All balances match their movements.")
				return
			}
			fmt.Fprintln(w, "ACCOUNT\tALIAS\tSTORED\tREPLAYED\tDIFFERENCE")
			for _, d := range drift {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.AccountID, d.Alias, d.Stored, d.Replayed, d.Difference)
			}
		})
	})
	if status == subcommands.ExitSuccess && drifted {
		return subcommands.ExitFailure
	}
	return status
}

type budgetsCmd struct {
	output
	month string
}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "show budget status or set monthly limits" }
func (*budgetsCmd) Usage() string {
	return `miadmin budgets [-month YYYY-MM] [status | set <category>=<limit>...]

  status compares each limit with what was spent in the month. set merges
  the given limits into the current ones; a limit of 0 removes it.
`
}

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.month, "month", "", "Month for status, YYYY-MM. Defaults to the current month.")
}

func (c *budgetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "status") {
		case "status":
			year, month, err := parseMonth(c.month)
			if err != nil {
				return err
			}
			bs := report.BudgetStatuses(e.Snapshot(), year, month, location)
			return c.print(bs, func(w io.Writer) {
				fmt.Fprintln(w, "CATEGORY\tLIMIT\tSPENT\tREMAINING\tUSED\tTIER")
				for _, b := range bs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n", b.Category, b.Limit, b.Spent, b.Remaining, b.Percent, b.Tier)
				}
			})
		case "set":
			limits, err := parseLimits(f.Args()[1:])
			if err != nil {
				return err
			}
			changed, err := e.SetBudgets(ctx, limits)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(stdout, "Budgets unchanged.")
			}
			return nil
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}

// parseLimits reads category=amount pairs.
func parseLimits(args []string) (map[core.Category]core.Money, error) {
	if len(args) == 0 {
		return nil, usageError("set needs at least one category=limit")
	}
	limits := make(map[core.Category]core.Money, len(args))
	for _, arg := range args {
		cat, amount, ok := strings.Cut(arg, "=")
		if !ok || cat == "" {
			return nil, usageError("invalid limit %q, want category=amount", arg)
		}
		m, err := optAmount(amount)
		if err != nil {
			return nil, err
		}
		limits[core.Category(cat)] = *m
	}
	return limits, nil
}

type reconcileCmd struct {
	output
	method string
	actual string
	dryRun bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "match a recorded balance to the real one" }
func (*reconcileCmd) Usage() string {
	return `miadmin reconcile -method <cash|account id> -actual <amount> [-dry-run]

  Records an income or expense adjustment for the difference between the
  recorded and the real balance. -dry-run only reports the difference.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.method, "method", string(core.Cash), "cash or an account id.")
	f.StringVar(&c.actual, "actual", "", "Real balance.")
	f.BoolVar(&c.dryRun, "dry-run", false, "Compare without recording an adjustment.")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		actual, err := optAmount(c.actual)
		if err != nil {
			return err
		}
		method := core.PaymentMethod(c.method)

		var r services.ReconcileResult
		if c.dryRun {
			r, err = e.CompareBalance(method, *actual)
		} else {
			r, err = e.ReconcileAccount(ctx, method, *actual)
		}
		if err != nil {
			return err
		}
		return c.print(r, func(w io.Writer) {
			fmt.Fprintf(w, "RECORDED\t%s\n", r.Recorded)
			fmt.Fprintf(w, "REAL\t%s\n", r.Real)
			fmt.Fprintf(w, "DIFFERENCE\t%s\n", r.Difference)
			switch {
			case r.Balanced:
				fmt.Fprintln(w, "Balanced, nothing to adjust.")
			case r.Adjustment != nil:
				fmt.Fprintf(w, "ADJUSTMENT\t%s %s\n", r.Adjustment.Direction, r.Adjustment.ID)
			}
		})
	})
}
