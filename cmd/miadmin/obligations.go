package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"miadmin/internal/core"
	"miadmin/internal/report"
	"miadmin/internal/services"
)

// paymentFlags are shared by debt payments and savings contributions.
type paymentFlags struct {
	amount string
	method string
}

func (p *paymentFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.amount, "amount", "", "Amount of the payment or contribution.")
	f.StringVar(&p.method, "method", string(core.Cash), "Payment method: cash or an account id.")
}

type debtsCmd struct {
	output
	pay   paymentFlags
	desc  string
	total string
	term  int
	min   string
}

func (*debtsCmd) Name() string     { return "debts" }
func (*debtsCmd) Synopsis() string { return "track debts and register payments against them" }
func (*debtsCmd) Usage() string {
	return `miadmin debts [flags] [list | add | edit <id> | rm <id> | pay <id>]

  pay records an expense movement for the payment and adds it to the debt.
  A debt with payments cannot be removed.
`
}

func (c *debtsCmd) SetFlags(f *flag.FlagSet) {
	c.output.register(f)
	c.pay.register(f)
	f.StringVar(&c.desc, "desc", "", "Description.")
	f.StringVar(&c.total, "total", "", "Total amount owed.")
	f.IntVar(&c.term, "term", 0, "Term in months.")
	f.StringVar(&c.min, "min", "", "Minimum monthly payment.")
}

func (c *debtsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "list") {
		case "list":
			st := e.Snapshot()
			out := make([]report.DebtProgress, 0, len(st.Debts))
			for _, d := range st.Debts {
				out = append(out, report.Debt(d))
			}
			return c.print(out, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tDESCRIPTION\tTOTAL\tPAID\tPENDING\tPROGRESS")
				for _, p := range out {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f%%\n",
						p.Debt.ID, p.Debt.Description, p.Debt.Total, p.Debt.Paid, p.Pending, p.Progress)
				}
			})
		case "add":
			d, err := c.debt(setFlags(f))
			if err != nil {
				return err
			}
			d, err = e.CreateDebt(ctx, d)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, d.ID)
			return nil
		case "edit":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			set := setFlags(f)
			var p services.DebtPatch
			if set["desc"] {
				p.Description = &c.desc
			}
			if set["total"] {
				if p.Total, err = optAmount(c.total); err != nil {
					return err
				}
			}
			if set["term"] {
				p.TermMonths = &c.term
			}
			if set["min"] {
				if p.MinimumPayment, err = optAmount(c.min); err != nil {
					return err
				}
			}
			_, err = e.UpdateDebt(ctx, id, p)
			return err
		case "rm":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			return e.DeleteDebt(ctx, id)
		case "pay":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			amount, err := optAmount(c.pay.amount)
			if err != nil {
				return err
			}
			m, err := e.RegisterDebtPayment(ctx, id, *amount, core.PaymentMethod(c.pay.method))
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, m.ID)
			return nil
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}

func (c *debtsCmd) debt(set map[string]bool) (core.Debt, error) {
	total, err := optAmount(c.total)
	if err != nil {
		return core.Debt{}, err
	}
	d := core.Debt{Description: c.desc, Total: *total}
	if set["term"] {
		d.TermMonths = &c.term
	}
	if set["min"] {
		if d.MinimumPayment, err = optAmount(c.min); err != nil {
			return core.Debt{}, err
		}
	}
	return d, nil
}

type savingsCmd struct {
	output
	pay     paymentFlags
	name    string
	target  string
	current string
}

func (*savingsCmd) Name() string     { return "savings" }
func (*savingsCmd) Synopsis() string { return "track savings goals and contributions" }
func (*savingsCmd) Usage() string {
	return `miadmin savings [flags] [list | add | edit <id> | rm <id> | deposit <id>]

  deposit records an expense movement for the contribution and adds it to
  the goal.
`
}

func (c *savingsCmd) SetFlags(f *flag.FlagSet) {
	c.output.register(f)
	c.pay.register(f)
	f.StringVar(&c.name, "name", "", "Goal name.")
	f.StringVar(&c.target, "target", "", "Target amount.")
	f.StringVar(&c.current, "current", "0", "Amount already saved.")
}

func (c *savingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "list") {
		case "list":
			st := e.Snapshot()
			out := make([]report.SavingsProgress, 0, len(st.Savings))
			for _, g := range st.Savings {
				out = append(out, report.Savings(g))
			}
			return c.print(out, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tTARGET\tSAVED\tREMAINING\tPROGRESS")
				for _, p := range out {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f%%\n",
						p.Goal.ID, p.Goal.Name, p.Goal.Target, p.Goal.Current, p.Remaining, p.Progress)
				}
			})
		case "add":
			target, err := optAmount(c.target)
			if err != nil {
				return err
			}
			current, err := optAmount(c.current)
			if err != nil {
				return err
			}
			g, err := e.CreateSavingsGoal(ctx, core.SavingsGoal{Name: c.name, Target: *target, Current: *current})
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, g.ID)
			return nil
		case "edit":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			set := setFlags(f)
			var p services.SavingsPatch
			if set["name"] {
				p.Name = &c.name
			}
			if set["target"] {
				if p.Target, err = optAmount(c.target); err != nil {
					return err
				}
			}
			if set["current"] {
				if p.Current, err = optAmount(c.current); err != nil {
					return err
				}
			}
			_, err = e.UpdateSavingsGoal(ctx, id, p)
			return err
		case "rm":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			return e.DeleteSavingsGoal(ctx, id)
		case "deposit":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			amount, err := optAmount(c.pay.amount)
			if err != nil {
				return err
			}
			m, err := e.RegisterSavingsContribution(ctx, id, *amount, core.PaymentMethod(c.pay.method))
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, m.ID)
			return nil
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}

type subscriptionsCmd struct {
	output
	name   string
	amount string
	day    int
	method string
}

func (*subscriptionsCmd) Name() string     { return "subscriptions" }
func (*subscriptionsCmd) Synopsis() string { return "manage recurring subscriptions" }
func (*subscriptionsCmd) Usage() string {
	return `miadmin subscriptions [flags] [list | add | set <id> | rm <id>]

  set replaces every field of the subscription.
`
}

func (c *subscriptionsCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.name, "name", "", "Service name.")
	f.StringVar(&c.amount, "amount", "", "Amount charged each month.")
	f.IntVar(&c.day, "day", 1, "Billing day of the month, 1 to 31.")
	f.StringVar(&c.method, "method", string(core.Cash), "Payment method: cash or an account id.")
}

func (c *subscriptionsCmd) subscription() (core.Subscription, error) {
	amount, err := optAmount(c.amount)
	if err != nil {
		return core.Subscription{}, err
	}
	return core.Subscription{Name: c.name, Amount: *amount, BillingDay: c.day, Method: core.PaymentMethod(c.method)}, nil
}

func (c *subscriptionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "list") {
		case "list":
			subs := e.Snapshot().Subscriptions
			return c.print(subs, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tAMOUNT\tDAY\tMETHOD")
				for _, s := range subs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Amount, s.BillingDay, s.Method)
				}
			})
		case "add":
			s, err := c.subscription()
			if err != nil {
				return err
			}
			if s, err = e.CreateSubscription(ctx, s); err != nil {
				return err
			}
			fmt.Fprintln(stdout, s.ID)
			return nil
		case "set":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			s, err := c.subscription()
			if err != nil {
				return err
			}
			_, err = e.UpdateSubscription(ctx, id, s)
			return err
		case "rm":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			return e.DeleteSubscription(ctx, id)
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}
