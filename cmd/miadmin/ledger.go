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

type accountsCmd struct {
	output
	name    string
	alias   string
	balance string
	color   string
	month   string
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list, add, edit or remove bank accounts" }
func (*accountsCmd) Usage() string {
	return `miadmin accounts [flags] [list | add | edit <id> | rm <id> | stats <id|cash>]

  Without an action, lists accounts with their balances. stats reports the
  income and expense recorded against an account, or cash, in -month.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.name, "name", "", "Account name.")
	f.StringVar(&c.alias, "alias", "", "Short alias shown in listings.")
	f.StringVar(&c.balance, "balance", "0", "Opening balance for add.")
	f.StringVar(&c.color, "color", "", "Display color.")
	f.StringVar(&c.month, "month", "", "Month for stats, YYYY-MM. Defaults to the current month.")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "list") {
		case "list":
			st := e.Snapshot()
			return c.print(st.Accounts, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tALIAS\tNAME\tBALANCE")
				for _, a := range st.Accounts {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Alias, a.Name, a.Balance)
				}
				fmt.Fprintf(w, "cash\t\t\t%s\n", report.CashBalance(st))
			})
		case "add":
			balance, err := optAmount(c.balance)
			if err != nil {
				return err
			}
			a, err := e.CreateAccount(ctx, core.Account{Name: c.name, Alias: c.alias, Balance: *balance, Color: c.color})
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, a.ID)
			return nil
		case "edit":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			set := setFlags(f)
			var p services.AccountPatch
			if set["name"] {
				p.Name = &c.name
			}
			if set["alias"] {
				p.Alias = &c.alias
			}
			if set["color"] {
				p.Color = &c.color
			}
			_, err = e.UpdateAccount(ctx, id, p)
			return err
		case "rm":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			return e.DeleteAccount(ctx, id)
		case "stats":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			year, month, err := parseMonth(c.month)
			if err != nil {
				return err
			}
			st := e.Snapshot()
			method := core.PaymentMethod(id)
			if !method.IsCash() && st.AccountIndex(id) < 0 {
				return fmt.Errorf("%w: account %q", core.ErrNotFound, id)
			}
			s := report.AccountMonthStats(st, method, year, month, location)
			return c.print(s, func(w io.Writer) {
				fmt.Fprintln(w, "INCOME\tEXPENSE\tMOVEMENTS")
				fmt.Fprintf(w, "%s\t%s\t%d\n", s.Income, s.Expense, s.Count)
			})
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}

type movementsCmd struct {
	output
	desc      string
	amount    string
	direction string
	method    string
	category  string
	n         int
}

func (*movementsCmd) Name() string     { return "movements" }
func (*movementsCmd) Synopsis() string { return "list, record, edit or remove income and expenses" }
func (*movementsCmd) Usage() string {
	return `miadmin movements [flags] [list | add | edit <id> | rm <id>]

  Recording, editing or removing a movement moves the balance of the
  account it was paid with. Cash movements change the derived cash balance.
`
}

func (c *movementsCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.desc, "desc", "", "Description.")
	f.StringVar(&c.amount, "amount", "", "Amount, always positive.")
	f.StringVar(&c.direction, "type", string(core.Expense), "income or expense.")
	f.StringVar(&c.method, "method", string(core.Cash), "Payment method: cash or an account id.")
	f.StringVar(&c.category, "category", "", "Category.")
	f.IntVar(&c.n, "n", 20, "Show only the N most recent movements, -1 for all.")
}

func (c *movementsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEngine(ctx, func(e *services.Engine) error {
		switch action(f, "list") {
		case "list":
			ms := report.RecentActivity(e.Snapshot(), c.n)
			return c.print(ms, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tMETHOD\tCATEGORY\tDESCRIPTION")
				for _, m := range ms {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						m.ID, m.Date.In(location).Format("2006-01-02"), m.Direction, m.Amount, m.Method, m.Category, m.Description)
				}
			})
		case "add":
			amount, err := optAmount(c.amount)
			if err != nil {
				return err
			}
			m, err := e.CreateMovement(ctx, core.Movement{
				Description: c.desc,
				Amount:      *amount,
				Direction:   core.Direction(c.direction),
				Method:      core.PaymentMethod(c.method),
				Category:    core.Category(c.category),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, m.ID)
			return nil
		case "edit":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			p, err := c.patch(setFlags(f))
			if err != nil {
				return err
			}
			_, err = e.EditMovement(ctx, id, p)
			return err
		case "rm":
			id, err := idArg(f)
			if err != nil {
				return err
			}
			return e.DeleteMovement(ctx, id)
		default:
			return usageError("unknown action %q", f.Arg(0))
		}
	})
}

func (c *movementsCmd) patch(set map[string]bool) (services.MovementPatch, error) {
	var p services.MovementPatch
	if set["desc"] {
		p.Description = &c.desc
	}
	if set["amount"] {
		amount, err := optAmount(c.amount)
		if err != nil {
			return p, err
		}
		p.Amount = amount
	}
	if set["type"] {
		d := core.Direction(c.direction)
		p.Direction = &d
	}
	if set["method"] {
		m := core.PaymentMethod(c.method)
		p.Method = &m
	}
	if set["category"] {
		cat := core.Category(c.category)
		p.Category = &cat
	}
	return p, nil
}
