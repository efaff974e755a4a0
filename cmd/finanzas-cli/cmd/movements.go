package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

func newMovementsCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:     "movimientos",
		Aliases: []string{"mov"},
		Short:   "List, add, edit and remove movements",
	}
	c.AddCommand(newMovementsListCmd(a))
	c.AddCommand(newMovementsAddCmd(a))
	c.AddCommand(newMovementsEditCmd(a))
	c.AddCommand(newMovementsRemoveCmd(a))
	return c
}

// list builds a MovementList backed by the API.
func (a *app) list() *ledger.MovementList {
	return ledger.NewMovementList(a.api, core.Money{}, a.logger)
}

func newMovementsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List movements, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			list := ledger.NewMovementList(a.api, cat.opening(), a.logger)
			if err := list.Load(ctx); err != nil {
				return fmt.Errorf("load movements: %w", err)
			}

			printMovements(a.out, cat.label(list.Items()))
			fmt.Fprintln(a.out)
			printSummary(a.out, list.Summary())
			return nil
		},
	}
}

// catalogSets holds the server's accounts and categories by id.
type catalogSets struct {
	accounts   *core.IndexedSet[core.Account]
	categories *core.IndexedSet[core.Category]
}

func (a *app) catalog(ctx context.Context) (catalogSets, error) {
	accounts, err := a.api.Accounts(ctx)
	if err != nil {
		return catalogSets{}, fmt.Errorf("load accounts: %w", err)
	}
	categories, err := a.api.Categories(ctx)
	if err != nil {
		return catalogSets{}, fmt.Errorf("load categories: %w", err)
	}
	return catalogSets{
		accounts:   core.NewIndexedSet(accounts...),
		categories: core.NewIndexedSet(categories...),
	}, nil
}

// opening is the sum of every account's opening balance.
func (c catalogSets) opening() core.Money {
	var total core.Money
	for _, acc := range c.accounts.Items() {
		total = total.Add(acc.OpeningBalance)
	}
	return total
}

// label fills in names the server left out.
func (c catalogSets) label(movs []core.Movement) []core.Movement {
	for i := range movs {
		if movs[i].CategoryName == "" {
			if cat, ok := c.categories.Get(movs[i].CategoryID).Get(); ok {
				movs[i].CategoryName = cat.Name
			}
		}
		if movs[i].AccountName == "" {
			if acc, ok := c.accounts.Get(movs[i].AccountID).Get(); ok {
				movs[i].AccountName = acc.Name
			}
		}
	}
	return movs
}

// movementFlags are the fields of a movement form as command flags.
type movementFlags struct {
	kind        string
	amount      string
	category    int64
	account     int64
	date        string
	description string
}

func (f *movementFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.kind, "tipo", "", "INGRESO or GASTO")
	c.Flags().StringVar(&f.amount, "monto", "", "amount, e.g. 250 or 99.90")
	c.Flags().Int64Var(&f.category, "categoria", 0, "category id")
	c.Flags().Int64Var(&f.account, "cuenta", 0, "account id")
	c.Flags().StringVar(&f.date, "fecha", "", "date, YYYY-MM-DD (default today)")
	c.Flags().StringVar(&f.description, "descripcion", "", "free text")
}

func (f *movementFlags) form(now time.Time) core.MovementForm {
	date := f.date
	if date == "" {
		date = now.Format(time.DateOnly)
	}
	return core.MovementForm{
		Kind:        f.kind,
		Amount:      core.AmountText(f.amount),
		CategoryID:  f.category,
		AccountID:   f.account,
		Date:        date,
		Description: f.description,
	}
}

// overlay starts from m and applies only the flags the user set.
func (f *movementFlags) overlay(c *cobra.Command, m core.Movement) core.MovementForm {
	form := core.MovementForm{
		Kind:        string(m.Kind),
		Amount:      core.AmountText(m.Amount.String()),
		CategoryID:  m.CategoryID,
		AccountID:   m.AccountID,
		Date:        m.OccurredAt.String(),
		Description: m.Description,
	}
	flags := c.Flags()
	if flags.Changed("tipo") {
		form.Kind = f.kind
	}
	if flags.Changed("monto") {
		form.Amount = core.AmountText(f.amount)
	}
	if flags.Changed("categoria") {
		form.CategoryID = f.category
	}
	if flags.Changed("cuenta") {
		form.AccountID = f.account
	}
	if flags.Changed("fecha") {
		form.Date = f.date
	}
	if flags.Changed("descripcion") {
		form.Description = f.description
	}
	return form
}

func newMovementsAddCmd(a *app) *cobra.Command {
	var f movementFlags
	c := &cobra.Command{
		Use:   "add",
		Short: "Record a movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.list().Create(cmd.Context(), f.form(time.Now()))
			if err != nil {
				return err
			}
			printMovement(a.out, m)
			return nil
		},
	}
	f.register(c)
	_ = c.MarkFlagRequired("tipo")
	_ = c.MarkFlagRequired("monto")
	_ = c.MarkFlagRequired("categoria")
	_ = c.MarkFlagRequired("cuenta")
	return c
}

func newMovementsEditCmd(a *app) *cobra.Command {
	var f movementFlags
	c := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			current, err := a.api.Get(ctx, id)
			if err != nil {
				return err
			}
			existing, ok := current.Get()
			if !ok {
				return fmt.Errorf("movement %d not found", id)
			}
			m, err := a.list().Update(ctx, id, f.overlay(cmd, existing))
			if err != nil {
				return err
			}
			printMovement(a.out, m)
			return nil
		},
	}
	f.register(c)
	return c
}

func newMovementsRemoveCmd(a *app) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a movement",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			confirm := func() bool {
				if yes {
					return true
				}
				fmt.Fprintf(a.out, "¿Eliminar el movimiento %d? [s/N] ", id)
				answer, _ := bufio.NewReader(a.in).ReadString('\n')
				switch strings.ToLower(strings.TrimSpace(answer)) {
				case "s", "si", "sí", "y", "yes":
					return true
				}
				return false
			}
			err = a.list().Delete(cmd.Context(), id, confirm)
			if errors.Is(err, ledger.ErrCancelled) {
				fmt.Fprintln(a.out, "Cancelado")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Movimiento %d eliminado\n", id)
			return nil
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return c
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
