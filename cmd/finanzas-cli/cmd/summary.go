package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

func newSummaryCmd(a *app) *cobra.Command {
	var (
		account  int64
		from, to string
	)
	c := &cobra.Command{
		Use:   "resumen",
		Short: "Show totals and balances",
		Long: `Show income, expenses and balances as computed by the server.

Example:
  finanzas-cli resumen
  finanzas-cli resumen --cuenta 2 --desde 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := services.SummaryQuery{AccountID: account}
			var err error
			if q.Range.From, err = optionalDate("desde", from); err != nil {
				return err
			}
			if q.Range.To, err = optionalDate("hasta", to); err != nil {
				return err
			}
			sum, err := a.api.Summary(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			printSummary(a.out, sum)
			return nil
		},
	}
	c.Flags().Int64Var(&account, "cuenta", 0, "restrict to one account id")
	c.Flags().StringVar(&from, "desde", "", "first day, YYYY-MM-DD")
	c.Flags().StringVar(&to, "hasta", "", "last day, YYYY-MM-DD")
	return c
}

func optionalDate(flag, v string) (core.Date, error) {
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return d, nil
}
