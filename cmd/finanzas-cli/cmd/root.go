// Package cmd provides the finanzas-cli commands. Every command talks to a
// running finanzas server through its REST API.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"finanzas/internal/cli"
	"finanzas/internal/client"
	"finanzas/internal/config"
	"finanzas/internal/log"
)

// app is the state shared by the subcommands once the root command has run.
type app struct {
	apiURL  string
	timeout time.Duration
	debug   bool
	noColor bool

	in     io.Reader
	out    io.Writer
	logger *log.Logger
	api    *client.Client
}

// Execute runs the command tree against os.Args.
func Execute() error {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	return root.Execute()
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:   "finanzas-cli",
		Short: "Manage movements of a finanzas server from the terminal",
		Long: `finanzas-cli talks to the finanzas REST API.

Example:
  finanzas-cli resumen --desde 2024-01-01 --hasta 2024-01-31
  finanzas-cli movimientos add --tipo GASTO --monto 250 --categoria 1 --cuenta 1
  finanzas-cli whatsapp test --telefono +5491122334455 --mensaje "gasto 250 comida"`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, errOut)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "finanzas API base URL (default $API_URL)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "request timeout (default $API_TIMEOUT)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newSummaryCmd(a))
	root.AddCommand(newMovementsCmd(a))
	root.AddCommand(newWhatsAppCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, errOut io.Writer) error {
	cli.LoadEnvFile()

	lc := log.DefaultConfig()
	lc.Output = errOut
	lc.Level = log.ParseLevel("warn")
	if a.debug {
		lc.Level = log.ParseLevel("debug")
	}
	a.logger = log.New(lc).WithComponent(log.ComponentCLI)

	if a.noColor {
		color.NoColor = true
	}

	cfg := config.Load()
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.timeout != 0 {
		cfg.APITimeout = a.timeout
	}
	if err := cfg.ValidateClient(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.logger.Debug("Using API", "url", cfg.APIURL, "timeout", cfg.APITimeout)
	a.api = client.New(cfg.APIURL, cfg.APITimeout, a.logger)
	return nil
}
