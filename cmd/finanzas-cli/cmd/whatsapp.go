package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"finanzas/internal/whatsapp"
)

func newWhatsAppCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "whatsapp",
		Short: "Inspect and exercise the WhatsApp integration",
	}

	c.AddCommand(&cobra.Command{
		Use:   "formatos",
		Short: "Show the message formats the bot understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := a.api.WhatsAppFormats(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range formats {
				headerColor.Fprintf(a.out, "%s: %s\n", f.Kind, f.Template)
				fmt.Fprintf(a.out, "  %s\n", f.Description)
				for _, ex := range f.Examples {
					fmt.Fprintf(a.out, "  > %s\n", ex)
				}
			}
			return nil
		},
	})

	var req whatsapp.TestRequest
	test := &cobra.Command{
		Use:   "test",
		Short: "Send a test message through the webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.api.SendWhatsAppTest(cmd.Context(), req)
			if err != nil {
				return err
			}
			printMessage(a.out, msg)
			return nil
		},
	}
	test.Flags().StringVar(&req.Phone, "telefono", "", "sender phone number, e.g. +5491122334455")
	test.Flags().StringVar(&req.Message, "mensaje", "", "message text")
	_ = test.MarkFlagRequired("telefono")
	_ = test.MarkFlagRequired("mensaje")
	c.AddCommand(test)

	return c
}
