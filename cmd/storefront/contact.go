package main

import (
	"context"

	"github.com/spf13/cobra"

	"storefront/internal/models"
)

func newContactCmd(flags *rootFlags) *cobra.Command {
	var (
		form   models.ContactForm
		output string
	)

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Submit the contact form",
		Long: `Submit a contact form through the /contact rate limiter. Submissions are
validated locally first and are never cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			a, err := newApp(flags.options(cmd))
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			resp, err := a.content.SubmitContact(cmd.Context(), &form)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return renderResource(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Sender name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Sender e-mail address")
	cmd.Flags().StringVar(&form.Subject, "subject", "", "Subject line")
	cmd.Flags().StringVar(&form.Message, "message", "", "Message body")
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table|json")
	return cmd
}
