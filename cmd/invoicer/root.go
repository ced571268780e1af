package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gebv/invoicer/config"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/services/invoices"
)

type options struct {
	credentialsPath string
	productsPath    string
	entrypointURL   string
	logLevel        string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "invoicer",
		Short:         "Issue and check PayPal invoices",
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return defaultLogger(opts.logLevel)
		},
	}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.credentialsPath, "credentials", config.DefaultCredentialsPath, "PayPal credentials file")
	f.StringVar(&opts.productsPath, "products", config.DefaultProductsPath, "product catalog file")
	f.StringVar(&opts.entrypointURL, "entrypoint", os.Getenv("PAYPAL_ENTRYPOINT_URL"), "PayPal API base URL")
	f.StringVar(&opts.logLevel, "log-level", "WARN", "logger level")

	cmd.AddCommand(newCreateCmd(opts))
	cmd.AddCommand(newSendCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newNextNumberCmd(opts))
	return cmd
}

// provider returns a logged in provider.
func (o *options) provider(ctx context.Context) (*paypal.Provider, error) {
	store := config.NewStore(o.credentialsPath, o.productsPath, "")
	creds, err := store.LoadCredentials()
	if err != nil {
		return nil, err
	}
	p := paypal.NewProvider(paypal.Config{EntrypointURL: o.entrypointURL}, creds, store)
	if err := p.Login(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (o *options) service(ctx context.Context) (*invoices.Service, error) {
	p, err := o.provider(ctx)
	if err != nil {
		return nil, err
	}
	return invoices.NewService(p, nil), nil
}

func newCreateCmd(opts *options) *cobra.Command {
	var email, product string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and send an invoice for a catalog product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := s.Issue(cmd.Context(), email, product)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"invoice_id": res.InvoiceID,
				"status":     res.Status,
				"pay_link":   res.PayLink,
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "recipient email")
	cmd.Flags().StringVar(&product, "product", "", "product id in the catalog")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <invoice-id>",
		Short: "Send an already created invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := s.Resend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(raw) == 0 {
				return printJSON(cmd, map[string]string{"invoice_id": args[0]})
			}
			return printJSON(cmd, raw)
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <invoice-id>",
		Short: "Print the invoice as PayPal returns it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			inv, err := s.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, inv.Raw)
		},
	}
}

func newNextNumberCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next-number",
		Short: "Print the next invoice number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.provider(cmd.Context())
			if err != nil {
				return err
			}
			n, err := p.NextInvoiceNumber(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"invoice_number": n})
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "Failed print result")
}
