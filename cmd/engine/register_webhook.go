package main

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/spf13/cobra"
)

type webhookRegistrar interface {
	RegisterWebhookEndpoint(ctx context.Context, url string) (*gateway.WebhookEndpoint, error)
}

func registerWebhookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-webhook [payment-method] [url]",
		Short: "Register the engine's webhook endpoint with the Gateway",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.methods.Get(args[0])
			if err != nil {
				return err
			}
			registrar, ok := m.(webhookRegistrar)
			if !ok {
				return fmt.Errorf("payment method %s cannot register webhook endpoints", args[0])
			}

			endpoint, err := registrar.RegisterWebhookEndpoint(ctx, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", endpoint.ID, endpoint.URL)
			if endpoint.Secret != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "signing secret: %s\n", endpoint.Secret)
			}
			return nil
		},
	}
}
