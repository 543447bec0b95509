package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newSettingsCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change billing settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(billingService),
		newSettingsTaxCmd(billingService),
		newSettingsCurrencyCmd(billingService),
	)

	return cmd
}

func newSettingsShowCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tax, err := billingService.TaxSettings(ctx)
			if err != nil {
				return err
			}
			currency, err := billingService.CurrencySettings(ctx)
			if err != nil {
				return err
			}
			mode := "exclusive"
			if tax.Inclusive {
				mode = "inclusive"
			}
			fmt.Printf("Tax rate:           %s%% (%s)\n", tax.Rate.String(), mode)
			fmt.Printf("Internal cost rate: %s%%\n", tax.InternalCostRate.String())
			fmt.Printf("Default currency:   %s\n", currency.Default)
			fmt.Printf("Invoice language:   %s\n", currency.InvoiceLanguage)
			return nil
		},
	}
}

func newSettingsTaxCmd(billingService *service.BillingService) *cobra.Command {
	var rate, costRate string
	var inclusive bool
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Update tax settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := billingService.TaxSettings(ctx)
			if err != nil {
				return err
			}
			in := service.UpdateTaxSettingsInput{
				Rate:             current.Rate,
				Inclusive:        inclusive,
				InternalCostRate: current.InternalCostRate,
			}
			if rate != "" {
				if in.Rate, err = decimal.NewFromString(rate); err != nil {
					return fmt.Errorf("invalid rate %q: %w", rate, err)
				}
			}
			if costRate != "" {
				if in.InternalCostRate, err = decimal.NewFromString(costRate); err != nil {
					return fmt.Errorf("invalid cost rate %q: %w", costRate, err)
				}
			}
			updated, err := billingService.UpdateTaxSettings(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("Tax rate set to %s%%\n", updated.Rate.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&rate, "rate", "r", "", "Tax rate percentage")
	cmd.Flags().BoolVar(&inclusive, "inclusive", false, "Treat amounts as tax-inclusive")
	cmd.Flags().StringVar(&costRate, "cost-rate", "", "Internal cost rate percentage")
	return cmd
}

func newSettingsCurrencyCmd(billingService *service.BillingService) *cobra.Command {
	var defaultCurrency, language string
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Update currency settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := billingService.CurrencySettings(ctx)
			if err != nil {
				return err
			}
			in := service.UpdateCurrencySettingsInput{
				Default:         current.Default,
				InvoiceLanguage: current.InvoiceLanguage,
			}
			if defaultCurrency != "" {
				in.Default = defaultCurrency
			}
			if language != "" {
				in.InvoiceLanguage = language
			}
			updated, err := billingService.UpdateCurrencySettings(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("Default currency %s, invoice language %s\n", updated.Default, updated.InvoiceLanguage)
			return nil
		},
	}
	cmd.Flags().StringVarP(&defaultCurrency, "default", "d", "", "Default currency (3-letter code)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Invoice language (en or de)")
	return cmd
}
