package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newTaxCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Tax reporting",
	}

	cmd.AddCommand(newTaxEstimateCmd(billingService))

	return cmd
}

func newTaxEstimateCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate",
		Short: "Estimate tax owed on income paid this year",
		Long: `Sum the invoices paid this year in the default currency and apply the
configured tax rate. Invoices in other currencies are listed but excluded
from the estimate rather than converted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := time.Now()
			income, estimate, err := billingService.EstimateYTDTax(ctx, now)
			if err != nil {
				return err
			}
			currency, err := billingService.CurrencySettings(ctx)
			if err != nil {
				return err
			}
			tax, err := billingService.TaxSettings(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Paid income %d:  %s %s\n", now.Year(), income.StringFixed(2), currency.Default)
			fmt.Printf("Tax rate:        %s%%\n", tax.Rate.String())
			fmt.Printf("Estimated tax:   %s %s\n", estimate.StringFixed(2), currency.Default)

			paid, err := billingService.PaidByCurrency(ctx, now.Year())
			if err != nil {
				return err
			}
			for _, bucket := range paid {
				if bucket.Currency == currency.Default {
					continue
				}
				fmt.Printf("Excluded (not converted): %s %s\n", bucket.Amount.StringFixed(2), bucket.Currency)
			}
			return nil
		},
	}
}
