package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newBillableCmd(billingService *service.BillingService) *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:   "billable <client-id>",
		Short: "Show a client's uninvoiced work",
		Long: `List the client's finished, unbilled time entries and billable expenses
with a per-currency total. These are the items an invoice would pick up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := billingService.FindBillable(ctx, args[0], currency)
			if err != nil {
				return err
			}
			if items.Empty() {
				fmt.Println("Nothing billable.")
				return nil
			}

			if len(items.Entries) > 0 {
				fmt.Println("Time entries:")
				for _, entry := range items.Entries {
					description := entry.ProjectName
					if entry.Description != nil && *entry.Description != "" {
						description = *entry.Description
					}
					fmt.Printf("  %s - %s - %.2fh @ %s\n", entry.ID,
						description, entry.Hours(), entry.Rate.StringFixed(2))
				}
			}
			if len(items.Expenses) > 0 {
				fmt.Println("Expenses:")
				for _, expense := range items.Expenses {
					fmt.Printf("  %s - %s - %s\n", expense.ID,
						expense.Description, expense.Amount.StringFixed(2))
				}
			}

			totals, err := billingService.UnbilledByCurrency(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println("Unbilled totals:")
			for _, total := range totals {
				fmt.Printf("  %s %s\n", total.Amount.StringFixed(2), total.Currency)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "Only items billed in this currency")
	return cmd
}
