package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/config"
	"github.com/freelanceflow/flow/internal/models"
	"github.com/freelanceflow/flow/internal/service"
)

func newInvoicesCmd(billingService *service.BillingService, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Manage invoices",
	}

	cmd.AddCommand(
		newInvoicesCreateCmd(billingService),
		newInvoicesListCmd(billingService),
		newInvoicesShowCmd(billingService),
		newInvoicesDeleteCmd(billingService),
		newInvoicesPaidCmd(billingService),
		newInvoicesArchiveCmd(billingService),
		newInvoicesUnarchiveCmd(billingService),
		newInvoicesPDFCmd(billingService, cfg),
	)

	return cmd
}

func newInvoicesCreateCmd(billingService *service.BillingService) *cobra.Command {
	var entryIDs, expenseIDs []string
	var all bool
	var currency string
	cmd := &cobra.Command{
		Use:   "create <client-id>",
		Short: "Create an invoice from billable items",
		Long: `Build an invoice from the given time entries and expenses, or with --all
from everything currently billable for the client. All selected items must
be billed in the same currency.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all {
				items, err := billingService.FindBillable(ctx, args[0], currency)
				if err != nil {
					return err
				}
				for _, entry := range items.Entries {
					entryIDs = append(entryIDs, entry.ID)
				}
				for _, expense := range items.Expenses {
					expenseIDs = append(expenseIDs, expense.ID)
				}
			}

			invoice, err := billingService.CreateInvoice(ctx, args[0], entryIDs, expenseIDs)
			if err != nil {
				return err
			}
			fmt.Printf("Created invoice %s for %s: %s %s, due %s\n",
				invoice.ID, invoice.ClientName, invoice.Amount.StringFixed(2),
				invoice.Currency, invoice.DueDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&entryIDs, "entry", "e", nil, "Time entry ID to include (repeatable)")
	cmd.Flags().StringSliceVarP(&expenseIDs, "expense", "x", nil, "Expense ID to include (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Include everything currently billable")
	cmd.Flags().StringVar(&currency, "currency", "", "With --all, only items in this currency")
	return cmd
}

func newInvoicesListCmd(billingService *service.BillingService) *cobra.Command {
	var includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := billingService.ListInvoices(cmd.Context(), includeArchived)
			if err != nil {
				return err
			}
			if len(invoices) == 0 {
				fmt.Println("No invoices found.")
				return nil
			}
			now := time.Now()
			for _, invoice := range invoices {
				line := fmt.Sprintf("%s - %s - %s %s - %s", invoice.ID, invoice.ClientName,
					invoice.Amount.StringFixed(2), invoice.Currency, invoice.EffectiveStatus(now))
				if invoice.IsArchived {
					line += " [archived]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&includeArchived, "all", "a", false, "Include archived invoices")
	return cmd
}

func newInvoicesShowCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice with its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			invoice, err := billingService.GetInvoice(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Invoice %s\n", invoice.ID)
			fmt.Printf("  Client:   %s\n", invoice.ClientName)
			fmt.Printf("  Issued:   %s\n", invoice.IssueDate.Format("2006-01-02"))
			fmt.Printf("  Due:      %s\n", invoice.DueDate.Format("2006-01-02"))
			fmt.Printf("  Status:   %s\n", invoice.EffectiveStatus(time.Now()))
			fmt.Println("  Items:")
			for _, item := range invoice.Items {
				if item.SourceType == models.LineItemTime {
					fmt.Printf("    %s - %.2fh @ %s = %s\n", item.Description,
						item.Hours, item.Rate.StringFixed(2), item.Amount.StringFixed(2))
				} else {
					fmt.Printf("    %s - %s\n", item.Description, item.Amount.StringFixed(2))
				}
			}
			totals, err := billingService.InvoiceTotals(ctx, invoice)
			if err != nil {
				return err
			}
			fmt.Printf("  Subtotal: %s %s\n", totals.Subtotal.StringFixed(2), invoice.Currency)
			fmt.Printf("  Tax:      %s %s\n", totals.Tax.StringFixed(2), invoice.Currency)
			fmt.Printf("  Total:    %s %s\n", totals.Total.StringFixed(2), invoice.Currency)
			return nil
		},
	}
}

func newInvoicesDeleteCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <invoice-id>",
		Short: "Delete an invoice and release its items for rebilling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.DeleteInvoice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Invoice deleted. Its items are billable again.")
			return nil
		},
	}
}

func newInvoicesPaidCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "paid <invoice-id>",
		Short: "Toggle an invoice between Draft and Paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoice, err := billingService.ToggleInvoicePaid(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Invoice %s is now %s\n", invoice.ID, invoice.Status)
			return nil
		},
	}
}

func newInvoicesArchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <invoice-id>",
		Short: "Archive an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.ArchiveInvoice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Invoice archived.")
			return nil
		},
	}
}

func newInvoicesUnarchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <invoice-id>",
		Short: "Restore an archived invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.UnarchiveInvoice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Invoice restored.")
			return nil
		},
	}
}

func newInvoicesPDFCmd(billingService *service.BillingService, cfg *config.Config) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "pdf <invoice-id>",
		Short: "Render an invoice to a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payment := service.PaymentDetails{
				BusinessName:  cfg.BusinessName,
				BusinessEmail: cfg.BusinessEmail,
				BankName:      cfg.BankName,
				IBAN:          cfg.BankIBAN,
				BIC:           cfg.BankBIC,
			}
			fileName, err := billingService.GenerateInvoicePDF(cmd.Context(), args[0], outDir, payment)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", fileName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "invoices", "Output directory")
	return cmd
}
