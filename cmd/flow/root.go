package main

import (
	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/config"
	"github.com/freelanceflow/flow/internal/service"
)

func newRootCmd(billingService *service.BillingService, cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flow",
		Short: "Time tracking and billing for freelance work",
		Long: `Track work across clients and projects, collect billable time and expenses,
and turn them into invoices. Supports per-project currencies, recurring billing
profiles, tax estimates and full JSON backups.`,
	}

	rootCmd.AddCommand(
		newStartCmd(billingService),
		newStopCmd(billingService),
		newStatusCmd(billingService),
		newClientsCmd(billingService),
		newProjectsCmd(billingService),
		newEntriesCmd(billingService),
		newExpensesCmd(billingService),
		newBillableCmd(billingService),
		newInvoicesCmd(billingService, cfg),
		newRecurringCmd(billingService),
		newSettingsCmd(billingService),
		newTaxCmd(billingService),
		newBackupCmd(billingService),
		newDBResetCmd(cfg),
	)

	return rootCmd
}
