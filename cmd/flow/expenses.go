package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newExpensesCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Manage expenses",
	}

	cmd.AddCommand(
		newExpensesAddCmd(billingService),
		newExpensesListCmd(billingService),
		newExpensesArchiveCmd(billingService),
		newExpensesUnarchiveCmd(billingService),
		newExpensesDeleteCmd(billingService),
	)

	return cmd
}

func newExpensesAddCmd(billingService *service.BillingService) *cobra.Command {
	var projectID, amount, date string
	var nonBillable bool
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record an expense against a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			expenseDate := time.Now().UTC()
			if date != "" {
				expenseDate, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
				}
			}
			expense, err := billingService.CreateExpense(cmd.Context(), service.CreateExpenseInput{
				ProjectID:   projectID,
				Amount:      value,
				Date:        expenseDate,
				Description: args[0],
				IsBillable:  !nonBillable,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Recorded expense %s (%s) on %s\n",
				expense.Description, expense.Amount.StringFixed(2), expense.ProjectName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.Flags().StringVarP(&amount, "amount", "m", "", "Expense amount")
	cmd.Flags().StringVar(&date, "date", "", "Expense date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&nonBillable, "non-billable", false, "Exclude from invoicing")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newExpensesListCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			expenses, err := billingService.ListExpenses(cmd.Context())
			if err != nil {
				return err
			}
			if len(expenses) == 0 {
				fmt.Println("No expenses found.")
				return nil
			}
			for _, expense := range expenses {
				line := fmt.Sprintf("%s - %s - %s - %s - %s", expense.ID,
					expense.Date.Format("2006-01-02"), expense.ProjectName,
					expense.Description, expense.Amount.StringFixed(2))
				if !expense.IsBillable {
					line += " [non-billable]"
				}
				if expense.IsBilled {
					line += " [billed]"
				}
				if expense.IsArchived {
					line += " [archived]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newExpensesArchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <expense-id>",
		Short: "Archive an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.ArchiveExpense(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Expense archived.")
			return nil
		},
	}
}

func newExpensesUnarchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <expense-id>",
		Short: "Restore an archived expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.UnarchiveExpense(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Expense restored.")
			return nil
		},
	}
}

func newExpensesDeleteCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.DeleteExpense(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Expense deleted.")
			return nil
		},
	}
}
