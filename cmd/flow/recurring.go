package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/models"
	"github.com/freelanceflow/flow/internal/service"
)

func newRecurringCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring billing profiles",
	}

	cmd.AddCommand(
		newRecurringCreateCmd(billingService),
		newRecurringListCmd(billingService),
		newRecurringDueCmd(billingService),
		newRecurringPaidCmd(billingService),
		newRecurringToggleCmd(billingService),
		newRecurringDeleteCmd(billingService),
	)

	return cmd
}

// parseProfileItems reads "description=amount" pairs.
func parseProfileItems(raw []string) ([]models.ProfileItem, error) {
	var items []models.ProfileItem
	for _, pair := range raw {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid item %q (want description=amount)", pair)
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in item %q: %w", pair, err)
		}
		items = append(items, models.ProfileItem{Description: name, Amount: amount})
	}
	return items, nil
}

func newRecurringCreateCmd(billingService *service.BillingService) *cobra.Command {
	var frequency, due, currency string
	var rawItems []string
	cmd := &cobra.Command{
		Use:   "create <client-name>",
		Short: "Create a recurring billing profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := time.Parse("2006-01-02", due)
			if err != nil {
				return fmt.Errorf("invalid due date %q (want YYYY-MM-DD): %w", due, err)
			}
			items, err := parseProfileItems(rawItems)
			if err != nil {
				return err
			}
			profile, err := billingService.CreateRecurringProfile(cmd.Context(), service.CreateRecurringProfileInput{
				ClientName:  args[0],
				Frequency:   models.Frequency(frequency),
				NextDueDate: dueDate,
				Currency:    currency,
				Items:       items,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s profile for %s: %s %s, next due %s\n",
				profile.Frequency, profile.ClientName, profile.Amount().StringFixed(2),
				profile.Currency, profile.NextDueDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "Monthly", "Monthly, Quarterly or Annually")
	cmd.Flags().StringVar(&due, "due", "", "First due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "Billing currency (3-letter code)")
	cmd.Flags().StringSliceVarP(&rawItems, "item", "i", nil, "Line item as description=amount (repeatable)")
	cmd.MarkFlagRequired("due")
	cmd.MarkFlagRequired("item")
	return cmd
}

func newRecurringListCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := billingService.ListRecurringProfiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Println("No recurring profiles found.")
				return nil
			}
			for _, profile := range profiles {
				fmt.Printf("%s - %s - %s - %s %s - next due %s - %s\n",
					profile.ID, profile.ClientName, profile.Frequency,
					profile.Amount().StringFixed(2), profile.Currency,
					profile.NextDueDate.Format("2006-01-02"), profile.Status)
			}
			return nil
		},
	}
}

func newRecurringDueCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List profiles due today or earlier",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := billingService.DueRecurringProfiles(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Println("Nothing due.")
				return nil
			}
			for _, profile := range profiles {
				fmt.Printf("%s - %s - %s %s - due %s\n",
					profile.ID, profile.ClientName, profile.Amount().StringFixed(2),
					profile.Currency, profile.NextDueDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func newRecurringPaidCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "paid <profile-id>",
		Short: "Settle the current cycle and roll the due date forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := billingService.MarkRecurringPaid(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Cycle settled. Next due %s\n", profile.NextDueDate.Format("2006-01-02"))
			return nil
		},
	}
}

func newRecurringToggleCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <profile-id>",
		Short: "Pause or resume a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := billingService.ToggleRecurringStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Profile %s is now %s\n", profile.ID, profile.Status)
			return nil
		},
	}
}

func newRecurringDeleteCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <profile-id>",
		Short: "Delete a recurring profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.DeleteRecurringProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Profile deleted.")
			return nil
		},
	}
}
