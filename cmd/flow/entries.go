package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/models"
	"github.com/freelanceflow/flow/internal/service"
)

func newEntriesCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage time entries",
	}

	cmd.AddCommand(
		newEntriesLogCmd(billingService),
		newEntriesListCmd(billingService),
		newEntriesArchiveCmd(billingService),
		newEntriesUnarchiveCmd(billingService),
		newEntriesDeleteCmd(billingService),
	)

	return cmd
}

func newEntriesLogCmd(billingService *service.BillingService) *cobra.Command {
	var projectID, from, to, description string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a finished block of work with explicit times",
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime, err := time.ParseInLocation("2006-01-02 15:04", from, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from time (want YYYY-MM-DD HH:MM): %w", err)
			}
			endTime, err := time.ParseInLocation("2006-01-02 15:04", to, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --to time (want YYYY-MM-DD HH:MM): %w", err)
			}
			entry, err := billingService.LogEntry(cmd.Context(), service.LogEntryInput{
				ProjectID:   projectID,
				StartTime:   startTime.UTC(),
				EndTime:     endTime.UTC(),
				Description: models.StrPtr(description),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Logged %.2f hours on %s\n", entry.Hours(), entry.ProjectName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.Flags().StringVar(&from, "from", "", "Start time (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&to, "to", "", "End time (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "What the work was")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newEntriesListCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := billingService.ListTimeEntries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No time entries found.")
				return nil
			}
			for _, entry := range entries {
				status := "running"
				if entry.EndTime != nil {
					status = fmt.Sprintf("%.2fh", entry.Hours())
				}
				line := fmt.Sprintf("%s - %s - %s - %s", entry.ID,
					entry.StartTime.Local().Format("2006-01-02 15:04"), entry.ProjectName, status)
				if entry.IsBilled {
					line += " [billed]"
				}
				if entry.IsArchived {
					line += " [archived]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	return cmd
}

func newEntriesArchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <entry-id>",
		Short: "Archive a time entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.ArchiveTimeEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Entry archived.")
			return nil
		},
	}
}

func newEntriesUnarchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <entry-id>",
		Short: "Restore an archived time entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.UnarchiveTimeEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Entry restored.")
			return nil
		},
	}
}

func newEntriesDeleteCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete a time entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.DeleteTimeEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Entry deleted.")
			return nil
		},
	}
}
