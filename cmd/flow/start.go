package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/models"
	"github.com/freelanceflow/flow/internal/service"
)

func newStartCmd(billingService *service.BillingService) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "start <project-id>",
		Short: "Start tracking time on a project",
		Long:  "Start a running time entry on the given project. Any entry still running is stopped first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entry, err := billingService.StartWork(ctx, args[0], models.StrPtr(description))
			if err != nil {
				return err
			}
			fmt.Printf("Started work on %s at %s\n", entry.ProjectName, entry.StartTime.Local().Format("15:04:05"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "What you are working on")
	return cmd
}
