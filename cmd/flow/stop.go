package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newStopCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running time entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := billingService.StopWork(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Stopped work on %s (%.2f hours)\n", entry.ProjectName, entry.Hours())
			return nil
		},
	}
}
