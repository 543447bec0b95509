package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newStatusCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running time entry, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := billingService.ActiveEntry(cmd.Context())
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Println("No active time entry.")
				return nil
			}
			elapsed := time.Since(entry.StartTime)
			fmt.Printf("Working on %s since %s (%.2f hours)\n",
				entry.ProjectName, entry.StartTime.Local().Format("15:04:05"), elapsed.Hours())
			if entry.Description != nil {
				fmt.Printf("  %s\n", *entry.Description)
			}
			return nil
		},
	}
}
