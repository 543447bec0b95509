package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newBackupCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import the whole dataset as JSON",
	}

	cmd.AddCommand(
		newBackupExportCmd(billingService),
		newBackupImportCmd(billingService),
	)

	return cmd
}

func newBackupExportCmd(billingService *service.BillingService) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all data to a JSON file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create backup file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := billingService.ExportBackup(cmd.Context(), w); err != nil {
				return err
			}
			if out != "" {
				fmt.Printf("Exported to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newBackupImportCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with the contents of a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()
			if err := billingService.ImportBackup(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Println("Backup imported.")
			return nil
		},
	}
}
