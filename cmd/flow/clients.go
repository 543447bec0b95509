package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/service"
)

func newClientsCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage clients",
	}

	cmd.AddCommand(
		newClientsCreateCmd(billingService),
		newClientsListCmd(billingService),
		newClientsDeleteCmd(billingService),
		newClientsArchiveCmd(billingService),
		newClientsUnarchiveCmd(billingService),
	)

	return cmd
}

func newClientsCreateCmd(billingService *service.BillingService) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := billingService.CreateClient(cmd.Context(), service.CreateClientInput{
				Name:  args[0],
				Email: email,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created client %s (ID: %s)\n", client.Name, client.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Client contact email")
	return cmd
}

func newClientsListCmd(billingService *service.BillingService) *cobra.Command {
	var includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := billingService.ListClients(cmd.Context(), includeArchived)
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}
			for _, client := range clients {
				line := fmt.Sprintf("%s - %s", client.ID, client.Name)
				if client.Email != "" {
					line += " - " + client.Email
				}
				if client.IsArchived {
					line += " [archived]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&includeArchived, "all", "a", false, "Include archived clients")
	return cmd
}

func newClientsDeleteCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client and all of its projects and work records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.DeleteClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Client deleted.")
			return nil
		},
	}
}

func newClientsArchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <client-id>",
		Short: "Archive a client and all of its projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.ArchiveClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Client archived.")
			return nil
		},
	}
}

func newClientsUnarchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <client-id>",
		Short: "Restore an archived client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.UnarchiveClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Client restored. Its projects stay archived until restored individually.")
			return nil
		},
	}
}
