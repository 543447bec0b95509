package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/models"
	"github.com/freelanceflow/flow/internal/service"
)

func newProjectsCmd(billingService *service.BillingService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectsCreateCmd(billingService),
		newProjectsListCmd(billingService),
		newProjectsDeleteCmd(billingService),
		newProjectsArchiveCmd(billingService),
		newProjectsUnarchiveCmd(billingService),
	)

	return cmd
}

func newProjectsCreateCmd(billingService *service.BillingService) *cobra.Command {
	var clientID, rate, currency string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project for a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hourlyRate, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid rate %q: %w", rate, err)
			}
			project, err := billingService.CreateProject(cmd.Context(), service.CreateProjectInput{
				Name:     args[0],
				ClientID: clientID,
				Rate:     hourlyRate,
				Currency: currency,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created project %s (ID: %s) at %s %s/hr\n",
				project.Name, project.ID, project.Rate.StringFixed(2), project.Currency)
			return nil
		},
	}
	cmd.Flags().StringVarP(&clientID, "client", "c", "", "Client ID the project belongs to")
	cmd.Flags().StringVarP(&rate, "rate", "r", "", "Hourly rate")
	cmd.Flags().StringVar(&currency, "currency", "USD", "Billing currency (3-letter code)")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("rate")
	return cmd
}

func newProjectsListCmd(billingService *service.BillingService) *cobra.Command {
	var clientID string
	var includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projects, err := listProjects(ctx, billingService, clientID, includeArchived)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}
			for _, project := range projects {
				line := fmt.Sprintf("%s - %s - %s %s/hr", project.ID, project.Name,
					project.Rate.StringFixed(2), project.Currency)
				if project.IsArchived {
					line += " [archived]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&clientID, "client", "c", "", "Only projects for this client")
	cmd.Flags().BoolVarP(&includeArchived, "all", "a", false, "Include archived projects")
	return cmd
}

func listProjects(ctx context.Context, billingService *service.BillingService, clientID string, includeArchived bool) ([]*models.Project, error) {
	if clientID != "" {
		return billingService.ListProjectsByClient(ctx, clientID, includeArchived)
	}
	return billingService.ListProjects(ctx, includeArchived)
}

func newProjectsDeleteCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its work records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Project deleted.")
			return nil
		},
	}
}

func newProjectsArchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.ArchiveProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Project archived.")
			return nil
		},
	}
}

func newProjectsUnarchiveCmd(billingService *service.BillingService) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <project-id>",
		Short: "Restore an archived project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := billingService.UnarchiveProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Project restored.")
			return nil
		},
	}
}
