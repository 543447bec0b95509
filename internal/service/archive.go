package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freelanceflow/flow/internal/database"
	"github.com/freelanceflow/flow/internal/models"
)

// Archiving cascades parent-first: archiving a client archives its projects,
// and a child cannot be unarchived while any ancestor is still archived.
// Work records keep their own archive flag; visibility additionally derives
// from the project and client flags, so a record hidden by its parent chain
// becomes visible again the moment the chain is restored.

// ArchiveClient archives the client and every one of its projects.
func (s *BillingService) ArchiveClient(ctx context.Context, id string) error {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	client.IsArchived = true
	client.UpdatedAt = now
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("failed to archive client: %w", err)
	}

	projects, err := s.store.ListProjectsByClient(ctx, client.ID, true)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	for _, project := range projects {
		if project.IsArchived {
			continue
		}
		project.IsArchived = true
		project.UpdatedAt = now
		if err := s.store.UpdateProject(ctx, project); err != nil {
			return fmt.Errorf("failed to archive project: %w", err)
		}
	}

	s.log.Info().Str("client", client.Name).Int("projects", len(projects)).Msg("client archived")
	return nil
}

// UnarchiveClient restores the client. Its projects stay archived until
// restored individually.
func (s *BillingService) UnarchiveClient(ctx context.Context, id string) error {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}
	client.IsArchived = false
	client.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("failed to unarchive client: %w", err)
	}
	return nil
}

func (s *BillingService) ArchiveProject(ctx context.Context, id string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	project.IsArchived = true
	project.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	return nil
}

func (s *BillingService) UnarchiveProject(ctx context.Context, id string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	client, err := s.GetClient(ctx, project.ClientID)
	if err != nil {
		return err
	}
	if client.IsArchived {
		return &PreconditionError{EntityID: id, Reason: "client is archived, restore it first"}
	}
	project.IsArchived = false
	project.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return fmt.Errorf("failed to unarchive project: %w", err)
	}
	return nil
}

func (s *BillingService) ArchiveTimeEntry(ctx context.Context, id string) error {
	entry, err := s.store.GetTimeEntry(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "time entry", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load time entry: %w", err)
	}
	entry.IsArchived = true
	entry.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTimeEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to archive time entry: %w", err)
	}
	return nil
}

func (s *BillingService) UnarchiveTimeEntry(ctx context.Context, id string) error {
	entry, err := s.store.GetTimeEntry(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "time entry", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load time entry: %w", err)
	}
	if err := s.requireLiveProjectChain(ctx, entry.ProjectID, id); err != nil {
		return err
	}
	entry.IsArchived = false
	entry.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTimeEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to unarchive time entry: %w", err)
	}
	return nil
}

func (s *BillingService) ArchiveExpense(ctx context.Context, id string) error {
	expense, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "expense", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load expense: %w", err)
	}
	expense.IsArchived = true
	expense.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to archive expense: %w", err)
	}
	return nil
}

func (s *BillingService) UnarchiveExpense(ctx context.Context, id string) error {
	expense, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "expense", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load expense: %w", err)
	}
	if err := s.requireLiveProjectChain(ctx, expense.ProjectID, id); err != nil {
		return err
	}
	expense.IsArchived = false
	expense.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to unarchive expense: %w", err)
	}
	return nil
}

func (s *BillingService) requireLiveProjectChain(ctx context.Context, projectID, entityID string) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.IsArchived {
		return &PreconditionError{EntityID: entityID, Reason: "project is archived, restore it first"}
	}
	client, err := s.GetClient(ctx, project.ClientID)
	if err != nil {
		return err
	}
	if client.IsArchived {
		return &PreconditionError{EntityID: entityID, Reason: "client is archived, restore it first"}
	}
	return nil
}

func (s *BillingService) ArchiveInvoice(ctx context.Context, id string) error {
	return s.setInvoiceArchived(ctx, id, true)
}

func (s *BillingService) UnarchiveInvoice(ctx context.Context, id string) error {
	return s.setInvoiceArchived(ctx, id, false)
}

func (s *BillingService) setInvoiceArchived(ctx context.Context, id string, archived bool) error {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	invoice.IsArchived = archived
	invoice.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

// DeleteProject removes the project and all of its work records. Billed
// items stay bound to their invoice, so deletion is refused while any exist;
// delete the invoice first to release them.
func (s *BillingService) DeleteProject(ctx context.Context, id string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}

	entries, err := s.store.ListTimeEntriesByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to list time entries: %w", err)
	}
	expenses, err := s.store.ListExpensesByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}
	for _, entry := range entries {
		if entry.IsBilled {
			return &PreconditionError{EntityID: id, Reason: "project has billed time entries, delete their invoices first"}
		}
	}
	for _, expense := range expenses {
		if expense.IsBilled {
			return &PreconditionError{EntityID: id, Reason: "project has billed expenses, delete their invoices first"}
		}
	}

	for _, entry := range entries {
		if err := s.store.DeleteTimeEntry(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to delete time entry: %w", err)
		}
	}
	for _, expense := range expenses {
		if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
	}
	if err := s.store.DeleteProject(ctx, project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.log.Info().Str("project", project.Name).Msg("project deleted")
	return nil
}

// DeleteClient removes the client and cascades through its projects. The
// same billed-item guard applies to every project, checked before anything
// is removed.
func (s *BillingService) DeleteClient(ctx context.Context, id string) error {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}
	projects, err := s.store.ListProjectsByClient(ctx, client.ID, true)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	for _, project := range projects {
		entries, err := s.store.ListTimeEntriesByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("failed to list time entries: %w", err)
		}
		for _, entry := range entries {
			if entry.IsBilled {
				return &PreconditionError{EntityID: id, Reason: "client has billed time entries, delete their invoices first"}
			}
		}
		expenses, err := s.store.ListExpensesByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		for _, expense := range expenses {
			if expense.IsBilled {
				return &PreconditionError{EntityID: id, Reason: "client has billed expenses, delete their invoices first"}
			}
		}
	}

	for _, project := range projects {
		if err := s.DeleteProject(ctx, project.ID); err != nil {
			return err
		}
	}
	if err := s.store.DeleteClient(ctx, client.ID); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	s.log.Info().Str("client", client.Name).Msg("client deleted")
	return nil
}

// IsVisible reports whether a work record should appear in default
// listings, folding in the archive state of its project and client.
func (s *BillingService) IsVisible(ctx context.Context, item models.BillableItem) (bool, error) {
	var archived bool
	var projectID string
	switch item.Kind {
	case models.BillableTime:
		archived = item.Entry.IsArchived
		projectID = item.Entry.ProjectID
	case models.BillableExpense:
		archived = item.Expense.IsArchived
		projectID = item.Expense.ProjectID
	default:
		return false, &ValidationError{Field: "kind", Reason: "unknown billable kind"}
	}
	if archived {
		return false, nil
	}
	err := s.requireLiveProjectChain(ctx, projectID, "")
	if IsPrecondition(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
