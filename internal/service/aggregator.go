package service

import (
	"context"
	"fmt"

	"github.com/freelanceflow/flow/internal/models"
)

// BillableItems is the uninvoiced work for one client, grouped by kind.
// Entries carry the rate and project name of their project so callers can
// price them without further lookups.
type BillableItems struct {
	Entries  []*models.TimeEntry
	Expenses []*models.Expense
}

func (b *BillableItems) Empty() bool {
	return len(b.Entries) == 0 && len(b.Expenses) == 0
}

// All returns the items as one tagged list, entries first.
func (b *BillableItems) All() []models.BillableItem {
	out := make([]models.BillableItem, 0, len(b.Entries)+len(b.Expenses))
	for _, e := range b.Entries {
		out = append(out, models.BillableItem{Kind: models.BillableTime, Entry: e})
	}
	for _, e := range b.Expenses {
		out = append(out, models.BillableItem{Kind: models.BillableExpense, Expense: e})
	}
	return out
}

// FindBillable collects the client's uninvoiced work: finished unbilled time
// entries and unbilled billable expenses, excluding anything archived at any
// level of the client/project chain. A currency narrows the result to
// projects billed in that currency; pass "" for all.
func (s *BillingService) FindBillable(ctx context.Context, clientID, currency string) (*BillableItems, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	projects, err := s.store.ListProjectsByClient(ctx, client.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	items := &BillableItems{}
	if client.IsArchived {
		return items, nil
	}

	for _, project := range projects {
		if currency != "" && project.Currency != currency {
			continue
		}
		entries, err := s.store.ListTimeEntriesByProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list time entries: %w", err)
		}
		for _, entry := range entries {
			if entry.IsBilled || entry.IsArchived || entry.EndTime == nil {
				continue
			}
			if entry.Hours() <= 0 {
				continue
			}
			items.Entries = append(items.Entries, entry)
		}

		expenses, err := s.store.ListExpensesByProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list expenses: %w", err)
		}
		for _, expense := range expenses {
			if expense.IsBilled || expense.IsArchived || !expense.IsBillable {
				continue
			}
			items.Expenses = append(items.Expenses, expense)
		}
	}

	return items, nil
}

// BillableCurrencies lists the currencies the client currently has
// uninvoiced work in, in project order.
func (s *BillingService) BillableCurrencies(ctx context.Context, clientID string) ([]string, error) {
	items, err := s.FindBillable(ctx, clientID, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	add := func(currency string) {
		if !seen[currency] {
			seen[currency] = true
			out = append(out, currency)
		}
	}
	for _, entry := range items.Entries {
		project, err := s.GetProject(ctx, entry.ProjectID)
		if err != nil {
			return nil, err
		}
		add(project.Currency)
	}
	for _, expense := range items.Expenses {
		project, err := s.GetProject(ctx, expense.ProjectID)
		if err != nil {
			return nil, err
		}
		add(project.Currency)
	}
	return out, nil
}
