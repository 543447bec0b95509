package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freelanceflow/flow/internal/database"
	"github.com/freelanceflow/flow/internal/models"
)

const paymentTermDays = 30

// CreateInvoice builds an invoice from the selected time entries and
// expenses and binds them to it atomically. Every item is re-read and
// re-checked at creation time, so a selection that went stale since it was
// shown to the user fails with a ConflictError and nothing is written.
func (s *BillingService) CreateInvoice(ctx context.Context, clientID string, entryIDs, expenseIDs []string) (*models.Invoice, error) {
	if len(entryIDs) == 0 && len(expenseIDs) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsArchived {
		return nil, &ConflictError{EntityID: clientID, Reason: "client is archived"}
	}

	var items []models.LineItem
	total := decimal.Zero
	currency := ""

	checkCurrency := func(projectCurrency string) error {
		if currency == "" {
			currency = projectCurrency
			return nil
		}
		if currency != projectCurrency {
			return &ValidationError{Field: "currency", Reason: "selection mixes currencies"}
		}
		return nil
	}

	for _, id := range entryIDs {
		entry, err := s.store.GetTimeEntry(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{Entity: "time entry", ID: id}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load time entry: %w", err)
		}
		if entry.IsBilled {
			return nil, &ConflictError{EntityID: id, Reason: "time entry already billed"}
		}
		if entry.IsArchived {
			return nil, &ConflictError{EntityID: id, Reason: "time entry was archived"}
		}
		if entry.EndTime == nil {
			return nil, &ValidationError{Field: "items", Reason: "time entry is still running"}
		}
		project, err := s.GetProject(ctx, entry.ProjectID)
		if err != nil {
			return nil, err
		}
		if project.IsArchived {
			return nil, &ConflictError{EntityID: id, Reason: "project was archived"}
		}
		if project.ClientID != client.ID {
			return nil, &ValidationError{Field: "items", Reason: "time entry belongs to another client"}
		}
		if err := checkCurrency(project.Currency); err != nil {
			return nil, err
		}

		hours := entry.Hours()
		amount := project.Rate.Mul(decimal.NewFromFloat(hours))
		description := project.Name
		if entry.Description != nil && *entry.Description != "" {
			description = *entry.Description
		}
		items = append(items, models.LineItem{
			SourceType:  models.LineItemTime,
			SourceID:    entry.ID,
			Description: description,
			Hours:       hours,
			Rate:        project.Rate,
			Amount:      amount,
		})
		total = total.Add(amount)
	}

	for _, id := range expenseIDs {
		expense, err := s.store.GetExpense(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{Entity: "expense", ID: id}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load expense: %w", err)
		}
		if expense.IsBilled {
			return nil, &ConflictError{EntityID: id, Reason: "expense already billed"}
		}
		if expense.IsArchived {
			return nil, &ConflictError{EntityID: id, Reason: "expense was archived"}
		}
		if !expense.IsBillable {
			return nil, &ValidationError{Field: "items", Reason: "expense is not billable"}
		}
		project, err := s.GetProject(ctx, expense.ProjectID)
		if err != nil {
			return nil, err
		}
		if project.IsArchived {
			return nil, &ConflictError{EntityID: id, Reason: "project was archived"}
		}
		if project.ClientID != client.ID {
			return nil, &ValidationError{Field: "items", Reason: "expense belongs to another client"}
		}
		if err := checkCurrency(project.Currency); err != nil {
			return nil, err
		}

		items = append(items, models.LineItem{
			SourceType:  models.LineItemExpense,
			SourceID:    expense.ID,
			Description: expense.Description,
			Rate:        expense.Amount,
			Amount:      expense.Amount,
		})
		total = total.Add(expense.Amount)
	}

	now := time.Now().UTC()
	invoice := &models.Invoice{
		ID:         models.NewInvoiceID(),
		ClientName: client.Name,
		IssueDate:  now,
		DueDate:    now.AddDate(0, 0, paymentTermDays),
		Currency:   currency,
		Status:     models.InvoiceDraft,
		Amount:     total,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.store.CreateInvoice(ctx, invoice, entryIDs, expenseIDs)
	if errors.Is(err, database.ErrAlreadyBilled) {
		return nil, &ConflictError{EntityID: invoice.ID, Reason: "an item was billed by another invoice"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.log.Info().Str("invoice", invoice.ID).Str("client", client.Name).
		Str("amount", total.StringFixed(2)).Str("currency", currency).Msg("invoice created")
	return invoice, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.store.GetInvoice(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "invoice", ID: id}
	}
	return invoice, err
}

func (s *BillingService) ListInvoices(ctx context.Context, includeArchived bool) ([]*models.Invoice, error) {
	return s.store.ListInvoices(ctx, includeArchived)
}

// DeleteInvoice removes the invoice and releases all of its source items
// back to the billable pool in one atomic unit.
func (s *BillingService) DeleteInvoice(ctx context.Context, id string) error {
	err := s.store.DeleteInvoice(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "invoice", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	s.log.Info().Str("invoice", id).Msg("invoice deleted, items released")
	return nil
}

// SetInvoiceStatus stores a Draft/Paid toggle. Overdue is display-only and
// is rejected here.
func (s *BillingService) SetInvoiceStatus(ctx context.Context, id string, status models.InvoiceStatus) (*models.Invoice, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be Draft or Paid"}
	}
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Status = status
	invoice.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return invoice, nil
}

// ToggleInvoicePaid flips between Draft and Paid.
func (s *BillingService) ToggleInvoicePaid(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	next := models.InvoicePaid
	if invoice.Status == models.InvoicePaid {
		next = models.InvoiceDraft
	}
	return s.SetInvoiceStatus(ctx, id, next)
}

// EstimateYTDTax applies the configured tax rate to the sum of invoices
// paid this year in the default currency. Other currencies are excluded
// rather than converted.
func (s *BillingService) EstimateYTDTax(ctx context.Context, now time.Time) (decimal.Decimal, decimal.Decimal, error) {
	tax, err := s.store.GetTaxSettings(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to read tax settings: %w", err)
	}
	currency, err := s.store.GetCurrencySettings(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to read currency settings: %w", err)
	}
	invoices, err := s.store.ListInvoices(ctx, true)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to list invoices: %w", err)
	}

	income := decimal.Zero
	for _, invoice := range invoices {
		if invoice.Status != models.InvoicePaid {
			continue
		}
		if invoice.Currency != currency.Default {
			continue
		}
		if invoice.IssueDate.Year() != now.Year() {
			continue
		}
		income = income.Add(invoice.Amount)
	}

	estimate := income.Mul(tax.Rate).Div(decimal.NewFromInt(100))
	return income, estimate, nil
}
