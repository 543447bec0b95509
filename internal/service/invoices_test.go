package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/flow/internal/models"
)

func TestCreateInvoicePricesTimeAndExpenses(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 2.5)

	expense, err := svc.CreateExpense(ctx, CreateExpenseInput{
		ProjectID:   project.ID,
		Amount:      decimal.RequireFromString("49.90"),
		Date:        time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		Description: "stock photos",
		IsBillable:  true,
	})
	require.NoError(t, err)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, []string{expense.ID})
	require.NoError(t, err)

	assert.True(t, invoice.Amount.Equal(decimal.RequireFromString("299.90")), "got %s", invoice.Amount)
	assert.Equal(t, "USD", invoice.Currency)
	assert.Equal(t, models.InvoiceDraft, invoice.Status)
	assert.Contains(t, invoice.ID, "INV-")
	assert.Equal(t, invoice.IssueDate.AddDate(0, 0, 30), invoice.DueDate)
	require.Len(t, invoice.Items, 2)
	assert.Equal(t, models.LineItemTime, invoice.Items[0].SourceType)
	assert.InDelta(t, 2.5, invoice.Items[0].Hours, 1e-9)
	assert.True(t, invoice.Items[0].Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, models.LineItemExpense, invoice.Items[1].SourceType)

	// The source items are bound now.
	items, err := svc.FindBillable(ctx, client.ID, "")
	require.NoError(t, err)
	assert.True(t, items.Empty())
}

func TestCreateInvoiceRejectsMixedCurrencies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, usdProject := seedClientProject(t, svc, "Acme", "100", "USD")

	eurProject, err := svc.CreateProject(ctx, CreateProjectInput{
		Name:     "Acme EU",
		ClientID: client.ID,
		Rate:     decimal.NewFromInt(90),
		Currency: "EUR",
	})
	require.NoError(t, err)

	usdEntry := seedEntry(t, svc, usdProject.ID, 1)
	eurEntry := seedEntry(t, svc, eurProject.ID, 1)

	_, err = svc.CreateInvoice(ctx, client.ID, []string{usdEntry.ID, eurEntry.ID}, nil)
	require.True(t, IsValidation(err))

	// Nothing was bound by the failed attempt.
	items, err := svc.FindBillable(ctx, client.ID, "")
	require.NoError(t, err)
	assert.Len(t, items.Entries, 2)
}

func TestCreateInvoiceRejectsAlreadyBilledItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	_, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.True(t, IsConflict(err))
}

func TestCreateInvoiceRejectsItemsArchivedSinceSelection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("archived entry", func(t *testing.T) {
		client, project := seedClientProject(t, svc, "Acme", "100", "USD")
		entry := seedEntry(t, svc, project.ID, 2)

		require.NoError(t, svc.ArchiveTimeEntry(ctx, entry.ID))

		_, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
		require.True(t, IsConflict(err))
	})

	t.Run("archived expense", func(t *testing.T) {
		client, project := seedClientProject(t, svc, "Globex", "100", "USD")
		expense, err := svc.CreateExpense(ctx, CreateExpenseInput{
			ProjectID:   project.ID,
			Amount:      decimal.NewFromInt(50),
			Date:        time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			Description: "hosting",
			IsBillable:  true,
		})
		require.NoError(t, err)

		require.NoError(t, svc.ArchiveExpense(ctx, expense.ID))

		_, err = svc.CreateInvoice(ctx, client.ID, nil, []string{expense.ID})
		require.True(t, IsConflict(err))
	})

	t.Run("archived project", func(t *testing.T) {
		client, project := seedClientProject(t, svc, "Initech", "100", "USD")
		entry := seedEntry(t, svc, project.ID, 2)

		require.NoError(t, svc.ArchiveProject(ctx, project.ID))

		_, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
		require.True(t, IsConflict(err))
	})

	t.Run("archived client", func(t *testing.T) {
		client, project := seedClientProject(t, svc, "Umbrella", "100", "USD")
		entry := seedEntry(t, svc, project.ID, 2)

		require.NoError(t, svc.ArchiveClient(ctx, client.ID))

		_, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
		require.True(t, IsConflict(err))
	})
}

func TestCreateInvoiceRejectsRunningEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")

	entry, err := svc.StartWork(ctx, project.ID, nil)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.True(t, IsValidation(err))
}

func TestCreateInvoiceRejectsEmptySelection(t *testing.T) {
	svc := newTestService(t)
	client, _ := seedClientProject(t, svc, "Acme", "100", "USD")

	_, err := svc.CreateInvoice(context.Background(), client.ID, nil, nil)
	require.True(t, IsValidation(err))
}

func TestCreateInvoiceRejectsForeignItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, acmeProject := seedClientProject(t, svc, "Acme", "100", "USD")
	other, _ := seedClientProject(t, svc, "Globex", "80", "USD")

	entry := seedEntry(t, svc, acmeProject.ID, 1)

	_, err := svc.CreateInvoice(ctx, other.ID, []string{entry.ID}, nil)
	require.True(t, IsValidation(err))
}

func TestDeleteInvoiceReleasesItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 2)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInvoice(ctx, invoice.ID))

	_, err = svc.GetInvoice(ctx, invoice.ID)
	require.True(t, IsNotFound(err))

	items, err := svc.FindBillable(ctx, client.ID, "")
	require.NoError(t, err)
	require.Len(t, items.Entries, 1)
	assert.Equal(t, entry.ID, items.Entries[0].ID)
	assert.False(t, items.Entries[0].IsBilled)
	assert.Nil(t, items.Entries[0].InvoiceID)
}

func TestInvoiceBindAndUnbindRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 2)
	expense, err := svc.CreateExpense(ctx, CreateExpenseInput{
		ProjectID:   project.ID,
		Amount:      decimal.NewFromInt(50),
		Date:        time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		Description: "fonts",
		IsBillable:  true,
	})
	require.NoError(t, err)

	items, err := svc.FindBillable(ctx, client.ID, "USD")
	require.NoError(t, err)
	require.Len(t, items.Entries, 1)
	require.Len(t, items.Expenses, 1)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, []string{expense.ID})
	require.NoError(t, err)
	assert.True(t, invoice.Amount.Equal(decimal.RequireFromString("250.00")), "got %s", invoice.Amount)
	assert.Equal(t, models.InvoiceDraft, invoice.Status)

	boundEntry, err := svc.store.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, boundEntry.IsBilled)

	require.NoError(t, svc.DeleteInvoice(ctx, invoice.ID))

	freeEntry, err := svc.store.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, freeEntry.IsBilled)
	freeExpense, err := svc.store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.False(t, freeExpense.IsBilled)
}

func TestSetInvoiceStatusRejectsOverdue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	_, err = svc.SetInvoiceStatus(ctx, invoice.ID, models.InvoiceOverdue)
	require.True(t, IsValidation(err))
}

func TestToggleInvoicePaidRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	paid, err := svc.ToggleInvoicePaid(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)

	draft, err := svc.ToggleInvoicePaid(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceDraft, draft.Status)
}

func TestEffectiveStatusDerivesOverdue(t *testing.T) {
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{Status: models.InvoiceDraft, DueDate: due}

	assert.Equal(t, models.InvoiceDraft, invoice.EffectiveStatus(due.AddDate(0, 0, -1)))
	assert.Equal(t, models.InvoiceOverdue, invoice.EffectiveStatus(due.AddDate(0, 0, 1)))

	invoice.Status = models.InvoicePaid
	assert.Equal(t, models.InvoicePaid, invoice.EffectiveStatus(due.AddDate(0, 0, 1)))
}

func TestEstimateYTDTax(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, usdProject := seedClientProject(t, svc, "Acme", "100", "USD")

	eurProject, err := svc.CreateProject(ctx, CreateProjectInput{
		Name:     "Acme EU",
		ClientID: client.ID,
		Rate:     decimal.NewFromInt(200),
		Currency: "EUR",
	})
	require.NoError(t, err)

	usdEntry := seedEntry(t, svc, usdProject.ID, 10)
	eurEntry := seedEntry(t, svc, eurProject.ID, 10)

	usdInvoice, err := svc.CreateInvoice(ctx, client.ID, []string{usdEntry.ID}, nil)
	require.NoError(t, err)
	eurInvoice, err := svc.CreateInvoice(ctx, client.ID, []string{eurEntry.ID}, nil)
	require.NoError(t, err)

	_, err = svc.SetInvoiceStatus(ctx, usdInvoice.ID, models.InvoicePaid)
	require.NoError(t, err)
	_, err = svc.SetInvoiceStatus(ctx, eurInvoice.ID, models.InvoicePaid)
	require.NoError(t, err)

	// Default settings: 25% rate, USD default currency. The EUR invoice is
	// excluded, not converted.
	income, estimate, err := svc.EstimateYTDTax(ctx, time.Now())
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(1000)), "got %s", income)
	assert.True(t, estimate.Equal(decimal.NewFromInt(250)), "got %s", estimate)
}
