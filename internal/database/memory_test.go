package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/flow/internal/models"
)

func seedStore(t *testing.T) (*MemoryStore, *models.TimeEntry) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	client := &models.Client{ID: "c1", Name: "Acme", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateClient(ctx, client))

	project := &models.Project{
		ID: "p1", Name: "Site", ClientID: "c1",
		Rate: decimal.NewFromInt(100), Currency: "USD",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.CreateProject(ctx, project))

	end := now.Add(2 * time.Hour)
	entry := &models.TimeEntry{
		ID: "e1", ProjectID: "p1", StartTime: now, EndTime: &end,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.CreateTimeEntry(ctx, entry))
	return store, entry
}

func testInvoice(id string) *models.Invoice {
	now := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	return &models.Invoice{
		ID: id, ClientName: "Acme", IssueDate: now, DueDate: now.AddDate(0, 0, 30),
		Currency: "USD", Status: models.InvoiceDraft, Amount: decimal.NewFromInt(200),
		Items: []models.LineItem{{
			SourceType: models.LineItemTime, SourceID: "e1", Description: "Site",
			Hours: 2, Rate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(200),
		}},
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreateInvoiceBindsAtomically(t *testing.T) {
	store, entry := seedStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, testInvoice("INV-1"), []string{entry.ID}, nil))

	bound, err := store.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, bound.IsBilled)
	require.NotNil(t, bound.InvoiceID)
	assert.Equal(t, "INV-1", *bound.InvoiceID)

	// A second invoice over the same entry is refused and not stored.
	err = store.CreateInvoice(ctx, testInvoice("INV-2"), []string{entry.ID}, nil)
	require.ErrorIs(t, err, ErrAlreadyBilled)
	_, err = store.GetInvoice(ctx, "INV-2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteInvoiceUnbinds(t *testing.T) {
	store, entry := seedStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, testInvoice("INV-1"), []string{entry.ID}, nil))
	require.NoError(t, store.DeleteInvoice(ctx, "INV-1"))

	released, err := store.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, released.IsBilled)
	assert.Nil(t, released.InvoiceID)

	_, err = store.GetInvoice(ctx, "INV-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store, _ := seedStore(t)
	ctx := context.Background()

	got, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	got.Name = "Mutated"

	fresh, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", fresh.Name)
}

func TestExportImportRoundTrip(t *testing.T) {
	store, entry := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateInvoice(ctx, testInvoice("INV-1"), []string{entry.ID}, nil))

	data, err := store.ExportData(ctx)
	require.NoError(t, err)

	other := NewMemoryStore()
	require.NoError(t, other.ImportData(ctx, data))

	invoice, err := other.GetInvoice(ctx, "INV-1")
	require.NoError(t, err)
	require.Len(t, invoice.Items, 1)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(200)))

	imported, err := other.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, imported.IsBilled)
}
