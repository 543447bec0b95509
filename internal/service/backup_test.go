package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 2.5)
	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBackup(ctx, &buf))

	// Import into a fresh service and compare what matters.
	restored := newTestService(t)
	require.NoError(t, restored.ImportBackup(ctx, &buf))

	clients, err := restored.ListClients(ctx, true)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, client.Name, clients[0].Name)

	gotInvoice, err := restored.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, gotInvoice.Amount.Equal(invoice.Amount))
	require.Len(t, gotInvoice.Items, 1)

	entries, err := restored.ListTimeEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsBilled)
	require.NotNil(t, entries[0].InvoiceID)
	assert.Equal(t, invoice.ID, *entries[0].InvoiceID)
}

func TestBackupImportReplacesExistingData(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedClientProject(t, svc, "Acme", "100", "USD")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBackup(ctx, &buf))

	// Add more data after the snapshot, then import it back.
	seedClientProject(t, svc, "Globex", "80", "EUR")
	require.NoError(t, svc.ImportBackup(ctx, &buf))

	clients, err := svc.ListClients(ctx, true)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
}

func TestBackupImportRejectsMalformedJSON(t *testing.T) {
	svc := newTestService(t)
	err := svc.ImportBackup(context.Background(), strings.NewReader("{not json"))
	require.True(t, IsValidation(err))
}

func TestBackupImportRejectsDanglingReferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedClientProject(t, svc, "Acme", "100", "USD")

	doc := `{
		"clients": [],
		"projects": [{"id": "p1", "name": "Orphan", "clientId": "missing", "rate": "100", "currency": "USD",
			"isArchived": false, "created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"}],
		"timeEntries": [], "expenses": [], "invoices": [], "recurringInvoices": [],
		"taxSettings": {"rate": "25", "inclusive": false, "internalCostRate": "0"},
		"currencySettings": {"default": "USD", "invoiceLanguage": "en"}
	}`
	err := svc.ImportBackup(ctx, strings.NewReader(doc))
	require.True(t, IsValidation(err))

	// The bad import left the live data alone.
	clients, err := svc.ListClients(ctx, true)
	require.NoError(t, err)
	require.Len(t, clients, 1)
}

func TestBackupImportRejectsInconsistentBilledState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	header := `{
		"clients": [{"id": "c1", "name": "Acme", "email": "", "isArchived": false,
			"created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"}],
		"projects": [{"id": "p1", "name": "Redesign", "clientId": "c1", "rate": "100", "currency": "USD",
			"isArchived": false, "created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"}],`
	footer := `"expenses": [], "recurringInvoices": [],
		"taxSettings": {"rate": "25", "inclusive": false, "internalCostRate": "0"},
		"currencySettings": {"default": "USD", "invoiceLanguage": "en"}
	}`
	entry := func(billed string, invoiceID string) string {
		doc := `"timeEntries": [{"id": "e1", "projectId": "p1",
			"start_time": "2025-03-10T09:00:00Z", "end_time": "2025-03-10T11:00:00Z",
			"isBilled": ` + billed + `, ` + invoiceID + `"isArchived": false,
			"created_at": "2025-03-10T09:00:00Z", "updated_at": "2025-03-10T11:00:00Z"}],`
		return doc
	}
	invoice := func(sourceID string) string {
		return `"invoices": [{"id": "INV-1", "clientName": "Acme",
			"issueDate": "2025-03-12T00:00:00Z", "dueDate": "2025-04-11T00:00:00Z",
			"currency": "USD", "status": "Draft", "amount": "200",
			"items": [{"sourceType": "time", "sourceId": "` + sourceID + `",
				"description": "Redesign", "hours": 2, "rate": "100", "amount": "200"}],
			"isArchived": false,
			"created_at": "2025-03-12T00:00:00Z", "updated_at": "2025-03-12T00:00:00Z"}],`
	}

	cases := map[string]string{
		"billed without invoice id": header + entry("true", "") + invoice("e1") + footer,
		"invoice id without billed": header + entry("false", `"invoiceId": "INV-1", `) + invoice("e1") + footer,
		"bound but not a line item": header + entry("true", `"invoiceId": "INV-1", `) + invoice("other") + footer,
		"bound to unknown invoice":  header + entry("true", `"invoiceId": "INV-9", `) + invoice("e1") + footer,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.ImportBackup(ctx, strings.NewReader(doc))
			require.True(t, IsValidation(err), "import was accepted")
		})
	}

	// A consistent binding still imports.
	good := header + entry("true", `"invoiceId": "INV-1", `) + invoice("e1") + footer
	require.NoError(t, svc.ImportBackup(ctx, strings.NewReader(good)))
}

func TestSettingsSurviveBackup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateTaxSettings(ctx, UpdateTaxSettingsInput{
		Rate:      decimal.NewFromInt(19),
		Inclusive: true,
	})
	require.NoError(t, err)
	_, err = svc.UpdateCurrencySettings(ctx, UpdateCurrencySettingsInput{
		Default:         "EUR",
		InvoiceLanguage: "de",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBackup(ctx, &buf))

	restored := newTestService(t)
	require.NoError(t, restored.ImportBackup(ctx, &buf))

	tax, err := restored.TaxSettings(ctx)
	require.NoError(t, err)
	assert.True(t, tax.Rate.Equal(decimal.NewFromInt(19)))
	assert.True(t, tax.Inclusive)

	currency, err := restored.CurrencySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", currency.Default)
	assert.Equal(t, "de", currency.InvoiceLanguage)
}
