package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotalsExclusive(t *testing.T) {
	totals := ComputeTotals(decimal.NewFromInt(1000), decimal.NewFromInt(19), false)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(190)), "got %s", totals.Tax)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1190)), "got %s", totals.Total)
}

func TestComputeTotalsInclusive(t *testing.T) {
	totals := ComputeTotals(decimal.NewFromInt(1190), decimal.NewFromInt(19), true)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)), "got %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(190)), "got %s", totals.Tax)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1190)))
}

func TestComputeTotalsSumInvariant(t *testing.T) {
	// Subtotal plus tax equals total even when rounding kicks in.
	amounts := []string{"99.99", "0.01", "123.45", "1000", "33.33"}
	rates := []string{"7.7", "19", "25", "8.125"}

	for _, amount := range amounts {
		for _, rate := range rates {
			for _, inclusive := range []bool{false, true} {
				totals := ComputeTotals(decimal.RequireFromString(amount), decimal.RequireFromString(rate), inclusive)
				assert.True(t, totals.Subtotal.Add(totals.Tax).Equal(totals.Total),
					"amount=%s rate=%s inclusive=%v: %s + %s != %s",
					amount, rate, inclusive, totals.Subtotal, totals.Tax, totals.Total)
			}
		}
	}
}

func TestAggregateByCurrencyKeepsBucketsApart(t *testing.T) {
	got := AggregateByCurrency([]Money{
		{Currency: "USD", Amount: decimal.NewFromInt(100)},
		{Currency: "EUR", Amount: decimal.NewFromInt(50)},
		{Currency: "USD", Amount: decimal.NewFromInt(25)},
		{Currency: "GBP", Amount: decimal.NewFromInt(10)},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "EUR", got[0].Currency)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "GBP", got[1].Currency)
	assert.True(t, got[1].Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "USD", got[2].Currency)
	assert.True(t, got[2].Amount.Equal(decimal.NewFromInt(125)))
}

func TestOutstandingByCurrencySkipsPaid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")

	first := seedEntry(t, svc, project.ID, 1)
	second := seedEntry(t, svc, project.ID, 2)

	_, err := svc.CreateInvoice(ctx, client.ID, []string{first.ID}, nil)
	require.NoError(t, err)
	paid, err := svc.CreateInvoice(ctx, client.ID, []string{second.ID}, nil)
	require.NoError(t, err)
	_, err = svc.ToggleInvoicePaid(ctx, paid.ID)
	require.NoError(t, err)

	outstanding, err := svc.OutstandingByCurrency(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.True(t, outstanding[0].Amount.Equal(decimal.NewFromInt(100)), "got %s", outstanding[0].Amount)
}

func TestOverdueInvoicesDerivedFromDueDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	// Not yet due.
	overdue, err := svc.OverdueInvoices(ctx, invoice.DueDate.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// Past due and still a draft.
	overdue, err = svc.OverdueInvoices(ctx, invoice.DueDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	// Paying it clears the derived overdue state.
	_, err = svc.ToggleInvoicePaid(ctx, invoice.ID)
	require.NoError(t, err)
	overdue, err = svc.OverdueInvoices(ctx, invoice.DueDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestUnbilledByCurrency(t *testing.T) {
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

	seedEntry(t, svc, usdProject.ID, 2) // 200 USD
	seedEntry(t, svc, eurProject.ID, 1) // 90 EUR
	_, err = svc.CreateExpense(ctx, CreateExpenseInput{
		ProjectID:   usdProject.ID,
		Amount:      decimal.NewFromInt(30),
		Date:        time.Now(),
		Description: "domain",
		IsBillable:  true,
	})
	require.NoError(t, err)

	totals, err := svc.UnbilledByCurrency(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "EUR", totals[0].Currency)
	assert.True(t, totals[0].Amount.Equal(decimal.NewFromInt(90)), "got %s", totals[0].Amount)
	assert.Equal(t, "USD", totals[1].Currency)
	assert.True(t, totals[1].Amount.Equal(decimal.NewFromInt(230)), "got %s", totals[1].Amount)
}
