package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freelanceflow/flow/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Totals is the tax breakdown of a single amount.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals applies the tax rate to an amount. With inclusive pricing
// the amount already contains the tax and is decomposed; with exclusive
// pricing the tax is added on top. Subtotal plus Tax always equals Total.
func ComputeTotals(amount, rate decimal.Decimal, inclusive bool) Totals {
	if inclusive {
		subtotal := amount.Mul(hundred).Div(hundred.Add(rate)).Round(2)
		return Totals{
			Subtotal: subtotal,
			Tax:      amount.Sub(subtotal),
			Total:    amount,
		}
	}
	tax := amount.Mul(rate).Div(hundred).Round(2)
	return Totals{
		Subtotal: amount,
		Tax:      tax,
		Total:    amount.Add(tax),
	}
}

// Money is an amount in a single currency. Amounts in different currencies
// are never combined or converted.
type Money struct {
	Currency string
	Amount   decimal.Decimal
}

// AggregateByCurrency sums amounts into one bucket per currency, returned
// in currency order.
func AggregateByCurrency(amounts []Money) []Money {
	buckets := make(map[string]decimal.Decimal)
	for _, m := range amounts {
		buckets[m.Currency] = buckets[m.Currency].Add(m.Amount)
	}
	out := make([]Money, 0, len(buckets))
	for currency, amount := range buckets {
		out = append(out, Money{Currency: currency, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// OutstandingByCurrency totals unpaid, unarchived invoices per currency.
func (s *BillingService) OutstandingByCurrency(ctx context.Context) ([]Money, error) {
	invoices, err := s.store.ListInvoices(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	var amounts []Money
	for _, invoice := range invoices {
		if invoice.Status == models.InvoicePaid {
			continue
		}
		amounts = append(amounts, Money{Currency: invoice.Currency, Amount: invoice.Amount})
	}
	return AggregateByCurrency(amounts), nil
}

// PaidByCurrency totals invoices paid in the given year per currency.
func (s *BillingService) PaidByCurrency(ctx context.Context, year int) ([]Money, error) {
	invoices, err := s.store.ListInvoices(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	var amounts []Money
	for _, invoice := range invoices {
		if invoice.Status != models.InvoicePaid || invoice.IssueDate.Year() != year {
			continue
		}
		amounts = append(amounts, Money{Currency: invoice.Currency, Amount: invoice.Amount})
	}
	return AggregateByCurrency(amounts), nil
}

// UnbilledByCurrency totals a client's uninvoiced work per currency: hours
// priced at each project's rate plus billable expenses.
func (s *BillingService) UnbilledByCurrency(ctx context.Context, clientID string) ([]Money, error) {
	items, err := s.FindBillable(ctx, clientID, "")
	if err != nil {
		return nil, err
	}
	var amounts []Money
	for _, entry := range items.Entries {
		project, err := s.GetProject(ctx, entry.ProjectID)
		if err != nil {
			return nil, err
		}
		amount := project.Rate.Mul(decimal.NewFromFloat(entry.Hours()))
		amounts = append(amounts, Money{Currency: project.Currency, Amount: amount})
	}
	for _, expense := range items.Expenses {
		project, err := s.GetProject(ctx, expense.ProjectID)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, Money{Currency: project.Currency, Amount: expense.Amount})
	}
	return AggregateByCurrency(amounts), nil
}

// InvoiceTotals applies the configured tax settings to an invoice amount.
func (s *BillingService) InvoiceTotals(ctx context.Context, invoice *models.Invoice) (Totals, error) {
	tax, err := s.store.GetTaxSettings(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to read tax settings: %w", err)
	}
	return ComputeTotals(invoice.Amount, tax.Rate, tax.Inclusive), nil
}

// OverdueInvoices lists unarchived invoices whose effective status is
// Overdue as of now.
func (s *BillingService) OverdueInvoices(ctx context.Context, now time.Time) ([]*models.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	var out []*models.Invoice
	for _, invoice := range invoices {
		if invoice.EffectiveStatus(now) == models.InvoiceOverdue {
			out = append(out, invoice)
		}
	}
	return out, nil
}
