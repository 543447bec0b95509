package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Client struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	IsArchived bool      `json:"isArchived" db:"is_archived"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Project currency is fixed at creation; every time entry logged against the
// project is billed in this currency at the project's current rate.
type Project struct {
	ID         string          `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	ClientID   string          `json:"clientId" db:"client_id"`
	Rate       decimal.Decimal `json:"rate" db:"rate"`
	Currency   string          `json:"currency" db:"currency"`
	IsArchived bool            `json:"isArchived" db:"is_archived"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

type TimeEntry struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"projectId" db:"project_id"`
	StartTime   time.Time  `json:"start_time" db:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty" db:"end_time"`
	Description *string    `json:"description,omitempty" db:"description"`
	IsBilled    bool       `json:"isBilled" db:"is_billed"`
	InvoiceID   *string    `json:"invoiceId,omitempty" db:"invoice_id"`
	IsArchived  bool       `json:"isArchived" db:"is_archived"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Rate        decimal.Decimal `json:"-" db:"rate"`
	ProjectName string          `json:"-" db:"project_name"`
}

// Hours is derived from the entry's timestamps. An entry without an end time
// has zero billable hours and is never eligible for invoicing.
func (e *TimeEntry) Hours() float64 {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime).Hours()
}

type Expense struct {
	ID          string          `json:"id" db:"id"`
	ProjectID   string          `json:"projectId" db:"project_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Date        time.Time       `json:"date" db:"expense_date"`
	Description string          `json:"description" db:"description"`
	IsBillable  bool            `json:"isBillable" db:"is_billable"`
	IsBilled    bool            `json:"isBilled" db:"is_billed"`
	InvoiceID   *string         `json:"invoiceId,omitempty" db:"invoice_id"`
	IsArchived  bool            `json:"isArchived" db:"is_archived"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`

	ProjectName string `json:"-" db:"project_name"`
}

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "Draft"
	InvoicePaid    InvoiceStatus = "Paid"
	InvoiceOverdue InvoiceStatus = "Overdue"
)

// Valid reports whether the status may be stored. Overdue is derived from the
// due date and is never written.
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceDraft || s == InvoicePaid
}

type LineItemSource string

const (
	LineItemTime    LineItemSource = "time"
	LineItemExpense LineItemSource = "expense"
)

// LineItem is one priced row on an invoice. SourceType/SourceID identify the
// time entry or expense the row was derived from so the binding can be
// reversed when the invoice is deleted.
type LineItem struct {
	SourceType  LineItemSource  `json:"sourceType" db:"source_type"`
	SourceID    string          `json:"sourceId" db:"source_id"`
	Description string          `json:"description" db:"description"`
	Hours       float64         `json:"hours,omitempty" db:"hours"`
	Rate        decimal.Decimal `json:"rate" db:"rate"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
}

// Invoice is an immutable snapshot produced by the billing service. Only its
// status, archive flag and existence change after creation.
type Invoice struct {
	ID         string          `json:"id" db:"id"`
	ClientName string          `json:"clientName" db:"client_name"`
	IssueDate  time.Time       `json:"issueDate" db:"issue_date"`
	DueDate    time.Time       `json:"dueDate" db:"due_date"`
	Currency   string          `json:"currency" db:"currency"`
	Status     InvoiceStatus   `json:"status" db:"status"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Items      []LineItem      `json:"items"`
	IsArchived bool            `json:"isArchived" db:"is_archived"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// EffectiveStatus reports Overdue for a draft invoice past its due date.
// The stored status stays Draft so paid/unpaid toggling keeps working.
func (i *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceDraft && now.After(i.DueDate) {
		return InvoiceOverdue
	}
	return i.Status
}

type Frequency string

const (
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyAnnually  Frequency = "Annually"
)

func (f Frequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyQuarterly || f == FrequencyAnnually
}

// Months returns the length of one billing interval.
func (f Frequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyAnnually:
		return 12
	default:
		return 1
	}
}

type RecurringStatus string

const (
	RecurringActive RecurringStatus = "Active"
	RecurringPaid   RecurringStatus = "Paid"
)

// ProfileItem is a fixed line on a recurring profile, not derived from
// tracked work.
type ProfileItem struct {
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
}

type RecurringProfile struct {
	ID          string          `json:"id" db:"id"`
	ClientName  string          `json:"clientName" db:"client_name"`
	Frequency   Frequency       `json:"frequency" db:"frequency"`
	NextDueDate time.Time       `json:"nextDueDate" db:"next_due_date"`
	Currency    string          `json:"currency" db:"currency"`
	Status      RecurringStatus `json:"status" db:"status"`
	Items       []ProfileItem   `json:"items"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Amount is the sum of the profile's fixed line items.
func (p *RecurringProfile) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.Amount)
	}
	return total
}

type TaxSettings struct {
	Rate             decimal.Decimal `json:"rate" db:"rate"`
	Inclusive        bool            `json:"inclusive" db:"inclusive"`
	InternalCostRate decimal.Decimal `json:"internalCostRate" db:"internal_cost_rate"`
}

type CurrencySettings struct {
	Default         string `json:"default" db:"default_currency"`
	InvoiceLanguage string `json:"invoiceLanguage" db:"invoice_language"`
}

type BillableKind string

const (
	BillableTime    BillableKind = "time"
	BillableExpense BillableKind = "expense"
)

// BillableItem is the tagged variant over the two kinds of invoiceable work.
// Exactly one of Entry/Expense is set, matching Kind.
type BillableItem struct {
	Kind    BillableKind
	Entry   *TimeEntry
	Expense *Expense
}

func NewUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewInvoiceID returns an invoice identity in the INV-<uuid> form.
func NewInvoiceID() string {
	return "INV-" + NewUUID()
}
