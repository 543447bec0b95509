package database

import (
	"context"
	"errors"

	"github.com/freelanceflow/flow/internal/models"
)

// ErrNotFound is returned for lookups of missing identities.
var ErrNotFound = errors.New("not found")

// ErrAlreadyBilled is returned by CreateInvoice when a selected item turned
// out to be bound to another invoice at commit time. The transaction is
// rolled back in full.
var ErrAlreadyBilled = errors.New("item already billed")

// Store is the entity repository port. Implementations must apply
// CreateInvoice and DeleteInvoice as single atomic units: the invoice write
// and the billed-state of its source items are never observable separately.
type Store interface {
	Close() error

	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetClientByName(ctx context.Context, name string) (*models.Client, error)
	ListClients(ctx context.Context, includeArchived bool) ([]*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id string) error

	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error)
	ListProjectsByClient(ctx context.Context, clientID string, includeArchived bool) ([]*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	CreateTimeEntry(ctx context.Context, entry *models.TimeEntry) error
	GetTimeEntry(ctx context.Context, id string) (*models.TimeEntry, error)
	GetActiveTimeEntry(ctx context.Context) (*models.TimeEntry, error)
	ListTimeEntries(ctx context.Context) ([]*models.TimeEntry, error)
	ListTimeEntriesByProject(ctx context.Context, projectID string) ([]*models.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, entry *models.TimeEntry) error
	DeleteTimeEntry(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context) ([]*models.Expense, error)
	ListExpensesByProject(ctx context.Context, projectID string) ([]*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	// CreateInvoice stores the invoice and binds every listed entry and
	// expense (isBilled=true, invoiceId set) in one transaction.
	CreateInvoice(ctx context.Context, invoice *models.Invoice, entryIDs, expenseIDs []string) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, includeArchived bool) ([]*models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *models.Invoice) error
	// DeleteInvoice unbinds every item referencing the invoice and removes
	// the record in one transaction.
	DeleteInvoice(ctx context.Context, id string) error

	CreateRecurringProfile(ctx context.Context, profile *models.RecurringProfile) error
	GetRecurringProfile(ctx context.Context, id string) (*models.RecurringProfile, error)
	ListRecurringProfiles(ctx context.Context) ([]*models.RecurringProfile, error)
	UpdateRecurringProfile(ctx context.Context, profile *models.RecurringProfile) error
	DeleteRecurringProfile(ctx context.Context, id string) error

	GetTaxSettings(ctx context.Context) (*models.TaxSettings, error)
	SaveTaxSettings(ctx context.Context, settings *models.TaxSettings) error
	GetCurrencySettings(ctx context.Context) (*models.CurrencySettings, error)
	SaveCurrencySettings(ctx context.Context, settings *models.CurrencySettings) error

	// ExportData snapshots the whole dataset; ImportData replaces it
	// atomically.
	ExportData(ctx context.Context) (*models.Dataset, error)
	ImportData(ctx context.Context, data *models.Dataset) error
}
