package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freelanceflow/flow/internal/models"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	client_id TEXT NOT NULL REFERENCES clients(id),
	rate TEXT NOT NULL,
	currency TEXT NOT NULL,
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS time_entries (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	start_time TIMESTAMP NOT NULL,
	end_time TIMESTAMP,
	description TEXT,
	is_billed INTEGER NOT NULL DEFAULT 0,
	invoice_id TEXT,
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	amount TEXT NOT NULL,
	expense_date TIMESTAMP NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_billable INTEGER NOT NULL DEFAULT 1,
	is_billed INTEGER NOT NULL DEFAULT 0,
	invoice_id TEXT,
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	client_name TEXT NOT NULL,
	issue_date TIMESTAMP NOT NULL,
	due_date TIMESTAMP NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	amount TEXT NOT NULL,
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_items (
	invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	source_type TEXT NOT NULL,
	source_id TEXT NOT NULL,
	description TEXT NOT NULL,
	hours REAL NOT NULL DEFAULT 0,
	rate TEXT NOT NULL,
	amount TEXT NOT NULL,
	PRIMARY KEY (invoice_id, position)
);

CREATE TABLE IF NOT EXISTS recurring_profiles (
	id TEXT PRIMARY KEY,
	client_name TEXT NOT NULL,
	frequency TEXT NOT NULL,
	next_due_date TIMESTAMP NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS recurring_items (
	profile_id TEXT NOT NULL REFERENCES recurring_profiles(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	description TEXT NOT NULL,
	amount TEXT NOT NULL,
	PRIMARY KEY (profile_id, position)
);

CREATE TABLE IF NOT EXISTS tax_settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	rate TEXT NOT NULL,
	inclusive INTEGER NOT NULL DEFAULT 0,
	internal_cost_rate TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS currency_settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	default_currency TEXT NOT NULL,
	invoice_language TEXT NOT NULL
);

INSERT OR IGNORE INTO tax_settings (id, rate, inclusive, internal_cost_rate) VALUES (1, '25', 0, '0');
INSERT OR IGNORE INTO currency_settings (id, default_currency, invoice_language) VALUES (1, 'USD', 'en');
`

// SQLiteStore implements Store over database/sql. The driver is selected at
// open time so the same code serves a local sqlite3 file and a remote libsql
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and applies the schema. Local sqlite3
// connections get WAL journaling and foreign keys enabled through the DSN.
func NewSQLiteStore(driver, dsn string) (*SQLiteStore, error) {
	if driver == "sqlite3" && !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_journal_mode=WAL"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullTimeToPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func nullStringToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func ptrToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func ptrToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func scanDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal %q: %w", raw, err)
	}
	return d, nil
}

func (s *SQLiteStore) CreateClient(ctx context.Context, client *models.Client) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, email, is_archived, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		client.ID, client.Name, client.Email, client.IsArchived, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func scanClient(row interface{ Scan(...any) error }) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_archived, created_at, updated_at FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

func (s *SQLiteStore) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_archived, created_at, updated_at FROM clients WHERE name = ?`, name)
	return scanClient(row)
}

func (s *SQLiteStore) ListClients(ctx context.Context, includeArchived bool) ([]*models.Client, error) {
	query := `SELECT id, name, email, is_archived, created_at, updated_at FROM clients`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()
	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateClient(ctx context.Context, client *models.Client) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, email = ?, is_archived = ?, updated_at = ? WHERE id = ?`,
		client.Name, client.Email, client.IsArchived, client.UpdatedAt, client.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateProject(ctx context.Context, project *models.Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, client_id, rate, currency, is_archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.ClientID, project.Rate.String(), project.Currency,
		project.IsArchived, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	var rate string
	if err := row.Scan(&p.ID, &p.Name, &p.ClientID, &rate, &p.Currency, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	var err error
	if p.Rate, err = scanDecimal(rate); err != nil {
		return nil, err
	}
	return &p, nil
}

const projectColumns = `id, name, client_id, rate, currency, is_archived, created_at, updated_at`

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *SQLiteStore) listProjects(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()
	var out []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	return s.listProjects(ctx, query+` ORDER BY name`)
}

func (s *SQLiteStore) ListProjectsByClient(ctx context.Context, clientID string, includeArchived bool) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE client_id = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	return s.listProjects(ctx, query+` ORDER BY name`, clientID)
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, project *models.Project) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, client_id = ?, rate = ?, currency = ?, is_archived = ?, updated_at = ? WHERE id = ?`,
		project.Name, project.ClientID, project.Rate.String(), project.Currency,
		project.IsArchived, project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireRow(res)
}

// Time entry queries join projects so listings carry the rate and project
// name the billing paths need without a second round trip.
const entryColumns = `e.id, e.project_id, e.start_time, e.end_time, e.description,
	e.is_billed, e.invoice_id, e.is_archived, e.created_at, e.updated_at, p.rate, p.name`

func (s *SQLiteStore) CreateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_entries (id, project_id, start_time, end_time, description, is_billed, invoice_id, is_archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ProjectID, entry.StartTime, ptrToNullTime(entry.EndTime),
		ptrToNullString(entry.Description), entry.IsBilled, ptrToNullString(entry.InvoiceID),
		entry.IsArchived, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create time entry: %w", err)
	}
	return nil
}

func scanTimeEntry(row interface{ Scan(...any) error }) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var endTime sql.NullTime
	var description, invoiceID sql.NullString
	var rate string
	if err := row.Scan(&e.ID, &e.ProjectID, &e.StartTime, &endTime, &description,
		&e.IsBilled, &invoiceID, &e.IsArchived, &e.CreatedAt, &e.UpdatedAt, &rate, &e.ProjectName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan time entry: %w", err)
	}
	e.EndTime = nullTimeToPtr(endTime)
	e.Description = nullStringToPtr(description)
	e.InvoiceID = nullStringToPtr(invoiceID)
	var err error
	if e.Rate, err = scanDecimal(rate); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) GetTimeEntry(ctx context.Context, id string) (*models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries e JOIN projects p ON p.id = e.project_id WHERE e.id = ?`, id)
	return scanTimeEntry(row)
}

func (s *SQLiteStore) GetActiveTimeEntry(ctx context.Context) (*models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries e JOIN projects p ON p.id = e.project_id
		 WHERE e.end_time IS NULL AND e.is_archived = 0 ORDER BY e.start_time DESC LIMIT 1`)
	return scanTimeEntry(row)
}

func (s *SQLiteStore) listTimeEntries(ctx context.Context, query string, args ...any) ([]*models.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()
	var out []*models.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListTimeEntries(ctx context.Context) ([]*models.TimeEntry, error) {
	return s.listTimeEntries(ctx,
		`SELECT `+entryColumns+` FROM time_entries e JOIN projects p ON p.id = e.project_id ORDER BY e.start_time`)
}

func (s *SQLiteStore) ListTimeEntriesByProject(ctx context.Context, projectID string) ([]*models.TimeEntry, error) {
	return s.listTimeEntries(ctx,
		`SELECT `+entryColumns+` FROM time_entries e JOIN projects p ON p.id = e.project_id
		 WHERE e.project_id = ? ORDER BY e.start_time`, projectID)
}

func (s *SQLiteStore) UpdateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE time_entries SET project_id = ?, start_time = ?, end_time = ?, description = ?,
		 is_billed = ?, invoice_id = ?, is_archived = ?, updated_at = ? WHERE id = ?`,
		entry.ProjectID, entry.StartTime, ptrToNullTime(entry.EndTime), ptrToNullString(entry.Description),
		entry.IsBilled, ptrToNullString(entry.InvoiceID), entry.IsArchived, entry.UpdatedAt, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteTimeEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	return requireRow(res)
}

const expenseColumns = `e.id, e.project_id, e.amount, e.expense_date, e.description,
	e.is_billable, e.is_billed, e.invoice_id, e.is_archived, e.created_at, e.updated_at, p.name`

func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, project_id, amount, expense_date, description, is_billable, is_billed, invoice_id, is_archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.ProjectID, expense.Amount.String(), expense.Date, expense.Description,
		expense.IsBillable, expense.IsBilled, ptrToNullString(expense.InvoiceID),
		expense.IsArchived, expense.CreatedAt, expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	var e models.Expense
	var amount string
	var invoiceID sql.NullString
	if err := row.Scan(&e.ID, &e.ProjectID, &amount, &e.Date, &e.Description,
		&e.IsBillable, &e.IsBilled, &invoiceID, &e.IsArchived, &e.CreatedAt, &e.UpdatedAt, &e.ProjectName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}
	e.InvoiceID = nullStringToPtr(invoiceID)
	var err error
	if e.Amount, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses e JOIN projects p ON p.id = e.project_id WHERE e.id = ?`, id)
	return scanExpense(row)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()
	var out []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses e JOIN projects p ON p.id = e.project_id ORDER BY e.expense_date`)
}

func (s *SQLiteStore) ListExpensesByProject(ctx context.Context, projectID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses e JOIN projects p ON p.id = e.project_id
		 WHERE e.project_id = ? ORDER BY e.expense_date`, projectID)
}

func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET project_id = ?, amount = ?, expense_date = ?, description = ?,
		 is_billable = ?, is_billed = ?, invoice_id = ?, is_archived = ?, updated_at = ? WHERE id = ?`,
		expense.ProjectID, expense.Amount.String(), expense.Date, expense.Description,
		expense.IsBillable, expense.IsBilled, ptrToNullString(expense.InvoiceID),
		expense.IsArchived, expense.UpdatedAt, expense.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireRow(res)
}

// CreateInvoice writes the invoice, its line items and the billed-state of
// every source item in one transaction. The conditional updates guard
// against a concurrent invoice claiming the same item: zero rows affected
// on an existing row means it is already billed, and the whole transaction
// rolls back.
func (s *SQLiteStore) CreateInvoice(ctx context.Context, invoice *models.Invoice, entryIDs, expenseIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (id, client_name, issue_date, due_date, currency, status, amount, is_archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID, invoice.ClientName, invoice.IssueDate, invoice.DueDate, invoice.Currency,
		invoice.Status, invoice.Amount.String(), invoice.IsArchived, invoice.CreatedAt, invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i, item := range invoice.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_items (invoice_id, position, source_type, source_id, description, hours, rate, amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			invoice.ID, i, item.SourceType, item.SourceID, item.Description,
			item.Hours, item.Rate.String(), item.Amount.String())
		if err != nil {
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}

	for _, id := range entryIDs {
		if err := bindRow(ctx, tx, "time_entries", id, invoice.ID); err != nil {
			return err
		}
	}
	for _, id := range expenseIDs {
		if err := bindRow(ctx, tx, "expenses", id, invoice.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}
	return nil
}

func bindRow(ctx context.Context, tx *sql.Tx, table, id, invoiceID string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET is_billed = 1, invoice_id = ? WHERE id = ? AND is_billed = 0`,
		invoiceID, id)
	if err != nil {
		return fmt.Errorf("failed to bind %s row: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s row: %w", table, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrAlreadyBilled
}

func scanInvoiceRow(row interface{ Scan(...any) error }) (*models.Invoice, error) {
	var inv models.Invoice
	var amount string
	if err := row.Scan(&inv.ID, &inv.ClientName, &inv.IssueDate, &inv.DueDate, &inv.Currency,
		&inv.Status, &amount, &inv.IsArchived, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	var err error
	if inv.Amount, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *SQLiteStore) loadInvoiceItems(ctx context.Context, inv *models.Invoice) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_type, source_id, description, hours, rate, amount
		 FROM invoice_items WHERE invoice_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to load invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item models.LineItem
		var rate, amount string
		if err := rows.Scan(&item.SourceType, &item.SourceID, &item.Description, &item.Hours, &rate, &amount); err != nil {
			return fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if item.Rate, err = scanDecimal(rate); err != nil {
			return err
		}
		if item.Amount, err = scanDecimal(amount); err != nil {
			return err
		}
		inv.Items = append(inv.Items, item)
	}
	return rows.Err()
}

const invoiceColumns = `id, client_name, issue_date, due_date, currency, status, amount, is_archived, created_at, updated_at`

func (s *SQLiteStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoiceRow(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadInvoiceItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *SQLiteStore) ListInvoices(ctx context.Context, includeArchived bool) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY issue_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()
	var out []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, inv := range out {
		if err := s.loadInvoiceItems(ctx, inv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, is_archived = ?, updated_at = ? WHERE id = ?`,
		invoice.Status, invoice.IsArchived, invoice.UpdatedAt, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return requireRow(res)
}

// DeleteInvoice releases every bound item and removes the invoice in one
// transaction so deletion can never leave an item pointing at a missing
// invoice.
func (s *SQLiteStore) DeleteInvoice(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"time_entries", "expenses"} {
		_, err = tx.ExecContext(ctx,
			`UPDATE `+table+` SET is_billed = 0, invoice_id = NULL WHERE invoice_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to unbind %s rows: %w", table, err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice deletion: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateRecurringProfile(ctx context.Context, profile *models.RecurringProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO recurring_profiles (id, client_name, frequency, next_due_date, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.ClientName, profile.Frequency, profile.NextDueDate,
		profile.Currency, profile.Status, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recurring profile: %w", err)
	}
	if err := insertProfileItems(ctx, tx, profile); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recurring profile: %w", err)
	}
	return nil
}

func insertProfileItems(ctx context.Context, tx *sql.Tx, profile *models.RecurringProfile) error {
	for i, item := range profile.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_items (profile_id, position, description, amount) VALUES (?, ?, ?, ?)`,
			profile.ID, i, item.Description, item.Amount.String())
		if err != nil {
			return fmt.Errorf("failed to insert recurring item: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadProfileItems(ctx context.Context, profile *models.RecurringProfile) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, amount FROM recurring_items WHERE profile_id = ? ORDER BY position`, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to load recurring items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item models.ProfileItem
		var amount string
		if err := rows.Scan(&item.Description, &amount); err != nil {
			return fmt.Errorf("failed to scan recurring item: %w", err)
		}
		if item.Amount, err = scanDecimal(amount); err != nil {
			return err
		}
		profile.Items = append(profile.Items, item)
	}
	return rows.Err()
}

const profileColumns = `id, client_name, frequency, next_due_date, currency, status, created_at, updated_at`

func scanProfileRow(row interface{ Scan(...any) error }) (*models.RecurringProfile, error) {
	var p models.RecurringProfile
	if err := row.Scan(&p.ID, &p.ClientName, &p.Frequency, &p.NextDueDate, &p.Currency,
		&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan recurring profile: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) GetRecurringProfile(ctx context.Context, id string) (*models.RecurringProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM recurring_profiles WHERE id = ?`, id)
	p, err := scanProfileRow(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadProfileItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) ListRecurringProfiles(ctx context.Context) ([]*models.RecurringProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM recurring_profiles ORDER BY next_due_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring profiles: %w", err)
	}
	defer rows.Close()
	var out []*models.RecurringProfile
	for rows.Next() {
		p, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range out {
		if err := s.loadProfileItems(ctx, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateRecurringProfile(ctx context.Context, profile *models.RecurringProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_profiles SET client_name = ?, frequency = ?, next_due_date = ?, currency = ?, status = ?, updated_at = ? WHERE id = ?`,
		profile.ClientName, profile.Frequency, profile.NextDueDate, profile.Currency,
		profile.Status, profile.UpdatedAt, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update recurring profile: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recurring_items WHERE profile_id = ?`, profile.ID); err != nil {
		return fmt.Errorf("failed to clear recurring items: %w", err)
	}
	if err := insertProfileItems(ctx, tx, profile); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recurring profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRecurringProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurring profile: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) GetTaxSettings(ctx context.Context) (*models.TaxSettings, error) {
	var t models.TaxSettings
	var rate, costRate string
	err := s.db.QueryRowContext(ctx,
		`SELECT rate, inclusive, internal_cost_rate FROM tax_settings WHERE id = 1`).
		Scan(&rate, &t.Inclusive, &costRate)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax settings: %w", err)
	}
	if t.Rate, err = scanDecimal(rate); err != nil {
		return nil, err
	}
	if t.InternalCostRate, err = scanDecimal(costRate); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) SaveTaxSettings(ctx context.Context, settings *models.TaxSettings) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tax_settings SET rate = ?, inclusive = ?, internal_cost_rate = ? WHERE id = 1`,
		settings.Rate.String(), settings.Inclusive, settings.InternalCostRate.String())
	if err != nil {
		return fmt.Errorf("failed to save tax settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCurrencySettings(ctx context.Context) (*models.CurrencySettings, error) {
	var c models.CurrencySettings
	err := s.db.QueryRowContext(ctx,
		`SELECT default_currency, invoice_language FROM currency_settings WHERE id = 1`).
		Scan(&c.Default, &c.InvoiceLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to read currency settings: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) SaveCurrencySettings(ctx context.Context, settings *models.CurrencySettings) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE currency_settings SET default_currency = ?, invoice_language = ? WHERE id = 1`,
		settings.Default, settings.InvoiceLanguage)
	if err != nil {
		return fmt.Errorf("failed to save currency settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ExportData(ctx context.Context) (*models.Dataset, error) {
	data := &models.Dataset{}
	var err error
	if data.Clients, err = s.ListClients(ctx, true); err != nil {
		return nil, err
	}
	if data.Projects, err = s.ListProjects(ctx, true); err != nil {
		return nil, err
	}
	if data.TimeEntries, err = s.ListTimeEntries(ctx); err != nil {
		return nil, err
	}
	if data.Expenses, err = s.ListExpenses(ctx); err != nil {
		return nil, err
	}
	if data.Invoices, err = s.ListInvoices(ctx, true); err != nil {
		return nil, err
	}
	if data.RecurringProfiles, err = s.ListRecurringProfiles(ctx); err != nil {
		return nil, err
	}
	tax, err := s.GetTaxSettings(ctx)
	if err != nil {
		return nil, err
	}
	data.TaxSettings = *tax
	currency, err := s.GetCurrencySettings(ctx)
	if err != nil {
		return nil, err
	}
	data.CurrencySettings = *currency
	return data, nil
}

// ImportData replaces the whole dataset in one transaction. A failed import
// leaves the previous data untouched.
func (s *SQLiteStore) ImportData(ctx context.Context, data *models.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []string{"recurring_items", "recurring_profiles", "invoice_items", "invoices",
		"expenses", "time_entries", "projects", "clients"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range data.Clients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clients (id, name, email, is_archived, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Email, c.IsArchived, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import client: %w", err)
		}
	}
	for _, p := range data.Projects {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, name, client_id, rate, currency, is_archived, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.ClientID, p.Rate.String(), p.Currency, p.IsArchived, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import project: %w", err)
		}
	}
	for _, e := range data.TimeEntries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO time_entries (id, project_id, start_time, end_time, description, is_billed, invoice_id, is_archived, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.ProjectID, e.StartTime, ptrToNullTime(e.EndTime), ptrToNullString(e.Description),
			e.IsBilled, ptrToNullString(e.InvoiceID), e.IsArchived, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import time entry: %w", err)
		}
	}
	for _, e := range data.Expenses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, project_id, amount, expense_date, description, is_billable, is_billed, invoice_id, is_archived, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.ProjectID, e.Amount.String(), e.Date, e.Description, e.IsBillable, e.IsBilled,
			ptrToNullString(e.InvoiceID), e.IsArchived, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import expense: %w", err)
		}
	}
	for _, inv := range data.Invoices {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (id, client_name, issue_date, due_date, currency, status, amount, is_archived, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.ClientName, inv.IssueDate, inv.DueDate, inv.Currency, inv.Status,
			inv.Amount.String(), inv.IsArchived, inv.CreatedAt, inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import invoice: %w", err)
		}
		for i, item := range inv.Items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO invoice_items (invoice_id, position, source_type, source_id, description, hours, rate, amount)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				inv.ID, i, item.SourceType, item.SourceID, item.Description, item.Hours,
				item.Rate.String(), item.Amount.String())
			if err != nil {
				return fmt.Errorf("failed to import invoice item: %w", err)
			}
		}
	}
	for _, p := range data.RecurringProfiles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_profiles (id, client_name, frequency, next_due_date, currency, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ClientName, p.Frequency, p.NextDueDate, p.Currency, p.Status, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import recurring profile: %w", err)
		}
		if err := insertProfileItems(ctx, tx, p); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tax_settings SET rate = ?, inclusive = ?, internal_cost_rate = ? WHERE id = 1`,
		data.TaxSettings.Rate.String(), data.TaxSettings.Inclusive, data.TaxSettings.InternalCostRate.String())
	if err != nil {
		return fmt.Errorf("failed to import tax settings: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE currency_settings SET default_currency = ?, invoice_language = ? WHERE id = 1`,
		data.CurrencySettings.Default, data.CurrencySettings.InvoiceLanguage)
	if err != nil {
		return fmt.Errorf("failed to import currency settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}
