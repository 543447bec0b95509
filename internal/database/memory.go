package database

import (
	"context"
	"sort"
	"sync"

	"github.com/freelanceflow/flow/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory Store used by tests and as the zero-config
// fallback. Every operation copies on the way in and out so callers never
// share state with the store, and the invoice create/delete units are
// applied under one lock to keep the billed-state atomic.
type MemoryStore struct {
	mu sync.RWMutex

	clients  map[string]*models.Client
	projects map[string]*models.Project
	entries  map[string]*models.TimeEntry
	expenses map[string]*models.Expense
	invoices map[string]*models.Invoice
	profiles map[string]*models.RecurringProfile

	tax      models.TaxSettings
	currency models.CurrencySettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:  make(map[string]*models.Client),
		projects: make(map[string]*models.Project),
		entries:  make(map[string]*models.TimeEntry),
		expenses: make(map[string]*models.Expense),
		invoices: make(map[string]*models.Invoice),
		profiles: make(map[string]*models.RecurringProfile),
		tax:      models.TaxSettings{Rate: decimal.NewFromInt(25)},
		currency: models.CurrencySettings{Default: "USD", InvoiceLanguage: "en"},
	}
}

func (s *MemoryStore) Close() error { return nil }

func cloneClient(c *models.Client) *models.Client {
	out := *c
	return &out
}

func cloneProject(p *models.Project) *models.Project {
	out := *p
	return &out
}

func cloneEntry(e *models.TimeEntry) *models.TimeEntry {
	out := *e
	if e.EndTime != nil {
		t := *e.EndTime
		out.EndTime = &t
	}
	if e.Description != nil {
		d := *e.Description
		out.Description = &d
	}
	if e.InvoiceID != nil {
		id := *e.InvoiceID
		out.InvoiceID = &id
	}
	return &out
}

// readEntry copies an entry and fills the display fields from its project,
// matching what the SQL store's join produces.
func (s *MemoryStore) readEntry(e *models.TimeEntry) *models.TimeEntry {
	out := cloneEntry(e)
	if p, ok := s.projects[e.ProjectID]; ok {
		out.Rate = p.Rate
		out.ProjectName = p.Name
	}
	return out
}

func (s *MemoryStore) readExpense(e *models.Expense) *models.Expense {
	out := cloneExpense(e)
	if p, ok := s.projects[e.ProjectID]; ok {
		out.ProjectName = p.Name
	}
	return out
}

func cloneExpense(e *models.Expense) *models.Expense {
	out := *e
	if e.InvoiceID != nil {
		id := *e.InvoiceID
		out.InvoiceID = &id
	}
	return &out
}

func cloneInvoice(i *models.Invoice) *models.Invoice {
	out := *i
	out.Items = append([]models.LineItem(nil), i.Items...)
	return &out
}

func cloneProfile(p *models.RecurringProfile) *models.RecurringProfile {
	out := *p
	out.Items = append([]models.ProfileItem(nil), p.Items...)
	return &out
}

func (s *MemoryStore) CreateClient(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = cloneClient(client)
	return nil
}

func (s *MemoryStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneClient(c), nil
}

func (s *MemoryStore) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.Name == name {
			return cloneClient(c), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListClients(ctx context.Context, includeArchived bool) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Client
	for _, c := range s.clients {
		if !includeArchived && c.IsArchived {
			continue
		}
		out = append(out, cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateClient(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return ErrNotFound
	}
	s.clients[client.ID] = cloneClient(client)
	return nil
}

func (s *MemoryStore) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *MemoryStore) CreateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = cloneProject(project)
	return nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *MemoryStore) ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Project
	for _, p := range s.projects {
		if !includeArchived && p.IsArchived {
			continue
		}
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListProjectsByClient(ctx context.Context, clientID string, includeArchived bool) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Project
	for _, p := range s.projects {
		if p.ClientID != clientID {
			continue
		}
		if !includeArchived && p.IsArchived {
			continue
		}
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return ErrNotFound
	}
	s.projects[project.ID] = cloneProject(project)
	return nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) CreateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) GetTimeEntry(ctx context.Context, id string) (*models.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.readEntry(e), nil
}

func (s *MemoryStore) GetActiveTimeEntry(ctx context.Context) (*models.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.EndTime == nil && !e.IsArchived {
			return s.readEntry(e), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListTimeEntries(ctx context.Context) ([]*models.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TimeEntry
	for _, e := range s.entries {
		out = append(out, s.readEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) ListTimeEntriesByProject(ctx context.Context, projectID string) ([]*models.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TimeEntry
	for _, e := range s.entries {
		if e.ProjectID == projectID {
			out = append(out, s.readEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) UpdateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return ErrNotFound
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) DeleteTimeEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (s *MemoryStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.readExpense(e), nil
}

func (s *MemoryStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Expense
	for _, e := range s.expenses {
		out = append(out, s.readExpense(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) ListExpensesByProject(ctx context.Context, projectID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Expense
	for _, e := range s.expenses {
		if e.ProjectID == projectID {
			out = append(out, s.readExpense(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[expense.ID]; !ok {
		return ErrNotFound
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (s *MemoryStore) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *MemoryStore) CreateInvoice(ctx context.Context, invoice *models.Invoice, entryIDs, expenseIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole binding before touching anything so a conflict
	// leaves no partial writes.
	for _, id := range entryIDs {
		e, ok := s.entries[id]
		if !ok {
			return ErrNotFound
		}
		if e.IsBilled {
			return ErrAlreadyBilled
		}
	}
	for _, id := range expenseIDs {
		e, ok := s.expenses[id]
		if !ok {
			return ErrNotFound
		}
		if e.IsBilled {
			return ErrAlreadyBilled
		}
	}

	s.invoices[invoice.ID] = cloneInvoice(invoice)
	for _, id := range entryIDs {
		invID := invoice.ID
		s.entries[id].IsBilled = true
		s.entries[id].InvoiceID = &invID
	}
	for _, id := range expenseIDs {
		invID := invoice.ID
		s.expenses[id].IsBilled = true
		s.expenses[id].InvoiceID = &invID
	}
	return nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context, includeArchived bool) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invoice
	for _, inv := range s.invoices {
		if !includeArchived && inv.IsArchived {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.Before(out[j].IssueDate) })
	return out, nil
}

func (s *MemoryStore) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[invoice.ID]; !ok {
		return ErrNotFound
	}
	s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (s *MemoryStore) DeleteInvoice(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return ErrNotFound
	}
	for _, e := range s.entries {
		if e.InvoiceID != nil && *e.InvoiceID == id {
			e.IsBilled = false
			e.InvoiceID = nil
		}
	}
	for _, e := range s.expenses {
		if e.InvoiceID != nil && *e.InvoiceID == id {
			e.IsBilled = false
			e.InvoiceID = nil
		}
	}
	delete(s.invoices, id)
	return nil
}

func (s *MemoryStore) CreateRecurringProfile(ctx context.Context, profile *models.RecurringProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (s *MemoryStore) GetRecurringProfile(ctx context.Context, id string) (*models.RecurringProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) ListRecurringProfiles(ctx context.Context) ([]*models.RecurringProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RecurringProfile
	for _, p := range s.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out, nil
}

func (s *MemoryStore) UpdateRecurringProfile(ctx context.Context, profile *models.RecurringProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return ErrNotFound
	}
	s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (s *MemoryStore) DeleteRecurringProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *MemoryStore) GetTaxSettings(ctx context.Context) (*models.TaxSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.tax
	return &out, nil
}

func (s *MemoryStore) SaveTaxSettings(ctx context.Context, settings *models.TaxSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tax = *settings
	return nil
}

func (s *MemoryStore) GetCurrencySettings(ctx context.Context) (*models.CurrencySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.currency
	return &out, nil
}

func (s *MemoryStore) SaveCurrencySettings(ctx context.Context, settings *models.CurrencySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = *settings
	return nil
}

func (s *MemoryStore) ExportData(ctx context.Context) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := &models.Dataset{
		TaxSettings:      s.tax,
		CurrencySettings: s.currency,
	}
	for _, c := range s.clients {
		data.Clients = append(data.Clients, cloneClient(c))
	}
	for _, p := range s.projects {
		data.Projects = append(data.Projects, cloneProject(p))
	}
	for _, e := range s.entries {
		data.TimeEntries = append(data.TimeEntries, cloneEntry(e))
	}
	for _, e := range s.expenses {
		data.Expenses = append(data.Expenses, cloneExpense(e))
	}
	for _, inv := range s.invoices {
		data.Invoices = append(data.Invoices, cloneInvoice(inv))
	}
	for _, p := range s.profiles {
		data.RecurringProfiles = append(data.RecurringProfiles, cloneProfile(p))
	}
	sort.Slice(data.Clients, func(i, j int) bool { return data.Clients[i].Name < data.Clients[j].Name })
	sort.Slice(data.Projects, func(i, j int) bool { return data.Projects[i].Name < data.Projects[j].Name })
	return data, nil
}

func (s *MemoryStore) ImportData(ctx context.Context, data *models.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = make(map[string]*models.Client)
	s.projects = make(map[string]*models.Project)
	s.entries = make(map[string]*models.TimeEntry)
	s.expenses = make(map[string]*models.Expense)
	s.invoices = make(map[string]*models.Invoice)
	s.profiles = make(map[string]*models.RecurringProfile)

	for _, c := range data.Clients {
		s.clients[c.ID] = cloneClient(c)
	}
	for _, p := range data.Projects {
		s.projects[p.ID] = cloneProject(p)
	}
	for _, e := range data.TimeEntries {
		s.entries[e.ID] = cloneEntry(e)
	}
	for _, e := range data.Expenses {
		s.expenses[e.ID] = cloneExpense(e)
	}
	for _, inv := range data.Invoices {
		s.invoices[inv.ID] = cloneInvoice(inv)
	}
	for _, p := range data.RecurringProfiles {
		s.profiles[p.ID] = cloneProfile(p)
	}
	s.tax = data.TaxSettings
	s.currency = data.CurrencySettings
	return nil
}
