package models

// Dataset is the whole-application snapshot used by backup export/import.
// The JSON field names match the document format the app has always
// produced, so older backups keep importing.
type Dataset struct {
	Clients           []*Client           `json:"clients"`
	Projects          []*Project          `json:"projects"`
	TimeEntries       []*TimeEntry        `json:"timeEntries"`
	Expenses          []*Expense          `json:"expenses"`
	Invoices          []*Invoice          `json:"invoices"`
	RecurringProfiles []*RecurringProfile `json:"recurringInvoices"`
	TaxSettings       TaxSettings         `json:"taxSettings"`
	CurrencySettings  CurrencySettings    `json:"currencySettings"`
}
