package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/freelanceflow/flow/internal/models"
)

// ExportBackup writes the whole dataset as a single JSON document.
func (s *BillingService) ExportBackup(ctx context.Context, w io.Writer) error {
	data, err := s.store.ExportData(ctx)
	if err != nil {
		return fmt.Errorf("failed to export data: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// ImportBackup replaces the whole dataset with the contents of a backup
// document. The document is validated before anything is touched, and the
// store applies the replacement atomically.
func (s *BillingService) ImportBackup(ctx context.Context, r io.Reader) error {
	var data models.Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return &ValidationError{Field: "backup", Reason: fmt.Sprintf("malformed document: %v", err)}
	}

	if err := validateDataset(&data); err != nil {
		return err
	}

	if err := s.store.ImportData(ctx, &data); err != nil {
		return fmt.Errorf("failed to import data: %w", err)
	}
	s.log.Info().Int("clients", len(data.Clients)).Int("invoices", len(data.Invoices)).Msg("backup imported")
	return nil
}

// validateDataset checks referential integrity of a backup before it is
// allowed to replace live data.
func validateDataset(data *models.Dataset) error {
	clients := make(map[string]bool, len(data.Clients))
	for _, c := range data.Clients {
		if c.ID == "" || c.Name == "" {
			return &ValidationError{Field: "clients", Reason: "client missing id or name"}
		}
		if clients[c.ID] {
			return &ValidationError{Field: "clients", Reason: "duplicate client id " + c.ID}
		}
		clients[c.ID] = true
	}

	projects := make(map[string]bool, len(data.Projects))
	for _, p := range data.Projects {
		if p.ID == "" {
			return &ValidationError{Field: "projects", Reason: "project missing id"}
		}
		if !clients[p.ClientID] {
			return &ValidationError{Field: "projects", Reason: "project " + p.ID + " references unknown client"}
		}
		if projects[p.ID] {
			return &ValidationError{Field: "projects", Reason: "duplicate project id " + p.ID}
		}
		projects[p.ID] = true
	}

	// Per invoice, the set of source item ids its line items snapshot.
	invoiceItems := make(map[string]map[string]bool, len(data.Invoices))
	for _, inv := range data.Invoices {
		if inv.ID == "" {
			return &ValidationError{Field: "invoices", Reason: "invoice missing id"}
		}
		if _, ok := invoiceItems[inv.ID]; ok {
			return &ValidationError{Field: "invoices", Reason: "duplicate invoice id " + inv.ID}
		}
		sources := make(map[string]bool, len(inv.Items))
		for _, item := range inv.Items {
			sources[item.SourceID] = true
		}
		invoiceItems[inv.ID] = sources
	}

	// An item is billed exactly when it carries an invoice id, and that
	// invoice must have snapshotted it as a line item.
	checkBinding := func(field, id string, isBilled bool, invoiceID *string) error {
		if isBilled != (invoiceID != nil) {
			return &ValidationError{Field: field, Reason: id + " has inconsistent billed state"}
		}
		if invoiceID == nil {
			return nil
		}
		sources, ok := invoiceItems[*invoiceID]
		if !ok {
			return &ValidationError{Field: field, Reason: id + " references unknown invoice"}
		}
		if !sources[id] {
			return &ValidationError{Field: field, Reason: id + " is not a line item of invoice " + *invoiceID}
		}
		return nil
	}

	for _, e := range data.TimeEntries {
		if !projects[e.ProjectID] {
			return &ValidationError{Field: "timeEntries", Reason: "entry " + e.ID + " references unknown project"}
		}
		if err := checkBinding("timeEntries", e.ID, e.IsBilled, e.InvoiceID); err != nil {
			return err
		}
	}
	for _, e := range data.Expenses {
		if !projects[e.ProjectID] {
			return &ValidationError{Field: "expenses", Reason: "expense " + e.ID + " references unknown project"}
		}
		if err := checkBinding("expenses", e.ID, e.IsBilled, e.InvoiceID); err != nil {
			return err
		}
	}
	return nil
}
