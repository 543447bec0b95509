package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/freelanceflow/flow/internal/models"
)

// pdfLabels holds the printable strings for one invoice language.
type pdfLabels struct {
	invoice     string
	billTo      string
	issueDate   string
	dueDate     string
	description string
	hours       string
	rate        string
	amount      string
	subtotal    string
	tax         string
	total       string
	payTo       string
}

var labelsByLanguage = map[string]pdfLabels{
	"en": {
		invoice:     "Invoice",
		billTo:      "Bill To:",
		issueDate:   "Issue Date",
		dueDate:     "Due Date",
		description: "Description",
		hours:       "Hours",
		rate:        "Rate",
		amount:      "Amount",
		subtotal:    "Subtotal",
		tax:         "Tax",
		total:       "Total",
		payTo:       "Payment Details",
	},
	"de": {
		invoice:     "Rechnung",
		billTo:      "Rechnung an:",
		issueDate:   "Rechnungsdatum",
		dueDate:     "Faelligkeitsdatum",
		description: "Beschreibung",
		hours:       "Stunden",
		rate:        "Satz",
		amount:      "Betrag",
		subtotal:    "Zwischensumme",
		tax:         "Steuer",
		total:       "Gesamtbetrag",
		payTo:       "Zahlungsdetails",
	},
}

// PaymentDetails is printed in the PDF footer so the client knows where to
// send the money.
type PaymentDetails struct {
	BusinessName  string
	BusinessEmail string
	BankName      string
	IBAN          string
	BIC           string
}

// GenerateInvoicePDF renders the invoice to a PDF file in outDir and
// returns the written path. Labels follow the configured invoice language.
func (s *BillingService) GenerateInvoicePDF(ctx context.Context, invoiceID, outDir string, payment PaymentDetails) (string, error) {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	currency, err := s.store.GetCurrencySettings(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read currency settings: %w", err)
	}
	totals, err := s.InvoiceTotals(ctx, invoice)
	if err != nil {
		return "", err
	}

	labels, ok := labelsByLanguage[currency.InvoiceLanguage]
	if !ok {
		labels = labelsByLanguage["en"]
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	fileName := filepath.Join(outDir, sanitizeFileName(invoice.ID)+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)

	pdf.Cell(40, 10, fmt.Sprintf("%s %s", labels.invoice, invoice.ID))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, labels.billTo)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(95, 6, invoice.ClientName)
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, fmt.Sprintf("%s: %s", labels.issueDate, invoice.IssueDate.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(95, 6, fmt.Sprintf("%s: %s", labels.dueDate, invoice.DueDate.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(90, 8, labels.description, "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 8, labels.hours, "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, labels.rate, "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, labels.amount, "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, item := range invoice.Items {
		hours := ""
		if item.SourceType == models.LineItemTime {
			hours = fmt.Sprintf("%.2f", item.Hours)
		}
		pdf.CellFormat(90, 7, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, hours, "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, item.Rate.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, item.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(150, 7, labels.subtotal, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%s %s", totals.Subtotal.StringFixed(2), invoice.Currency), "", 1, "R", false, 0, "")
	pdf.CellFormat(150, 7, labels.tax, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%s %s", totals.Tax.StringFixed(2), invoice.Currency), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(150, 8, labels.total, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%s %s", totals.Total.StringFixed(2), invoice.Currency), "", 1, "R", false, 0, "")

	if payment.BusinessName != "" || payment.IBAN != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, labels.payTo)
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		for _, line := range []string{
			payment.BusinessName,
			payment.BusinessEmail,
			payment.BankName,
			payment.IBAN,
			payment.BIC,
		} {
			if line == "" {
				continue
			}
			pdf.Cell(95, 5, line)
			pdf.Ln(5)
		}
	}

	if err := pdf.OutputFileAndClose(fileName); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	s.log.Info().Str("invoice", invoice.ID).Str("file", fileName).Msg("invoice PDF written")
	return fileName, nil
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "_", ":", "-")
	return replacer.Replace(name)
}
