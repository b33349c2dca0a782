package infra

// pdf.go: commission statement generation using go-pdf/fpdf.
// One A5 page per commission record with:
//   - Sales rep header (name, employee number)
//   - Pay period
//   - Sales summary (order count, shipped sales, rate)
//   - Bold commission amount
//
// The output file is saved to storagePath/commission_{employee}_{start}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"retailworks/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateCommissionStatementPDF renders a statement for rec, which must have
// its SalesRep preloaded. Returns the path of the generated file.
func GenerateCommissionStatementPDF(rec *model.CommissionRecord, storagePath string) (string, error) {
	if rec.SalesRep == nil {
		return "", fmt.Errorf("pdf: commission %s has no sales rep loaded", rec.ID)
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	rep := rec.SalesRep
	fileName := fmt.Sprintf("commission_%s_%s.pdf", rep.EmployeeNumber, rec.PeriodStart.Format("20060102"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "RetailWorks", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Commission Statement", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Rep and period ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, rep.FullName(), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Employee "+rep.EmployeeNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Period %s to %s",
		rec.PeriodStart.Format("2006-01-02"), rec.PeriodEnd.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	// ── Summary ──────────────────────────────────────────────────────────────
	labelW := contentW * 0.6
	valueW := contentW * 0.4
	row := func(label, value string) {
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	row("Shipped orders", fmt.Sprintf("%d", rec.OrderCount))
	row("Shipped sales", "$"+rec.TotalSales.StringFixed(2))
	row("Commission rate", rec.CommissionRate.Shift(2).StringFixed(2)+"%")

	pdf.Ln(1)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	row("COMMISSION", "$"+rec.CommissionAmount.StringFixed(2))

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Calculated "+rec.CalculatedAt.UTC().Format(time.RFC1123), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
