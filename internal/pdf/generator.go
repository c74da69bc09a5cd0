package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/freight-sync/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

func (g *Generator) Generate(export model.ContractExport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Courier Contracts", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Organization: %s", export.OrganizationName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Operation mode: %s", export.OperationMode.Friendly()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated at: %s", formatDateTime(export.GeneratedAt)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Contract", "Status", "Route", "Reward M ISK", "Volume K m3", "Check", "Issued"}
	colWidths := []float64{25, 25, 85, 30, 28, 20, 35}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, contract := range export.Contracts {
		row := []string{
			fmt.Sprintf("%d", contract.ContractID),
			string(contract.Status),
			export.RouteName(contract),
			fmt.Sprintf("%.0f", contract.Reward/1000000),
			fmt.Sprintf("%.0f", contract.Volume/1000),
			priceCheckLabel(contract),
			contract.DateIssued.Format("2006-01-02"),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i >= 3 && i <= 4 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func priceCheckLabel(contract model.Contract) string {
	if !contract.HasPricing() {
		return "N/A"
	}
	if contract.IsCompliant() {
		return "passed"
	}
	return "FAILED"
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
