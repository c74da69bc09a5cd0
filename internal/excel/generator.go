package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/freight-sync/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(export model.ContractExport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Contracts"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Organization")
	set("B1", export.OrganizationName)
	set("A2", "Operation mode")
	set("B2", export.OperationMode.Friendly())
	set("A3", "Generated at")
	set("B3", formatDateTime(export.GeneratedAt))
	set("A4", "Contracts")
	set("B4", len(export.Contracts))

	tableRow := 6
	headers := []string{
		"Contract ID",
		"Status",
		"Route",
		"Issuer",
		"Acceptor",
		"Reward (ISK)",
		"Collateral (ISK)",
		"Volume (m3)",
		"Price check",
		"Issues",
		"Date issued",
		"Date expired",
		"Date completed",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, contract := range export.Contracts {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), contract.ContractID)
		set(fmt.Sprintf("B%d", row), string(contract.Status))
		set(fmt.Sprintf("C%d", row), export.RouteName(contract))
		set(fmt.Sprintf("D%d", row), entityName(contract.Issuer))
		set(fmt.Sprintf("E%d", row), contract.AcceptorName())
		set(fmt.Sprintf("F%d", row), contract.Reward)
		set(fmt.Sprintf("G%d", row), contract.Collateral)
		set(fmt.Sprintf("H%d", row), contract.Volume)
		set(fmt.Sprintf("I%d", row), priceCheckLabel(contract))
		set(fmt.Sprintf("J%d", row), strings.Join(contract.IssueList(), "; "))
		set(fmt.Sprintf("K%d", row), formatDateTime(contract.DateIssued))
		set(fmt.Sprintf("L%d", row), formatDateTime(contract.DateExpired))
		set(fmt.Sprintf("M%d", row), formatDateTimePtr(contract.DateCompleted))
	}

	_ = file.SetColWidth(sheet, "A", "B", 14)
	_ = file.SetColWidth(sheet, "C", "C", 40)
	_ = file.SetColWidth(sheet, "D", "E", 24)
	_ = file.SetColWidth(sheet, "F", "H", 16)
	_ = file.SetColWidth(sheet, "I", "I", 12)
	_ = file.SetColWidth(sheet, "J", "J", 50)
	_ = file.SetColWidth(sheet, "K", "M", 20)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
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

func entityName(entity *model.EveEntity) string {
	if entity == nil {
		return ""
	}
	return entity.Name
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDateTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDateTime(*t)
}
