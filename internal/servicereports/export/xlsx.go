package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/monstter/backoffice/internal/servicereports"
)

// WriteClientReportXLSX writes the client report as a single-sheet workbook.
func WriteClientReportXLSX(w io.Writer, report *servicereports.ClientServiceReport, loc *time.Location) error {
	header := [][]any{
		{"Relatório de Prestação de Serviço"},
		{"Cliente", report.ClientName, "E-mail", report.ClientEmail},
		{"Tipo de Pagamento", report.BillingMode.Label(), "Valor Cobrado", report.Rate.InexactFloat64()},
		{"Período", periodLabel(report.PeriodStart, report.PeriodEnd, loc)},
		{},
		{"N° OS", "Tipo de Serviço", "Data Início", "Data Fim", "Horas", "Descrição", "Status"},
	}
	rows := make([][]any, 0, len(report.Orders))
	for _, o := range report.Orders {
		rows = append(rows, []any{o.OSNumber, o.ServiceType, o.StartDate, o.EndDate, hoursCell(o.TotalHours), o.Description, o.Status})
	}
	footer := [][]any{
		{},
		{"Total de Horas", report.Hours.Round(2).InexactFloat64()},
		{"Valor Total", report.Amount.Round(2).InexactFloat64()},
	}
	return writeSheet(w, "Relatório", header, rows, footer)
}

// WritePartnerReportXLSX writes the partner payment report as a single-sheet workbook.
func WritePartnerReportXLSX(w io.Writer, report *servicereports.PartnerPaymentReport, loc *time.Location) error {
	header := [][]any{
		{"Relatório de Pagamento"},
		{"Parceiro", report.PartnerName, "E-mail", report.PartnerEmail},
		{"Tipo de Pagamento", report.PayMode.Label(), "Valor Pago", report.Rate.InexactFloat64()},
		{"Período", periodLabel(report.PeriodStart, report.PeriodEnd, loc)},
		{},
		{"N° OS", "Cliente", "Tipo de Serviço", "Horas", "Status"},
	}
	rows := make([][]any, 0, len(report.Orders))
	for _, o := range report.Orders {
		rows = append(rows, []any{o.OSNumber, o.ClientName, o.ServiceType, hoursCell(o.TotalHours), o.Status})
	}
	footer := [][]any{
		{},
		{"Total de Horas", report.Hours.Round(2).InexactFloat64()},
		{"Valor Total a Pagar", report.Amount.Round(2).InexactFloat64()},
	}
	return writeSheet(w, "Pagamento", header, rows, footer)
}

func writeSheet(w io.Writer, sheet string, blocks ...[][]any) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	for i, block := range blocks {
		for j, values := range block {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if len(values) > 0 {
				if err := f.SetSheetRow(sheet, cell, &values); err != nil {
					return err
				}
			}
			// title row and the column header row that closes the first block
			if i == 0 && (j == 0 || j == len(block)-1) {
				end, _ := excelize.CoordinatesToCellName(max(len(values), 1), row)
				if err := f.SetCellStyle(sheet, cell, end, bold); err != nil {
					return err
				}
			}
			row++
		}
	}
	if err := f.SetColWidth(sheet, "A", "G", 18); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func hoursCell(raw string) any {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return v
}

func periodLabel(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format(dateLayout) + " a " + end.In(loc).Format(dateLayout)
}
