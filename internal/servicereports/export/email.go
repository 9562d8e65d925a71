package export

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/monstter/backoffice/internal/financial"
	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/shared"
	"github.com/monstter/backoffice/web"
)

var (
	summaryOnce sync.Once
	summaryTpl  *template.Template
	summaryErr  error
)

type metricRow struct {
	Label string
	Value string
}

// FinancialSummarySubject is the subject line of the scheduled report email.
func FinancialSummarySubject(period shared.Period) string {
	return fmt.Sprintf("Relatório Financeiro - %s a %s", period.Start.Format(dateLayout), period.End.Format(dateLayout))
}

// FinancialSummaryEmail renders the scheduled financial report body. Dates are shown in
// the period's own location.
func FinancialSummaryEmail(summary financial.Summary, period shared.Period) (string, error) {
	summaryOnce.Do(func() {
		summaryTpl, summaryErr = template.ParseFS(web.Templates, "templates/email/financial_summary.html")
	})
	if summaryErr != nil {
		return "", summaryErr
	}
	data := struct {
		PeriodStart string
		PeriodEnd   string
		Rows        []metricRow
	}{
		PeriodStart: period.Start.Format(dateLayout),
		PeriodEnd:   period.End.Format(dateLayout),
		Rows: []metricRow{
			{"Receita Total", money.FormatBRL(summary.Revenue)},
			{"Custo Total", money.FormatBRL(summary.Cost)},
			{"Lucro Bruto", money.FormatBRL(summary.Profit)},
			{"Margem de Lucro", money.FormatNumber(summary.Margin) + "%"},
			{"Total de Horas", money.FormatNumber(summary.BillableHours) + "h"},
			{"Ordens de Serviço", fmt.Sprint(summary.Orders)},
		},
	}
	buf := &bytes.Buffer{}
	if err := summaryTpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
