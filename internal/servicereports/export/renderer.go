package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/servicereports"
	"github.com/monstter/backoffice/web"
)

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 às 15:04:05"
)

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Renderer turns service reports into PDF documents via html/template and Gotenberg.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
	loc    *time.Location
}

type reportView[T any] struct {
	Title       string
	Report      T
	PeriodStart string
	PeriodEnd   string
	GeneratedAt string
}

var templateFuncs = template.FuncMap{
	"brl":    money.FormatBRL,
	"number": money.FormatNumber,
}

// NewRenderer parses the report templates.
func NewRenderer(client PDFClient, loc *time.Location) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("report renderer: pdf client required")
	}
	if loc == nil {
		loc = time.UTC
	}
	tpl, err := template.New("reports").Funcs(templateFuncs).ParseFS(web.Templates,
		"templates/reports/layout.html",
		"templates/reports/client_service.html",
		"templates/reports/partner_payment.html",
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, client: client, loc: loc}, nil
}

// ClientReportHTML renders the client report document.
func (r *Renderer) ClientReportHTML(report *servicereports.ClientServiceReport) (string, error) {
	view := reportView[*servicereports.ClientServiceReport]{
		Title:       "Relatório de Prestação de Serviço - " + report.ClientName,
		Report:      report,
		PeriodStart: report.PeriodStart.In(r.loc).Format(dateLayout),
		PeriodEnd:   report.PeriodEnd.In(r.loc).Format(dateLayout),
		GeneratedAt: report.GeneratedAt.In(r.loc).Format(dateTimeLayout),
	}
	return r.execute("client_service.html", view)
}

// PartnerReportHTML renders the partner payment document.
func (r *Renderer) PartnerReportHTML(report *servicereports.PartnerPaymentReport) (string, error) {
	view := reportView[*servicereports.PartnerPaymentReport]{
		Title:       "Relatório de Pagamento - " + report.PartnerName,
		Report:      report,
		PeriodStart: report.PeriodStart.In(r.loc).Format(dateLayout),
		PeriodEnd:   report.PeriodEnd.In(r.loc).Format(dateLayout),
		GeneratedAt: report.GeneratedAt.In(r.loc).Format(dateTimeLayout),
	}
	return r.execute("partner_payment.html", view)
}

// ClientReportPDF renders the client report and converts it to PDF.
func (r *Renderer) ClientReportPDF(ctx context.Context, report *servicereports.ClientServiceReport) ([]byte, error) {
	html, err := r.ClientReportHTML(report)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

// PartnerReportPDF renders the partner report and converts it to PDF.
func (r *Renderer) PartnerReportPDF(ctx context.Context, report *servicereports.PartnerPaymentReport) ([]byte, error) {
	html, err := r.PartnerReportHTML(report)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	if r == nil || r.tpl == nil {
		return "", fmt.Errorf("report renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
