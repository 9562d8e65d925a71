package servicereportshttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/servicereports"
	"github.com/monstter/backoffice/internal/shared"
)

type stubReports struct {
	partnerCalls int
}

func (s *stubReports) GenerateClientServiceReport(_ context.Context, clientID int64, start, end time.Time) (*servicereports.ClientServiceReport, error) {
	if clientID != 1 {
		return nil, nil
	}
	return &servicereports.ClientServiceReport{ClientID: 1, ClientName: "Acme", PeriodStart: start, PeriodEnd: end, TotalAmount: "10.00"}, nil
}

func (s *stubReports) GeneratePartnerPaymentReport(_ context.Context, partnerID int64, _, _ time.Time) (*servicereports.PartnerPaymentReport, error) {
	s.partnerCalls++
	return &servicereports.PartnerPaymentReport{PartnerID: partnerID, PartnerName: "Alfa", TotalAmount: "5.00"}, nil
}

func (s *stubReports) GetClientsWithOrdersInPeriod(context.Context, time.Time, time.Time) []servicereports.ClientRef {
	return []servicereports.ClientRef{{ClientID: 1, ClientName: "Acme"}}
}

type stubPDF struct{}

func (stubPDF) ClientReportPDF(context.Context, *servicereports.ClientServiceReport) ([]byte, error) {
	return []byte("%PDF-client"), nil
}

func (stubPDF) PartnerReportPDF(context.Context, *servicereports.PartnerPaymentReport) ([]byte, error) {
	return []byte("%PDF-partner"), nil
}

type stubPartners map[int64]partners.Partner

func (s stubPartners) ForUser(_ context.Context, userID int64) (partners.Partner, error) {
	p, ok := s[userID]
	if !ok {
		return partners.Partner{}, shared.ErrNotFound
	}
	return p, nil
}

func newRouter(svc *stubReports) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, stubPDF{}, stubPartners{7: {ID: 3, UserID: 7}}, rbac.Middleware{Logger: logger}, time.UTC)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, target string, p *shared.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	manager = &shared.Principal{UserID: 1, Role: shared.RoleManager}
	partner = &shared.Principal{UserID: 7, Role: shared.RolePartner}
)

const period = "periodStart=2025-03-01&periodEnd=2025-03-31"

func TestClientReportJSONAndNotFound(t *testing.T) {
	h := newRouter(&stubReports{})

	rec := do(t, h, "/service-reports/clients/1?"+period, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	var body servicereports.ClientServiceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Acme", body.ClientName)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC), body.PeriodEnd.UTC())

	rec = do(t, h, "/service-reports/clients/2?"+period, manager)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientReportFormats(t *testing.T) {
	h := newRouter(&stubReports{})

	rec := do(t, h, "/service-reports/clients/1?format=pdf&"+period, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-client", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "relatorio-cliente-1-20250301.pdf")

	rec = do(t, h, "/service-reports/clients/1?format=xlsx&"+period, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "PK", rec.Body.String()[:2])
}

func TestClientReportRejectsBadPeriodAndPartners(t *testing.T) {
	h := newRouter(&stubReports{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, "/service-reports/clients/1?periodStart=2025-03-31&periodEnd=2025-03-01", manager).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, "/service-reports/clients/1?"+period, partner).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, "/service-reports/clients?"+period, nil).Code)
}

func TestPartnerReportOwnOnly(t *testing.T) {
	svc := &stubReports{}
	h := newRouter(svc)

	assert.Equal(t, http.StatusOK, do(t, h, "/service-reports/partners/3?"+period, partner).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, "/service-reports/partners/4?"+period, partner).Code)
	assert.Equal(t, http.StatusOK, do(t, h, "/service-reports/partners/4?"+period, manager).Code)
	assert.Equal(t, 2, svc.partnerCalls)
}

func TestClientsInPeriod(t *testing.T) {
	rec := do(t, newRouter(&stubReports{}), "/service-reports/clients?"+period, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"clientId":1,"clientName":"Acme","clientEmail":""}]`, rec.Body.String())
}
