package serviceordershttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/payments"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/serviceorders"
	"github.com/monstter/backoffice/internal/shared"
)

type stubOrders struct {
	created  serviceorders.DraftInput
	advanced serviceorders.Status
	closeIn  serviceorders.CloseInput
	filter   serviceorders.ListFilter
}

func (s *stubOrders) Get(_ context.Context, _ *shared.Principal, id int64) (serviceorders.Order, error) {
	if id != 1 {
		return serviceorders.Order{}, shared.ErrNotFound
	}
	return serviceorders.Order{ID: 1, OSNumber: "OS-2026-0001", Status: serviceorders.StatusDraft}, nil
}

func (s *stubOrders) List(_ context.Context, _ *shared.Principal, filter serviceorders.ListFilter) ([]serviceorders.Order, error) {
	s.filter = filter
	return nil, nil
}

func (s *stubOrders) Create(_ context.Context, _ *shared.Principal, in serviceorders.DraftInput) (serviceorders.Order, error) {
	s.created = in
	return serviceorders.Order{ID: 2, OSNumber: "OS-2026-0002", Status: serviceorders.StatusDraft}, nil
}

func (s *stubOrders) UpdateDraft(_ context.Context, _ *shared.Principal, id int64, _ serviceorders.DraftInput) (serviceorders.Order, error) {
	return serviceorders.Order{ID: id}, nil
}

func (s *stubOrders) Send(_ context.Context, _ *shared.Principal, id int64) (serviceorders.Order, error) {
	return serviceorders.Order{ID: id, Status: serviceorders.StatusSent}, nil
}

func (s *stubOrders) Advance(_ context.Context, id int64, next serviceorders.Status) (serviceorders.Order, error) {
	s.advanced = next
	return serviceorders.Order{ID: id, Status: next}, nil
}

func (s *stubOrders) Close(_ context.Context, id int64, in serviceorders.CloseInput) (serviceorders.Order, *payments.Payment, error) {
	s.closeIn = in
	order := serviceorders.Order{ID: id, Status: serviceorders.StatusClosed}
	if in.Payment == nil {
		return order, nil, nil
	}
	return order, &payments.Payment{ID: 9, OSID: id, Amount: in.Payment.Amount.Decimal, Status: payments.StatusPending}, nil
}

func newRouter(svc *stubOrders) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, rbac.Middleware{Logger: logger})
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func send(h http.Handler, method, target, body string, p *shared.Principal) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	admin   = &shared.Principal{UserID: 1, Role: shared.RoleAdmin}
	partner = &shared.Principal{UserID: 7, Role: shared.RolePartner}
	user    = &shared.Principal{UserID: 8, Role: shared.RoleUser}
)

const draftBody = `{"clientName":"Acme","clientEmail":"ti@acme.com.br","serviceType":"Suporte","startDateTime":"2026-03-02T09:00:00-03:00","endDateTime":"2026-03-02T13:00:00-03:00","interval":60}`

func TestCreateIsPartnerOnly(t *testing.T) {
	svc := &stubOrders{}
	h := newRouter(svc)

	rec := send(h, http.MethodPost, "/service-orders", draftBody, partner)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Acme", svc.created.ClientName)
	require.NotNil(t, svc.created.IntervalMinutes)
	assert.Equal(t, 60, *svc.created.IntervalMinutes)

	rec = send(h, http.MethodPost, "/service-orders", draftBody, admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(h, http.MethodPost, "/service-orders", `{"clientName":"Acme"}`, partner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGet(t *testing.T) {
	svc := &stubOrders{}
	h := newRouter(svc)

	rec := send(h, http.MethodGet, "/service-orders?status=closed,bogus,sent&partnerId=3", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, []serviceorders.Status{serviceorders.StatusClosed, serviceorders.StatusSent}, svc.filter.Statuses)
	assert.Equal(t, int64(3), svc.filter.PartnerID)

	rec = send(h, http.MethodGet, "/service-orders", "", user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(h, http.MethodGet, "/service-orders/1", "", partner)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = send(h, http.MethodGet, "/service-orders/5", "", partner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = send(h, http.MethodGet, "/service-orders/x", "", partner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceAndCloseAreBackOffice(t *testing.T) {
	svc := &stubOrders{}
	h := newRouter(svc)

	rec := send(h, http.MethodPost, "/service-orders/1/status", `{"status":"in_progress"}`, partner)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(h, http.MethodPost, "/service-orders/1/status", `{"status":"closed"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(h, http.MethodPost, "/service-orders/1/status", `{"status":"completed"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, serviceorders.StatusCompleted, svc.advanced)

	rec = send(h, http.MethodPost, "/service-orders/1/close", "", partner)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(h, http.MethodPost, "/service-orders/1/close", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.closeIn.Payment)
	assert.NotContains(t, rec.Body.String(), `"payment"`)
}

func TestCloseWithPayment(t *testing.T) {
	svc := &stubOrders{}
	h := newRouter(svc)

	rec := send(h, http.MethodPost, "/service-orders/4/close", `{"payment":{"amount":"350.50","status":"pending"}}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.closeIn.Payment)
	assert.True(t, svc.closeIn.Payment.Amount.Valid)
	assert.True(t, decimal.RequireFromString("350.50").Equal(svc.closeIn.Payment.Amount.Decimal))

	var body struct {
		Order   serviceorders.Order `json:"order"`
		Payment payments.Payment    `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, serviceorders.StatusClosed, body.Order.Status)
	assert.Equal(t, int64(4), body.Payment.OSID)

	rec = send(h, http.MethodPost, "/service-orders/4/close", `{"payment":{"status":"paid"}}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
