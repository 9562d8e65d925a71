package serviceorders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the service order lifecycle.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusSent       Status = "sent"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
)

var statusRank = map[Status]int{
	StatusDraft:      0,
	StatusSent:       1,
	StatusInProgress: 2,
	StatusCompleted:  3,
	StatusClosed:     4,
}

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanMoveTo reports whether next is strictly further along the lifecycle.
func (s Status) CanMoveTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > from
}

// Label returns the pt-BR label used in emails and reports.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Rascunho"
	case StatusSent:
		return "Enviada"
	case StatusInProgress:
		return "Em Progresso"
	case StatusCompleted:
		return "Concluída"
	case StatusClosed:
		return "Encerrada"
	default:
		return string(s)
	}
}

// Order is a unit of consulting work submitted by a partner.
type Order struct {
	ID              int64           `json:"id"`
	OSNumber        string          `json:"osNumber"`
	Status          Status          `json:"status"`
	PartnerID       int64           `json:"partnerId"`
	ClientID        *int64          `json:"clientId"`
	ClientName      string          `json:"clientName"`
	ClientEmail     string          `json:"clientEmail"`
	ServiceType     string          `json:"serviceType"`
	StartDateTime   time.Time       `json:"startDateTime"`
	IntervalMinutes *int            `json:"interval"`
	EndDateTime     *time.Time      `json:"endDateTime"`
	TotalHours      decimal.Decimal `json:"totalHours"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// DraftInput carries the fields a partner fills in on the order form.
type DraftInput struct {
	ClientID        *int64     `json:"clientId" validate:"omitempty,gt=0"`
	ClientName      string     `json:"clientName" validate:"required,max=255"`
	ClientEmail     string     `json:"clientEmail" validate:"required,email"`
	ServiceType     string     `json:"serviceType" validate:"required,max=255"`
	StartDateTime   time.Time  `json:"startDateTime" validate:"required"`
	IntervalMinutes *int       `json:"interval" validate:"omitempty,gte=0,lte=1440"`
	EndDateTime     *time.Time `json:"endDateTime"`
	Description     string     `json:"description"`
}

// CloseInput finalises an order and optionally records the partner payout.
type CloseInput struct {
	Payment *ClosePayment `json:"payment"`
}

// ClosePayment overrides the payout computed from the partner rate.
type ClosePayment struct {
	Amount      decimal.NullDecimal `json:"amount"`
	Status      string              `json:"status" validate:"omitempty,oneof=pending scheduled completed"`
	PaymentDate *time.Time          `json:"paymentDate"`
	Notes       string              `json:"notes"`
}

// ListFilter narrows order listings. Zero values are ignored.
type ListFilter struct {
	Statuses  []Status
	PartnerID int64
	ClientID  int64
	StartFrom *time.Time
	StartTo   *time.Time
	Limit     uint64
	Offset    uint64
}
