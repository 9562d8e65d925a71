package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates partner payout states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusScheduled || s == StatusCompleted
}

// Payment is the payout owed to a partner for one service order.
type Payment struct {
	ID          int64           `json:"id"`
	OSID        int64           `json:"osId"`
	PartnerID   int64           `json:"partnerId"`
	Amount      decimal.Decimal `json:"amount"`
	Status      Status          `json:"status"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// UpsertInput creates or replaces the payment of an order.
type UpsertInput struct {
	OSID        int64
	PartnerID   int64
	Amount      decimal.Decimal
	Status      Status
	PaymentDate *time.Time
	Notes       string
}

// UpdateInput changes the settlement fields of a payment.
type UpdateInput struct {
	Status      Status     `json:"status" validate:"required,oneof=pending scheduled completed"`
	PaymentDate *time.Time `json:"paymentDate"`
	Notes       *string    `json:"notes"`
}

// PendingFilter bounds pending payments by creation time.
type PendingFilter struct {
	Start *time.Time
	End   *time.Time
}
