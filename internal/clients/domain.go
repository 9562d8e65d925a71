package clients

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/monstter/backoffice/internal/money"
)

// Status enumerates client lifecycle states.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Client is a billed customer of the consultancy.
type Client struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone,omitempty"`
	Company      string              `json:"company,omitempty"`
	Document     string              `json:"document,omitempty"`
	BillingMode  money.RateMode      `json:"billingMode"`
	ChargedValue decimal.NullDecimal `json:"chargedValue"`
	Status       Status              `json:"status"`
	Notes        string              `json:"notes,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Input carries the writable client fields.
type Input struct {
	Name         string              `json:"name" validate:"required,min=2,max=255"`
	Email        string              `json:"email" validate:"required,email"`
	Phone        string              `json:"phone" validate:"omitempty,max=30"`
	Company      string              `json:"company" validate:"omitempty,max=255"`
	Document     string              `json:"document" validate:"omitempty,max=50"`
	BillingMode  money.RateMode      `json:"billingMode" validate:"omitempty,oneof=fixed hourly"`
	ChargedValue decimal.NullDecimal `json:"chargedValue"`
	Status       Status              `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes        string              `json:"notes"`
}

// ListFilter narrows client listings.
type ListFilter struct {
	Status Status
	Search string
	Limit  uint64
	Offset uint64
}
