package partners

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/monstter/backoffice/internal/money"
)

// Status enumerates partner lifecycle states.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Partner is a contractor who executes service orders.
type Partner struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"userId"`
	CompanyName string              `json:"companyName"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone,omitempty"`
	PayMode     money.RateMode      `json:"payMode"`
	PaidValue   decimal.NullDecimal `json:"paidValue"`
	Status      Status              `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Input carries the writable partner fields.
type Input struct {
	UserID      int64               `json:"userId" validate:"required,gt=0"`
	CompanyName string              `json:"companyName" validate:"required,min=2,max=255"`
	Email       string              `json:"email" validate:"required,email"`
	Phone       string              `json:"phone" validate:"omitempty,max=30"`
	PayMode     money.RateMode      `json:"payMode" validate:"omitempty,oneof=fixed hourly"`
	PaidValue   decimal.NullDecimal `json:"paidValue"`
	Status      Status              `json:"status" validate:"omitempty,oneof=active inactive"`
}
