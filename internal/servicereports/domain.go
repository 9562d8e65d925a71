package servicereports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/monstter/backoffice/internal/money"
)

// ClientServiceReport lists the closed work billed to one client in a period.
type ClientServiceReport struct {
	ClientID     int64             `json:"clientId"`
	ClientName   string            `json:"clientName"`
	ClientEmail  string            `json:"clientEmail"`
	BillingMode  money.RateMode    `json:"paymentType"`
	ChargedValue string            `json:"chargedValue"`
	PeriodStart  time.Time         `json:"periodStart"`
	PeriodEnd    time.Time         `json:"periodEnd"`
	Orders       []ClientOrderLine `json:"orders"`
	TotalHours   float64           `json:"totalHours"`
	TotalAmount  string            `json:"totalAmount"`
	GeneratedAt  time.Time         `json:"generatedAt"`

	Hours  decimal.Decimal `json:"-"`
	Amount decimal.Decimal `json:"-"`
	Rate   decimal.Decimal `json:"-"`
}

// ClientOrderLine is one order row of a client report. Dates are dd/mm/yyyy.
type ClientOrderLine struct {
	OSNumber    string `json:"osNumber"`
	ServiceType string `json:"serviceType"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	TotalHours  string `json:"totalHours"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// PartnerPaymentReport lists the closed work payable to one partner in a period.
type PartnerPaymentReport struct {
	PartnerID    int64              `json:"partnerId"`
	PartnerName  string             `json:"partnerName"`
	PartnerEmail string             `json:"partnerEmail"`
	PayMode      money.RateMode     `json:"paymentType"`
	PaidValue    string             `json:"paidValue"`
	PeriodStart  time.Time          `json:"periodStart"`
	PeriodEnd    time.Time          `json:"periodEnd"`
	Orders       []PartnerOrderLine `json:"orders"`
	TotalHours   float64            `json:"totalHours"`
	TotalAmount  string             `json:"totalAmount"`
	GeneratedAt  time.Time          `json:"generatedAt"`

	Hours  decimal.Decimal `json:"-"`
	Amount decimal.Decimal `json:"-"`
	Rate   decimal.Decimal `json:"-"`
}

// PartnerOrderLine is one order row of a partner report.
type PartnerOrderLine struct {
	OSNumber    string `json:"osNumber"`
	ClientName  string `json:"clientName"`
	ServiceType string `json:"serviceType"`
	TotalHours  string `json:"totalHours"`
	Status      string `json:"status"`
}

// ClientRef identifies a client that has closed orders in a period.
type ClientRef struct {
	ClientID    int64  `json:"clientId"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
}
