package schedules

import (
	"time"
)

// Frequency is how often a schedule fires.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// ReportType names the report a schedule sends. Every type currently delivers the
// financial summary.
type ReportType string

const (
	ReportFinancial     ReportType = "financial"
	ReportServiceOrders ReportType = "service_orders"
	ReportPayments      ReportType = "payments"
	ReportAll           ReportType = "all"
)

// Status toggles delivery.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

const timeLayout = "15:04"

// Schedule describes a recurring emailed report.
type Schedule struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	RecipientEmail string     `json:"recipientEmail"`
	Frequency      Frequency  `json:"frequency"`
	DayOfWeek      *int       `json:"dayOfWeek"`
	DayOfMonth     *int       `json:"dayOfMonth"`
	Time           string     `json:"time"`
	ReportType     ReportType `json:"reportType"`
	IncludeCharts  bool       `json:"includeCharts"`
	Status         Status     `json:"status"`
	LastSentAt     *time.Time `json:"lastSentAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Input carries the writable schedule fields.
type Input struct {
	RecipientEmail string     `json:"recipientEmail" validate:"required,email"`
	Frequency      Frequency  `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	DayOfWeek      *int       `json:"dayOfWeek" validate:"omitempty,gte=0,lte=6"`
	DayOfMonth     *int       `json:"dayOfMonth" validate:"omitempty,gte=1,lte=31"`
	Time           string     `json:"time" validate:"required,datetime=15:04"`
	ReportType     ReportType `json:"reportType" validate:"omitempty,oneof=financial service_orders payments all"`
	IncludeCharts  *bool      `json:"includeCharts"`
	Status         Status     `json:"status" validate:"omitempty,oneof=active inactive"`
}

// Due reports whether the schedule fires in the minute containing now. Weekday and day
// of month are read in loc. Biweekly schedules fire when the day of month and the
// configured day agree modulo 14.
func (s Schedule) Due(now time.Time, loc *time.Location) bool {
	if s.Status != StatusActive {
		return false
	}
	if loc != nil {
		now = now.In(loc)
	}
	if s.Time != now.Format(timeLayout) {
		return false
	}
	switch s.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return s.DayOfWeek != nil && *s.DayOfWeek == int(now.Weekday())
	case FrequencyBiweekly:
		return s.DayOfMonth != nil && *s.DayOfMonth > 0 && now.Day()%14 == *s.DayOfMonth%14
	case FrequencyMonthly:
		return s.DayOfMonth != nil && *s.DayOfMonth == now.Day()
	default:
		return false
	}
}

// SentInMinute reports whether the schedule was already delivered in now's minute.
func (s Schedule) SentInMinute(now time.Time) bool {
	if s.LastSentAt == nil {
		return false
	}
	return s.LastSentAt.Truncate(time.Minute).Equal(now.Truncate(time.Minute))
}
