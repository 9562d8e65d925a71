package financial

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filter selects closed orders by start time and optional owner.
type Filter struct {
	Start     time.Time
	End       time.Time
	PartnerID int64
	ClientID  int64
}

// Summary is the decimal result of aggregating closed orders.
type Summary struct {
	Revenue         decimal.Decimal
	Cost            decimal.Decimal
	Profit          decimal.Decimal
	Margin          decimal.Decimal
	BillableHours   decimal.Decimal
	AverageRate     decimal.Decimal
	ConsultantCount int
	ClientCount     int
	Orders          int
}

// Metrics is the formatted financial overview of a period.
type Metrics struct {
	TotalRevenue          string  `json:"totalRevenue"`
	TotalCost             string  `json:"totalCost"`
	GrossProfit           string  `json:"grossProfit"`
	ProfitMargin          string  `json:"profitMargin"`
	TotalBillableHours    float64 `json:"totalBillableHours"`
	TotalNonBillableHours float64 `json:"totalNonBillableHours"`
	AverageHourlyRate     string  `json:"averageHourlyRate"`
	ConsultantCount       int     `json:"consultantCount"`
	ClientCount           int     `json:"clientCount"`
	CompletedOrders       int     `json:"completedOrders"`
}

// MonthlyComparison is one calendar month of a yearly comparison.
type MonthlyComparison struct {
	Month         string  `json:"month"`
	Revenue       string  `json:"revenue"`
	Cost          string  `json:"cost"`
	Profit        string  `json:"profit"`
	BillableHours float64 `json:"billableHours"`
	Orders        int     `json:"orders"`
}

// ConsultantMetrics summarises one partner's closed work.
type ConsultantMetrics struct {
	ConsultantID      int64   `json:"consultantId"`
	ConsultantName    string  `json:"consultantName"`
	TotalHours        float64 `json:"totalHours"`
	TotalEarnings     string  `json:"totalEarnings"`
	OrdersCompleted   int     `json:"ordersCompleted"`
	AverageOrderValue string  `json:"averageOrderValue"`
}

// Utilization compares billable hours with a 40 hour working week.
type Utilization struct {
	UtilizationRate     string  `json:"utilizationRate"`
	BillableHours       float64 `json:"billableHours"`
	TotalAvailableHours int     `json:"totalAvailableHours"`
}

// Dashboard bundles the figures shown on the financial dashboard.
type Dashboard struct {
	Metrics     Metrics             `json:"metrics"`
	Consultants []ConsultantMetrics `json:"consultants"`
	Utilization Utilization         `json:"utilization"`
}

// Metrics formats the summary for output.
func (s Summary) Metrics() Metrics {
	return Metrics{
		TotalRevenue:       s.Revenue.StringFixed(2),
		TotalCost:          s.Cost.StringFixed(2),
		GrossProfit:        s.Profit.StringFixed(2),
		ProfitMargin:       s.Margin.StringFixed(2),
		TotalBillableHours: hoursValue(s.BillableHours),
		AverageHourlyRate:  s.AverageRate.StringFixed(2),
		ConsultantCount:    s.ConsultantCount,
		ClientCount:        s.ClientCount,
		CompletedOrders:    s.Orders,
	}
}

func hoursValue(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
