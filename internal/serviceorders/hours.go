package serviceorders

import (
	"time"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// ComputeTotalHours returns the billable hours between start and end minus the break
// interval, never negative, rounded to two places. An open order has zero hours.
func ComputeTotalHours(start time.Time, end *time.Time, intervalMinutes *int) decimal.Decimal {
	if end == nil {
		return decimal.Zero
	}
	elapsed := decimal.NewFromInt(end.Sub(start).Milliseconds()).Div(decimal.NewFromInt(time.Hour.Milliseconds()))
	if intervalMinutes != nil {
		elapsed = elapsed.Sub(decimal.NewFromInt(int64(*intervalMinutes)).Div(minutesPerHour))
	}
	if elapsed.IsNegative() {
		return decimal.Zero
	}
	return elapsed.Round(2)
}
