package financial

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monstter/backoffice/internal/clients"
	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/serviceorders"
)

const (
	hoursPerWorkDay = 8
	workDaysPerWeek = 5
)

// Aggregate computes revenue, cost and counts for closed orders. Revenue comes from the
// order's client rate and cost from its partner rate; an order whose client or partner
// is missing contributes nothing to that side and is not counted there.
func Aggregate(orders []serviceorders.Order, clientsByID map[int64]clients.Client, partnersByID map[int64]partners.Partner) Summary {
	var s Summary
	seenClients := make(map[int64]struct{})
	seenPartners := make(map[int64]struct{})

	for _, o := range orders {
		hours := o.TotalHours
		if o.ClientID != nil {
			if c, ok := clientsByID[*o.ClientID]; ok {
				s.Revenue = s.Revenue.Add(c.BillingMode.Amount(c.ChargedValue.Decimal, hours))
				seenClients[c.ID] = struct{}{}
			}
		}
		if p, ok := partnersByID[o.PartnerID]; ok {
			s.Cost = s.Cost.Add(p.PayMode.Amount(p.PaidValue.Decimal, hours))
			seenPartners[p.ID] = struct{}{}
		}
		s.BillableHours = s.BillableHours.Add(hours)
	}

	s.Orders = len(orders)
	s.ClientCount = len(seenClients)
	s.ConsultantCount = len(seenPartners)
	s.Profit = s.Revenue.Sub(s.Cost)
	s.Margin = money.Percent(s.Profit, s.Revenue)
	s.AverageRate = money.Ratio(s.Revenue, s.BillableHours)
	return s
}

// AggregateConsultants groups closed orders by partner in order of first appearance.
// Orders whose partner no longer exists are skipped.
func AggregateConsultants(orders []serviceorders.Order, partnersByID map[int64]partners.Partner) []ConsultantMetrics {
	type acc struct {
		partner  partners.Partner
		hours    decimal.Decimal
		earnings decimal.Decimal
		orders   int
	}
	var ordered []int64
	byPartner := make(map[int64]*acc)
	for _, o := range orders {
		p, ok := partnersByID[o.PartnerID]
		if !ok {
			continue
		}
		a, ok := byPartner[p.ID]
		if !ok {
			a = &acc{partner: p}
			byPartner[p.ID] = a
			ordered = append(ordered, p.ID)
		}
		a.hours = a.hours.Add(o.TotalHours)
		a.earnings = a.earnings.Add(p.PayMode.Amount(p.PaidValue.Decimal, o.TotalHours))
		a.orders++
	}

	out := make([]ConsultantMetrics, 0, len(ordered))
	for _, id := range ordered {
		a := byPartner[id]
		out = append(out, ConsultantMetrics{
			ConsultantID:      id,
			ConsultantName:    a.partner.CompanyName,
			TotalHours:        hoursValue(a.hours),
			TotalEarnings:     a.earnings.StringFixed(2),
			OrdersCompleted:   a.orders,
			AverageOrderValue: money.Ratio(a.earnings, decimal.NewFromInt(int64(a.orders))).StringFixed(2),
		})
	}
	return out
}

// AvailableHours counts whole weeks touched by the window at five eight-hour days each.
func AvailableHours(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	if days <= 0 {
		return 0
	}
	weeks := int(math.Ceil(float64(days) / 7))
	return weeks * workDaysPerWeek * hoursPerWorkDay
}

// ComputeUtilization rates billable hours against the window's available hours.
func ComputeUtilization(orders []serviceorders.Order, start, end time.Time) Utilization {
	billable := decimal.Zero
	for _, o := range orders {
		billable = billable.Add(o.TotalHours)
	}
	available := AvailableHours(start, end)
	return Utilization{
		UtilizationRate:     money.Percent(billable, decimal.NewFromInt(int64(available))).StringFixed(2),
		BillableHours:       hoursValue(billable),
		TotalAvailableHours: available,
	}
}

// ZeroMetrics is the result reported for a period without closed orders.
func ZeroMetrics() Metrics {
	return Summary{}.Metrics()
}

// ZeroUtilization is the result reported when utilization cannot be computed.
func ZeroUtilization() Utilization {
	return Utilization{UtilizationRate: "0.00"}
}
