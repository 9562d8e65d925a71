// Package money holds the decimal arithmetic shared by billing, payouts and reports.
// Monetary values and hours travel as strings at the storage boundary; they are parsed
// once here and only formatted back to two decimal places on output.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RateMode describes how a rate applies to a service order.
type RateMode string

const (
	// ModeFixed charges (or pays) the rate once per order regardless of hours.
	ModeFixed RateMode = "fixed"
	// ModeHourly multiplies the rate by the order's hours.
	ModeHourly RateMode = "hourly"
)

// Valid reports whether the mode is one of the known values.
func (m RateMode) Valid() bool {
	return m == ModeFixed || m == ModeHourly
}

// Amount applies the rate to one order. Unknown modes contribute nothing.
func (m RateMode) Amount(rate, hours decimal.Decimal) decimal.Decimal {
	switch m {
	case ModeHourly:
		return hours.Mul(rate)
	case ModeFixed:
		return rate
	default:
		return decimal.Zero
	}
}

// Label returns the pt-BR label printed on reports.
func (m RateMode) Label() string {
	if m == ModeFixed {
		return "Fixo"
	}
	return "Por Hora"
}

var brl = message.NewPrinter(language.BrazilianPortuguese)

// Parse converts a stored decimal string. Blank or malformed input counts as zero.
func Parse(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePtr is Parse for nullable columns.
func ParsePtr(raw *string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return Parse(*raw)
}

// Format renders a value with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Percent returns part/whole*100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100))
}

// Ratio returns a/b, or zero when b is zero.
func Ratio(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// FormatBRL renders a currency amount the way reports print it, e.g. "R$ 1.234,50".
func FormatBRL(d decimal.Decimal) string {
	return brl.Sprintf("R$ %.2f", d.Round(2).InexactFloat64())
}

// FormatNumber renders a plain quantity with pt-BR separators and two decimals.
func FormatNumber(d decimal.Decimal) string {
	return brl.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// NullFromText parses a nullable stored value; NULL, blank and malformed input are not Valid.
func NullFromText(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Arg converts a nullable value into a query argument.
func Arg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
