package shared

import (
	"fmt"
	"time"
)

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// MonthName returns the lowercase pt-BR month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// LongDate formats t as "15 de outubro de 2025".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), MonthName(t.Month()), t.Year())
}

// LongDateTime formats t as "15 de outubro de 2025 às 09:30".
func LongDateTime(t time.Time) string {
	return LongDate(t) + " às " + t.Format("15:04")
}
