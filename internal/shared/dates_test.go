package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLongDateTime(t *testing.T) {
	ts := time.Date(2025, time.March, 5, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "5 de março de 2025", LongDate(ts))
	assert.Equal(t, "5 de março de 2025 às 09:07", LongDateTime(ts))
	assert.Equal(t, "dezembro", MonthName(time.December))
	assert.Empty(t, MonthName(0))
}
