package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodDateOnlyCoversWholeEndDay(t *testing.T) {
	p, err := ParsePeriod("2026-01-01", "2026-01-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.True(t, p.End.After(time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, p.End.Before(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParsePeriodRFC3339(t *testing.T) {
	p, err := ParsePeriod("2026-01-01T09:00:00Z", "2026-01-01T18:00:00Z", nil)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, p.End.Sub(p.Start))
}

func TestParsePeriodRejectsInvalidInput(t *testing.T) {
	_, err := ParsePeriod("", "2026-01-31", time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ParsePeriod("2026-02-01", "2026-01-01", time.UTC)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ParsePeriod("01/02/2026", "2026-03-01", time.UTC)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestMonthPeriod(t *testing.T) {
	feb := MonthPeriod(2024, time.February, time.UTC)
	assert.Equal(t, 29, feb.End.Day())
	assert.Equal(t, time.February, feb.End.Month())
	assert.Equal(t, 1, feb.Start.Day())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleManager, ParseRole("manager"))
	assert.Equal(t, RolePartner, ParseRole("partner"))
	assert.Equal(t, RoleUser, ParseRole("guest"))
	assert.True(t, RoleManager.IsBackOffice())
	assert.False(t, RolePartner.IsBackOffice())
}
