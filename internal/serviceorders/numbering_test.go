package serviceorders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextOSNumber(t *testing.T) {
	cases := []struct {
		name string
		last string
		year int
		want string
	}{
		{"first of year", "", 2026, "OS-2026-0001"},
		{"increments", "OS-2026-0001", 2026, "OS-2026-0002"},
		{"pads", "OS-2026-0004", 2026, "OS-2026-0005"},
		{"grows past four digits", "OS-2026-9999", 2026, "OS-2026-10000"},
		{"restarts on new year", "OS-2025-0137", 2026, "OS-2026-0001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextOSNumber(tc.last, tc.year))
		})
	}
}

func ptrInt(v int) *int { return &v }

func TestComputeTotalHours(t *testing.T) {
	start := time.Date(2026, 1, 24, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 24, 13, 0, 0, 0, time.UTC)

	assert.Equal(t, "4", ComputeTotalHours(start, &end, nil).String())
	assert.Equal(t, "4", ComputeTotalHours(start, &end, ptrInt(0)).String())
	assert.Equal(t, "3", ComputeTotalHours(start, &end, ptrInt(60)).String())

	shortEnd := time.Date(2026, 1, 24, 10, 0, 0, 0, time.UTC)
	assert.True(t, ComputeTotalHours(start, &shortEnd, ptrInt(120)).IsZero())

	odd := time.Date(2026, 1, 24, 9, 20, 0, 0, time.UTC)
	assert.Equal(t, "0.33", ComputeTotalHours(start, &odd, nil).String())

	assert.True(t, ComputeTotalHours(start, nil, ptrInt(30)).IsZero())
}

func TestStatusTransitionsOnlyMoveForward(t *testing.T) {
	assert.True(t, StatusDraft.CanMoveTo(StatusSent))
	assert.True(t, StatusSent.CanMoveTo(StatusClosed))
	assert.False(t, StatusClosed.CanMoveTo(StatusInProgress))
	assert.False(t, StatusSent.CanMoveTo(StatusSent))
	assert.False(t, StatusDraft.CanMoveTo("archived"))
	assert.Equal(t, "Em Progresso", StatusInProgress.Label())
}
