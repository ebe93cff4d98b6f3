package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testShift(intervalMins, graceMins int) *Shift {
	return &Shift{
		StartsAt:                    time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		EndsAt:                      time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		RequiredCheckinIntervalMins: intervalMins,
		GraceMinutes:                graceMins,
	}
}

func TestSlotStarts(t *testing.T) {
	s := testShift(60, 5)

	starts := s.SlotStarts()
	assert.Len(t, starts, 8)
	assert.Equal(t, s.StartsAt, starts[0])
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), starts[7])
}

func TestSlotStarts_NoInterval(t *testing.T) {
	s := testShift(0, 5)
	assert.Nil(t, s.SlotStarts())
}

func TestSlotStarts_Capped(t *testing.T) {
	s := testShift(1, 5)
	s.EndsAt = s.StartsAt.Add(7 * 24 * time.Hour)

	assert.Len(t, s.SlotStarts(), maxSlotsPerShift)
}

func TestSlotFor(t *testing.T) {
	s := testShift(60, 5)

	slot, ok := s.SlotFor(time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, s.StartsAt, slot)

	slot, ok = s.SlotFor(time.Date(2026, 3, 10, 15, 59, 59, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), slot)

	_, ok = s.SlotFor(time.Date(2026, 3, 10, 7, 59, 59, 0, time.UTC))
	assert.False(t, ok)

	// ends_at itself lies outside the shift
	_, ok = s.SlotFor(s.EndsAt)
	assert.False(t, ok)
}

func TestSlotDeadline(t *testing.T) {
	s := testShift(60, 5)

	deadline := s.SlotDeadline(s.StartsAt)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC), deadline)
}

func TestGraceDeadline(t *testing.T) {
	s := testShift(60, 5)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 5, 0, 0, time.UTC), s.GraceDeadline())
}

func TestHasWindowsAfter(t *testing.T) {
	s := testShift(60, 5)

	lastSlot := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	assert.False(t, s.HasWindowsAfter(lastSlot))

	secondToLast := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	assert.True(t, s.HasWindowsAfter(secondToLast))
}
