package shift

import "time"

// Hard cap on slots per shift so a degenerate interval config (e.g. 1 minute
// on a week-long shift) cannot blow up sweeps or responses.
const maxSlotsPerShift = 1024

func (s *Shift) Interval() time.Duration {
	return time.Duration(s.RequiredCheckinIntervalMins) * time.Minute
}

func (s *Shift) Grace() time.Duration {
	return time.Duration(s.GraceMinutes) * time.Minute
}

// GraceDeadline is the last instant an attendance still counts as on time.
// The boundary is inclusive: recording exactly at the deadline is ON_TIME.
func (s *Shift) GraceDeadline() time.Time {
	return s.StartsAt.Add(s.Grace())
}

// SlotStarts returns every mandatory check-in slot boundary:
// starts_at, starts_at+interval, ... strictly before ends_at.
func (s *Shift) SlotStarts() []time.Time {
	if s.RequiredCheckinIntervalMins <= 0 || !s.EndsAt.After(s.StartsAt) {
		return nil
	}

	interval := s.Interval()
	starts := make([]time.Time, 0, 8)
	for t := s.StartsAt; t.Before(s.EndsAt); t = t.Add(interval) {
		starts = append(starts, t)
		if len(starts) >= maxSlotsPerShift {
			break
		}
	}
	return starts
}

// SlotFor returns the slot boundary the instant t falls into, or false when
// t lies outside the shift or the shift requires no check-ins.
func (s *Shift) SlotFor(t time.Time) (time.Time, bool) {
	if s.RequiredCheckinIntervalMins <= 0 {
		return time.Time{}, false
	}
	if t.Before(s.StartsAt) || !t.Before(s.EndsAt) {
		return time.Time{}, false
	}

	elapsed := t.Sub(s.StartsAt)
	k := elapsed / s.Interval()
	return s.StartsAt.Add(k * s.Interval()), true
}

// SlotDeadline is the instant a slot is declared missed: a check-in anywhere
// in [slotStart, slotStart+interval+grace) satisfies the slot.
func (s *Shift) SlotDeadline(slotStart time.Time) time.Time {
	return slotStart.Add(s.Interval()).Add(s.Grace())
}

// NextSlotStart is the boundary following windowStart. When it lands at or
// past ends_at the shift has no further windows to police.
func (s *Shift) NextSlotStart(windowStart time.Time) time.Time {
	return windowStart.Add(s.Interval())
}

// HasWindowsAfter reports whether any mandatory window remains after the
// given one. Forgiving the final window leaves nothing left to miss.
func (s *Shift) HasWindowsAfter(windowStart time.Time) bool {
	return s.NextSlotStart(windowStart).Before(s.EndsAt)
}
