package shift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusMissed, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusMissed, true},
		{StatusInProgress, StatusScheduled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusMissed, StatusCompleted, false},
		{StatusScheduled, StatusScheduled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_RejectsFromTerminal(t *testing.T) {
	s := &Shift{Status: StatusCompleted}
	assert.True(t, s.IsTerminal())
	assert.False(t, s.Transition(StatusInProgress))
	assert.Equal(t, StatusCompleted, s.Status)
}

func TestTransition_Advances(t *testing.T) {
	s := &Shift{Status: StatusScheduled}
	assert.True(t, s.Transition(StatusInProgress))
	assert.True(t, s.Transition(StatusMissed))
	assert.True(t, s.IsTerminal())
}
