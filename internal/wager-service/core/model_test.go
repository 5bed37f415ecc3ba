package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupStatusOf(t *testing.T) {
	leg := func(s Status) Wager { return Wager{Status: s} }

	cases := []struct {
		name string
		legs []Wager
		want Status
	}{
		{"no legs", nil, StatusPending},
		{"all pending", []Wager{leg(StatusPending), leg(StatusPending)}, StatusPending},
		{"won and pending", []Wager{leg(StatusWon), leg(StatusPending)}, StatusPending},
		{"all won", []Wager{leg(StatusWon), leg(StatusWon)}, StatusWon},
		{"one lost settles immediately", []Wager{leg(StatusLost), leg(StatusPending)}, StatusLost},
		{"lost beats won", []Wager{leg(StatusWon), leg(StatusLost)}, StatusLost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GroupStatusOf(tc.legs))
		})
	}
}

func TestValidSelection(t *testing.T) {
	assert.True(t, ValidSelection(SelectionHome))
	assert.True(t, ValidSelection(SelectionDraw))
	assert.True(t, ValidSelection(SelectionAway))
	assert.False(t, ValidSelection("2-1"))
	assert.False(t, ValidSelection(""))
}
