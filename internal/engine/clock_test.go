package engine

import (
	"testing"
	"time"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

func TestClockCharge(t *testing.T) {
	var clock = NewClock(domain.TimeControl{Base: 10 * time.Second, Increment: time.Second}, 100*time.Millisecond)
	var tests = []struct {
		side      tak.Color
		elapsed   time.Duration
		ok        bool
		remaining time.Duration
	}{
		{tak.White, 3 * time.Second, true, 8 * time.Second},
		{tak.Black, 0, true, 11 * time.Second},
		{tak.White, 8050 * time.Millisecond, true, time.Second},
		{tak.Black, 11100 * time.Millisecond, true, time.Second},
		{tak.White, 1200 * time.Millisecond, false, 0},
	}
	for i, test := range tests {
		var ok = clock.Charge(test.side, test.elapsed)
		if ok != test.ok || clock.Remaining(test.side) != test.remaining {
			t.Error(i, ok, clock.Remaining(test.side))
		}
	}
	var limits = clock.Limits()
	if limits.WTime != 0 || limits.BTime != time.Second || limits.WInc != time.Second {
		t.Error(limits)
	}
	if clock.Deadline(tak.Black) != 1100*time.Millisecond {
		t.Error(clock.Deadline(tak.Black))
	}
}
