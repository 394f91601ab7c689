package engine

import (
	"fmt"
	"time"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

// Clock is a Fischer clock for both sides of one game. Overhead is the
// allowance on top of the remaining time before a flag falls.
type Clock struct {
	remaining [2]time.Duration
	increment time.Duration
	overhead  time.Duration
	side      tak.Color
	start     time.Time
}

func NewClock(tc domain.TimeControl, overhead time.Duration) *Clock {
	return &Clock{
		remaining: [2]time.Duration{tc.Base, tc.Base},
		increment: tc.Increment,
		overhead:  overhead,
	}
}

func (c *Clock) String() string {
	return fmt.Sprintf("White: %v Black: %v", c.remaining[tak.White], c.remaining[tak.Black])
}

func (c *Clock) Remaining(side tak.Color) time.Duration {
	return c.remaining[side]
}

// Deadline is how long side may think before losing on time.
func (c *Clock) Deadline(side tak.Color) time.Duration {
	return c.remaining[side] + c.overhead
}

func (c *Clock) Limits() tei.Go {
	return tei.Go{
		WTime: c.remaining[tak.White],
		BTime: c.remaining[tak.Black],
		WInc:  c.increment,
		BInc:  c.increment,
	}
}

func (c *Clock) Start(side tak.Color) {
	c.side = side
	c.start = time.Now()
}

// Stop charges the running side and reports the elapsed time. ok is false
// when the flag fell.
func (c *Clock) Stop() (elapsed time.Duration, ok bool) {
	elapsed = time.Since(c.start)
	return elapsed, c.Charge(c.side, elapsed)
}

// Charge subtracts elapsed from side's clock and adds the increment.
func (c *Clock) Charge(side tak.Color, elapsed time.Duration) bool {
	if elapsed > c.remaining[side]+c.overhead {
		c.remaining[side] = 0
		return false
	}
	c.remaining[side] -= elapsed
	if c.remaining[side] < 0 {
		c.remaining[side] = 0
	}
	c.remaining[side] += c.increment
	return true
}
