package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrTimeControl = errors.New("bad time control")

// EngineID is the index of an engine in the configured engine list.
type EngineID int

type OptionValue struct {
	Name  string
	Value string
}

// EngineSpec describes how to launch an engine.
type EngineSpec struct {
	Name    string
	Path    string
	Args    []string
	Options []OptionValue
}

type TimeControl struct {
	Base      time.Duration
	Increment time.Duration
}

// ParseTimeControl parses "base[+increment]" in seconds, e.g. "60+0.6".
func ParseTimeControl(s string) (TimeControl, error) {
	var base, inc, hasInc = strings.Cut(strings.TrimSpace(s), "+")
	var tc TimeControl
	var err error
	if tc.Base, err = parseSeconds(base); err != nil || tc.Base <= 0 {
		return TimeControl{}, fmt.Errorf("%w: %q", ErrTimeControl, s)
	}
	if hasInc {
		if tc.Increment, err = parseSeconds(inc); err != nil || tc.Increment < 0 {
			return TimeControl{}, fmt.Errorf("%w: %q", ErrTimeControl, s)
		}
	}
	return tc, nil
}

func parseSeconds(s string) (time.Duration, error) {
	var v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(math.Round(v * float64(time.Second))), nil
}

func (tc TimeControl) String() string {
	var format = func(d time.Duration) string {
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	}
	if tc.Increment == 0 {
		return format(tc.Base)
	}
	return format(tc.Base) + "+" + format(tc.Increment)
}

// Opening is a starting position: a TPS (empty for the start position) plus
// moves played from it.
type Opening struct {
	TPS   string
	Moves []tak.Move
}

// Board builds the opening position.
func (o Opening) Board(size, halfKomi int) (*tak.Board, error) {
	var b *tak.Board
	var err error
	if o.TPS == "" {
		b, err = tak.New(size, halfKomi)
	} else {
		b, err = tak.FromTPS(o.TPS, halfKomi)
	}
	if err != nil {
		return nil, err
	}
	if b.Size() != size {
		return nil, fmt.Errorf("opening %v is for size %v, not %v", o, b.Size(), size)
	}
	for _, m := range o.Moves {
		if err := b.Apply(m); err != nil {
			return nil, fmt.Errorf("opening %v: %w", o, err)
		}
	}
	return b, nil
}

func (o Opening) String() string {
	var parts []string
	if o.TPS != "" {
		parts = append(parts, o.TPS)
	}
	for _, m := range o.Moves {
		parts = append(parts, m.String())
	}
	if len(parts) == 0 {
		return "startpos"
	}
	return strings.Join(parts, " ")
}
