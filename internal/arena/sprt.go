package arena

import (
	"errors"
	"fmt"
	"math"
)

var ErrSPRT = errors.New("invalid sprt parameters")

// SPRT is a generalized sequential probability ratio test on normalized Elo,
// evaluated over game pairs.
type SPRT struct {
	Elo0, Elo1  float64
	Alpha, Beta float64
}

func (p SPRT) Validate() error {
	if !(p.Alpha > 0 && p.Alpha < 1 && p.Beta > 0 && p.Beta < 1) {
		return fmt.Errorf("%w: alpha and beta must be in (0, 1)", ErrSPRT)
	}
	if p.Elo0 >= p.Elo1 {
		return fmt.Errorf("%w: elo0 must be below elo1", ErrSPRT)
	}
	return nil
}

// Bounds returns the log-likelihood ratios at which H0 and H1 are accepted.
func (p SPRT) Bounds() (lower, upper float64) {
	return math.Log(p.Beta / (1 - p.Alpha)), math.Log((1 - p.Beta) / p.Alpha)
}

func (p SPRT) LLR(penta Pentanomial) float64 {
	var mean, variance, n = penta.moments()
	if n == 0 || variance == 0 {
		return 0
	}
	var t0 = p.Elo0 / eloScale
	var t1 = p.Elo1 / eloScale
	var t = (mean - 0.5) / math.Sqrt(2*variance)
	return float64(n) * math.Log((1+(t-t0)*(t-t0))/(1+(t-t1)*(t-t1)))
}

type Decision int

const (
	Continue Decision = iota
	AcceptH0
	AcceptH1
)

func (d Decision) String() string {
	switch d {
	case AcceptH0:
		return "H0 accepted"
	case AcceptH1:
		return "H1 accepted"
	}
	return "continue"
}

func (p SPRT) Decide(penta Pentanomial) Decision {
	var llr = p.LLR(penta)
	var lower, upper = p.Bounds()
	switch {
	case llr <= lower:
		return AcceptH0
	case llr >= upper:
		return AcceptH1
	}
	return Continue
}
