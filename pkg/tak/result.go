package tak

import "fmt"

type ResultKind int8

const (
	Ongoing ResultKind = iota
	Win
	Draw
	Unterminated
)

type Reason int8

const (
	ReasonNone Reason = iota
	ReasonRoad
	ReasonFlats
	ReasonResignation
	ReasonIllegalMove
	ReasonTimeout
	ReasonCrash
	ReasonProtocol
	ReasonForfeit
	ReasonRepetition
	ReasonMoveLimit
	ReasonAborted
)

var reasonNames = [...]string{
	ReasonNone:        "none",
	ReasonRoad:        "road",
	ReasonFlats:       "flats",
	ReasonResignation: "resignation",
	ReasonIllegalMove: "illegal move",
	ReasonTimeout:     "timeout",
	ReasonCrash:       "crash",
	ReasonProtocol:    "protocol error",
	ReasonForfeit:     "forfeit",
	ReasonRepetition:  "repetition",
	ReasonMoveLimit:   "move limit",
	ReasonAborted:     "aborted",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Result is the outcome of a game. Winner is meaningful only for Win.
type Result struct {
	Kind   ResultKind
	Winner Color
	Reason Reason
}

func WinFor(c Color, reason Reason) Result {
	return Result{Kind: Win, Winner: c, Reason: reason}
}

func DrawBy(reason Reason) Result {
	return Result{Kind: Draw, Reason: reason}
}

func (r Result) Terminal() bool {
	return r.Kind == Win || r.Kind == Draw
}

// Score returns the points earned by color c: 1, 0.5 or 0.
func (r Result) Score(c Color) float64 {
	switch r.Kind {
	case Win:
		if r.Winner == c {
			return 1
		}
	case Draw:
		return 0.5
	}
	return 0
}

// PTN returns the result token used in game records.
func (r Result) PTN() string {
	switch r.Kind {
	case Win:
		var mark = "1"
		switch r.Reason {
		case ReasonRoad:
			mark = "R"
		case ReasonFlats:
			mark = "F"
		}
		if r.Winner == White {
			return mark + "-0"
		}
		return "0-" + mark
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

func (r Result) String() string {
	switch r.Kind {
	case Ongoing:
		return "ongoing"
	case Win:
		return fmt.Sprintf("%v wins by %v", r.Winner, r.Reason)
	case Draw:
		return fmt.Sprintf("draw by %v", r.Reason)
	}
	return fmt.Sprintf("unterminated (%v)", r.Reason)
}
