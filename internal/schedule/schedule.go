// Package schedule expands a tournament format into an ordered list of games.
// It is pure: the same options always produce the same schedule.
package schedule

import (
	"errors"
	"fmt"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrConfig = errors.New("invalid tournament")

type Format int

const (
	RoundRobin Format = iota
	BookTest
	Gauntlet
)

var formatNames = [...]string{"round-robin", "book-test", "gauntlet"}

func (f Format) String() string {
	return formatNames[f]
}

func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if name == s {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown format %q", ErrConfig, s)
}

// Entry is one scheduled game. Games with the same Pair share an opening and
// engines with colors swapped.
type Entry struct {
	Index        int
	Pair         int
	White        domain.EngineID
	Black        domain.EngineID
	OpeningIndex int
	Opening      domain.Opening
	Size         int
	HalfKomi     int
	// MoveLimit is the full move count after which the game is drawn, 0 keeps
	// the board default.
	MoveLimit    int
	TimeControl  domain.TimeControl
}

type Options struct {
	Format   Format
	Engines  int
	Openings []domain.Opening
	// Games is the schedule length; 0 plays every pairing on every opening once.
	Games int
	// Rounds is an alternative to Games: every pairing with both colors on
	// Rounds consecutive openings.
	Rounds int
	// StartIndex is the opening the schedule begins with.
	StartIndex  int
	Size        int
	HalfKomi    int
	MoveLimit   int
	TimeControl domain.TimeControl
}

// Validate reports configuration errors that prevent any game from starting.
func (o Options) Validate() error {
	switch {
	case o.Engines < 1:
		return fmt.Errorf("%w: no engines", ErrConfig)
	case o.Format == RoundRobin && o.Engines < 2:
		return fmt.Errorf("%w: round robin needs at least 2 engines", ErrConfig)
	case o.Format == Gauntlet && o.Engines < 3:
		return fmt.Errorf("%w: gauntlet needs at least 3 engines", ErrConfig)
	case o.Games < 0:
		return fmt.Errorf("%w: negative game count", ErrConfig)
	case o.Rounds < 0:
		return fmt.Errorf("%w: negative round count", ErrConfig)
	case o.Games > 0 && o.Rounds > 0:
		return fmt.Errorf("%w: games and rounds are exclusive", ErrConfig)
	case o.StartIndex < 0:
		return fmt.Errorf("%w: negative opening start index", ErrConfig)
	case o.MoveLimit < 0:
		return fmt.Errorf("%w: negative move limit", ErrConfig)
	}
	if _, _, err := tak.Reserves(o.Size); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

type pairing struct {
	first, second domain.EngineID
}

// pairings lists the engine pairs played on every opening. Each pair is
// played twice, first with first as white.
func pairings(format Format, engines int) []pairing {
	var result []pairing
	switch format {
	case RoundRobin:
		for i := 0; i < engines; i++ {
			for j := i + 1; j < engines; j++ {
				result = append(result, pairing{domain.EngineID(i), domain.EngineID(j)})
			}
		}
	case BookTest:
		for i := 0; i < engines; i++ {
			for j := i; j < engines; j++ {
				result = append(result, pairing{domain.EngineID(i), domain.EngineID(j)})
			}
		}
	case Gauntlet:
		for j := 1; j < engines; j++ {
			result = append(result, pairing{0, domain.EngineID(j)})
		}
	}
	return result
}

// Build produces the schedule. Openings are used in order from StartIndex and
// cycled when the schedule is longer than one pass.
func Build(o Options) ([]Entry, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	var openings = o.Openings
	if len(openings) == 0 {
		openings = []domain.Opening{{}}
	}
	var pairs = pairings(o.Format, o.Engines)
	var perOpening = 2 * len(pairs)
	var total = o.Games
	if o.Rounds > 0 {
		total = perOpening * o.Rounds
	} else if total == 0 {
		total = perOpening * len(openings)
	}

	var games = roundGames(o.Format, pairs)
	var result = make([]Entry, 0, total)
	for round := 0; len(result) < total; round++ {
		var openingIndex = (o.StartIndex + round) % len(openings)
		for _, g := range games {
			if len(result) == total {
				break
			}
			result = append(result, Entry{
				Index:        len(result),
				Pair:         round*len(pairs) + g.pair,
				White:        g.white,
				Black:        g.black,
				OpeningIndex: openingIndex,
				Opening:      openings[openingIndex],
				Size:         o.Size,
				HalfKomi:     o.HalfKomi,
				MoveLimit:    o.MoveLimit,
				TimeControl:  o.TimeControl,
			})
		}
	}
	return result, nil
}

type game struct {
	pair         int
	white, black domain.EngineID
}

// roundGames orders the games of one opening. Round robin and book test play
// each pair back to back; a gauntlet gives the champion white against every
// challenger before the return games.
func roundGames(format Format, pairs []pairing) []game {
	var result []game
	if format == Gauntlet {
		for i, p := range pairs {
			result = append(result, game{i, p.first, p.second})
		}
		for i, p := range pairs {
			result = append(result, game{i, p.second, p.first})
		}
		return result
	}
	for i, p := range pairs {
		result = append(result, game{i, p.first, p.second}, game{i, p.second, p.first})
	}
	return result
}
