package arena

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

type EngineScore struct {
	ID     domain.EngineID `json:"id"`
	Name   string          `json:"name"`
	Games  int             `json:"games"`
	Wins   int             `json:"wins"`
	Draws  int             `json:"draws"`
	Losses int             `json:"losses"`
	Points float64         `json:"points"`
}

// PairScore is the head-to-head record of engine A against engine B, A < B.
type PairScore struct {
	A           domain.EngineID `json:"a"`
	B           domain.EngineID `json:"b"`
	Trinomial   Trinomial       `json:"trinomial"`
	Pentanomial Pentanomial     `json:"pentanomial"`
}

type pairKey struct {
	a, b domain.EngineID
}

type Snapshot struct {
	Games        int           `json:"games"`
	Unterminated int           `json:"unterminated"`
	Engines      []EngineScore `json:"engines"`
	Pairs        []PairScore   `json:"pairs"`
}

// Standings accumulates results. It is safe for concurrent use; only
// terminated games change scores.
type Standings struct {
	mu           sync.Mutex
	engines      []EngineScore
	pairs        map[pairKey]*PairScore
	halves       map[int]float64
	games        int
	unterminated int
}

func NewStandings(names []string) *Standings {
	var s = &Standings{
		pairs:  make(map[pairKey]*PairScore),
		halves: make(map[int]float64),
	}
	for i, name := range names {
		s.engines = append(s.engines, EngineScore{ID: domain.EngineID(i), Name: name})
	}
	return s
}

func (s *Standings) Record(g *GameRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !g.Result.Terminal() {
		s.unterminated++
		return
	}
	s.games++
	s.addScore(g.Entry.White, g.Result.Score(tak.White))
	s.addScore(g.Entry.Black, g.Result.Score(tak.Black))

	if g.Entry.White == g.Entry.Black {
		return
	}
	var key = pairKey{g.Entry.White, g.Entry.Black}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	var pair = s.pairs[key]
	if pair == nil {
		pair = &PairScore{A: key.a, B: key.b}
		s.pairs[key] = pair
	}
	var score = g.Score(key.a)
	pair.Trinomial.Add(score)
	if first, ok := s.halves[g.Entry.Pair]; ok {
		delete(s.halves, g.Entry.Pair)
		pair.Pentanomial.Add(first, score)
	} else {
		s.halves[g.Entry.Pair] = score
	}
}

func (s *Standings) addScore(id domain.EngineID, score float64) {
	var e = &s.engines[id]
	e.Games++
	e.Points += score
	switch score {
	case 1:
		e.Wins++
	case 0:
		e.Losses++
	default:
		e.Draws++
	}
}

// Pair returns the head-to-head record of a against b from a's point of view.
func (s *Standings) Pair(a, b domain.EngineID) PairScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swapped = a > b
	if swapped {
		a, b = b, a
	}
	var result = PairScore{A: a, B: b}
	if pair := s.pairs[pairKey{a, b}]; pair != nil {
		result = *pair
	}
	if swapped {
		result = result.reversed()
	}
	return result
}

func (p PairScore) reversed() PairScore {
	var t, q = p.Trinomial, p.Pentanomial
	return PairScore{
		A:           p.B,
		B:           p.A,
		Trinomial:   Trinomial{Wins: t.Losses, Draws: t.Draws, Losses: t.Wins},
		Pentanomial: Pentanomial{LL: q.WW, DL: q.WD, DD: q.DD, WL: q.WL, WD: q.DL, WW: q.LL},
	}
}

// Snapshot returns a copy with engines ordered by points.
func (s *Standings) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result = Snapshot{
		Games:        s.games,
		Unterminated: s.unterminated,
		Engines:      append([]EngineScore(nil), s.engines...),
	}
	sort.SliceStable(result.Engines, func(i, j int) bool {
		return result.Engines[i].Points > result.Engines[j].Points
	})
	for _, pair := range s.pairs {
		result.Pairs = append(result.Pairs, *pair)
	}
	sort.Slice(result.Pairs, func(i, j int) bool {
		var x, y = result.Pairs[i], result.Pairs[j]
		return x.A < y.A || x.A == y.A && x.B < y.B
	})
	return result
}

func (s Snapshot) String() string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "%v games", s.Games)
	if s.Unterminated != 0 {
		fmt.Fprintf(sb, " (+%v unterminated)", s.Unterminated)
	}
	sb.WriteString("\n")
	for i, e := range s.Engines {
		var pct = 0.0
		if e.Games != 0 {
			pct = 100 * e.Points / float64(e.Games)
		}
		fmt.Fprintf(sb, "%2d. %-20s %6.1f / %-4d %5.1f%%  +%d =%d -%d\n",
			i+1, e.Name, e.Points, e.Games, pct, e.Wins, e.Draws, e.Losses)
	}
	return sb.String()
}
