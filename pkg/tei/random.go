package tei

import (
	"context"
	"math/rand"
	"sync"
)

// RandomEngine plays a uniformly random legal move. It is the reference
// opponent for smoke tests.
type RandomEngine struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomEngine(seed int64) *RandomEngine {
	return &RandomEngine{rnd: rand.New(rand.NewSource(seed))}
}

func (e *RandomEngine) Clear() {}

func (e *RandomEngine) Search(ctx context.Context, params SearchParams) SearchResult {
	var moves = params.Board.LegalMoves()
	if len(moves) == 0 {
		return SearchResult{Resign: true}
	}
	e.mu.Lock()
	var m = moves[e.rnd.Intn(len(moves))]
	e.mu.Unlock()
	return SearchResult{
		Move: m,
		Info: Info{Depth: 1, Nodes: int64(len(moves)), PV: []string{m.String()}},
	}
}
