package httpserver

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/ChizhovVadim/takmatch/internal/arena"
)

// Hub keeps the latest state of every worker slot and fans updates out to
// websocket subscribers. It implements arena.Watcher.
type Hub struct {
	mu          sync.RWMutex
	games       map[int]arena.GameState
	subscribers map[int]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{
		games:       make(map[int]arena.GameState),
		subscribers: make(map[int]map[chan []byte]struct{}),
	}
}

func (h *Hub) Update(state arena.GameState) {
	var msg, err = json.Marshal(state)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.games[state.Slot] = state
	for c := range h.subscribers[state.Slot] {
		select {
		case c <- msg:
		default:
		}
	}
}

func (h *Hub) Games() []arena.GameState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var result = make([]arena.GameState, 0, len(h.games))
	for _, g := range h.games {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Slot < result[j].Slot
	})
	return result
}

func (h *Hub) Game(slot int) (arena.GameState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var g, ok = h.games[slot]
	return g, ok
}

// subscribe registers a receiver of slot updates. Slow receivers miss
// updates rather than block the game.
func (h *Hub) subscribe(slot int) (<-chan []byte, func()) {
	var c = make(chan []byte, 64)
	h.mu.Lock()
	if h.subscribers[slot] == nil {
		h.subscribers[slot] = make(map[chan []byte]struct{})
	}
	h.subscribers[slot][c] = struct{}{}
	h.mu.Unlock()
	return c, func() {
		h.mu.Lock()
		delete(h.subscribers[slot], c)
		h.mu.Unlock()
	}
}
