package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"nhooyr.io/websocket"

	"github.com/ChizhovVadim/takmatch/internal/arena"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	var hub = NewHub()
	var standings = arena.NewStandings([]string{"alpha", "beta"})
	var srv = httptest.NewServer(New(hub, standings, nil, zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)
	return hub, srv
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	var resp, err = http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestRoutes(t *testing.T) {
	var hub, srv = newTestServer(t)
	hub.Update(arena.GameState{Slot: 1, Game: 3, White: "alpha", Black: "beta", Moves: []string{"a1"}})
	hub.Update(arena.GameState{Slot: 0, Game: 2, White: "beta", Black: "alpha"})

	var games []arena.GameState
	if code := getJSON(t, srv.URL+"/games", &games); code != http.StatusOK || len(games) != 2 || games[0].Slot != 0 {
		t.Error(code, games)
	}
	var game arena.GameState
	if code := getJSON(t, srv.URL+"/games/1", &game); code != http.StatusOK || game.Game != 3 || len(game.Moves) != 1 {
		t.Error(code, game)
	}

	var snapshot arena.Snapshot
	if code := getJSON(t, srv.URL+"/standings", &snapshot); code != http.StatusOK || len(snapshot.Engines) != 2 {
		t.Error(code, snapshot)
	}

	var tests = []struct {
		path string
		code int
	}{
		{"/health", http.StatusOK},
		{"/games/7", http.StatusNotFound},
		{"/games/x", http.StatusBadRequest},
		{"/runs", http.StatusNotFound},
	}
	for i, test := range tests {
		if code := getJSON(t, srv.URL+test.path, nil); code != test.code {
			t.Error(i, test.path, code)
		}
	}
}

func TestGameFeed(t *testing.T) {
	var hub, srv = newTestServer(t)
	hub.Update(arena.GameState{Slot: 0, Game: 1})

	var ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/games/0/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	var read = func() arena.GameState {
		var _, msg, err = c.Read(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var state arena.GameState
		if err := json.Unmarshal(msg, &state); err != nil {
			t.Fatal(err)
		}
		return state
	}
	if state := read(); state.Game != 1 {
		t.Error(state)
	}

	// The subscription is registered before the first message is written.
	hub.Update(arena.GameState{Slot: 1, Game: 9})
	hub.Update(arena.GameState{Slot: 0, Game: 1, Moves: []string{"a1"}, Finished: true})
	if state := read(); len(state.Moves) != 1 || !state.Finished {
		t.Error(state)
	}
}
