package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChizhovVadim/takmatch/internal/arena"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

func game(index int, result tak.Result, moves ...string) *arena.GameRecord {
	var g = &arena.GameRecord{
		Entry:    schedule.Entry{Index: index, Size: 5},
		White:    "alpha",
		Black:    "beta",
		Result:   result,
		Started:  time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		Finished: time.Date(2024, 3, 9, 12, 1, 0, 0, time.UTC),
	}
	for _, s := range moves {
		var m, _ = tak.ParseMove(s)
		g.Moves = append(g.Moves, arena.PlayedMove{Move: m})
	}
	return g
}

func TestStore(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "data", "results.db")
	var s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err = s.Record(game(0, tak.DrawBy(tak.ReasonFlats))); !errors.Is(err, ErrNoRun) {
		t.Error(err)
	}

	var ctx = context.Background()
	run, err := s.StartRun(ctx, Run{Format: "round-robin", Engines: []string{"alpha", "beta"}, Size: 5, TimeControl: "60", Games: 2})
	if err != nil {
		t.Fatal(err)
	}
	if s.RunID() != run.ID {
		t.Error(s.RunID())
	}
	var second = game(1, tak.WinFor(tak.Black, tak.ReasonTimeout), "a1")
	second.Fault = "engine alpha: timeout"
	for _, g := range []*arena.GameRecord{second, game(0, tak.WinFor(tak.White, tak.ReasonRoad), "a1", "e5")} {
		if err = s.Record(g); err != nil {
			t.Fatal(err)
		}
	}

	games, err := s.Games(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 || games[0].Number != 1 || games[1].Number != 2 {
		t.Fatal(games)
	}
	if games[0].Result != "R-0" || games[0].Reason != "road" || games[0].Plies != 2 || !strings.Contains(games[0].PTN, "1. a1 e5 R-0") {
		t.Error(games[0])
	}
	if games[1].Fault != second.Fault || !games[1].Finished.Equal(second.Finished) {
		t.Error(games[1])
	}

	runs, err := s.Runs(ctx)
	if err != nil || len(runs) != 1 || runs[0].ID != run.ID || len(runs[0].Engines) != 2 {
		t.Error(runs, err)
	}
}
