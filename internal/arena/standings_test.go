package arena

import (
	"strings"
	"testing"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

func record(index, pair int, white, black domain.EngineID, result tak.Result) *GameRecord {
	return &GameRecord{
		Entry:  schedule.Entry{Index: index, Pair: pair, White: white, Black: black},
		Result: result,
	}
}

func TestStandings(t *testing.T) {
	var s = NewStandings([]string{"a", "b", "c"})
	s.Record(record(0, 0, 0, 1, tak.WinFor(tak.White, tak.ReasonRoad)))
	s.Record(record(1, 0, 1, 0, tak.DrawBy(tak.ReasonRepetition)))
	s.Record(record(2, 1, 0, 2, tak.WinFor(tak.Black, tak.ReasonTimeout)))
	s.Record(record(3, 1, 2, 0, tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonAborted}))
	s.Record(record(4, 2, 2, 1, tak.WinFor(tak.Black, tak.ReasonForfeit)))

	var snapshot = s.Snapshot()
	if snapshot.Games != 4 || snapshot.Unterminated != 1 {
		t.Fatal(snapshot)
	}
	var expected = []EngineScore{
		{ID: 0, Name: "a", Games: 3, Wins: 1, Draws: 1, Losses: 1, Points: 1.5},
		{ID: 1, Name: "b", Games: 3, Wins: 1, Draws: 1, Losses: 1, Points: 1.5},
		{ID: 2, Name: "c", Games: 2, Wins: 1, Draws: 0, Losses: 1, Points: 1},
	}
	for i := range expected {
		if snapshot.Engines[i] != expected[i] {
			t.Error(i, snapshot.Engines[i])
		}
	}

	var ab = s.Pair(0, 1)
	if ab.Trinomial != (Trinomial{Wins: 1, Draws: 1}) || ab.Pentanomial != (Pentanomial{WD: 1}) {
		t.Error(ab)
	}
	var ba = s.Pair(1, 0)
	if ba.A != 1 || ba.Trinomial != (Trinomial{Losses: 1, Draws: 1}) || ba.Pentanomial != (Pentanomial{DL: 1}) {
		t.Error(ba)
	}
	var ac = s.Pair(0, 2)
	if ac.Trinomial != (Trinomial{Losses: 1}) || ac.Pentanomial.Pairs() != 0 {
		t.Error("a pair with an unterminated game is not a pentanomial sample", ac)
	}
	if !strings.Contains(snapshot.String(), "4 games (+1 unterminated)") {
		t.Error(snapshot.String())
	}
}

func TestStandingsSelfPlay(t *testing.T) {
	var s = NewStandings([]string{"solo"})
	s.Record(record(0, 0, 0, 0, tak.WinFor(tak.White, tak.ReasonFlats)))
	s.Record(record(1, 0, 0, 0, tak.DrawBy(tak.ReasonFlats)))
	var snapshot = s.Snapshot()
	var e = snapshot.Engines[0]
	if e.Games != 4 || e.Points != 2 || e.Wins != 1 || e.Losses != 1 || e.Draws != 2 {
		t.Error(e)
	}
	if len(snapshot.Pairs) != 0 {
		t.Error(snapshot.Pairs)
	}
}
