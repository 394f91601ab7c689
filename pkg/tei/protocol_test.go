package tei

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

func mustMove(s string) tak.Move {
	var m, err = tak.ParseMove(s)
	if err != nil {
		panic(err)
	}
	return m
}

func TestGuiCommandRoundTrip(t *testing.T) {
	var tests = []struct {
		command GuiCommand
		line    string
	}{
		{Tei{}, "tei"},
		{IsReady{}, "isready"},
		{Stop{}, "stop"},
		{Quit{}, "quit"},
		{TeiNewGame{Size: 6}, "teinewgame 6"},
		{SetOption{Name: "HalfKomi", Value: "4"}, "setoption name HalfKomi value 4"},
		{SetOption{Name: "Book File", Value: "a b"}, "setoption name Book File value a b"},
		{Position{}, "position startpos"},
		{Position{Moves: []tak.Move{mustMove("a1"), mustMove("e5")}}, "position startpos moves a1 e5"},
		{Position{TPS: "x3/x3/1,x2 2 1"}, "position tps x3/x3/1,x2 2 1"},
		{Position{TPS: "x3/x3/1,x2 2 1", Moves: []tak.Move{mustMove("3b2>12*")}},
			"position tps x3/x3/1,x2 2 1 moves 3b2>12*"},
		{Go{WTime: 60 * time.Second, BTime: 59500 * time.Millisecond, WInc: time.Second, BInc: time.Second},
			"go wtime 60000 btime 59500 winc 1000 binc 1000"},
		{Go{MoveTime: 250 * time.Millisecond}, "go wtime 0 btime 0 winc 0 binc 0 movetime 250"},
	}
	for i, test := range tests {
		if got := test.command.String(); got != test.line {
			t.Error(i, got, test.line)
		}
		var decoded, err = ParseGuiLine(test.line)
		if err != nil {
			t.Error(i, err)
			continue
		}
		if !reflect.DeepEqual(decoded, test.command) {
			t.Error(i, decoded, test.command)
		}
	}
}

func TestParseGuiLineErrors(t *testing.T) {
	var tests = []string{
		"",
		"hello",
		"teinewgame",
		"teinewgame five",
		"setoption value 3",
		"position",
		"position fen abc",
		"position startpos x3",
		"position tps x3/x3/x3 1",
		"position startpos moves a1 z9",
	}
	for _, test := range tests {
		if _, err := ParseGuiLine(test); !errors.Is(err, ErrProtocol) {
			t.Error(test, err)
		}
	}
}

func TestParseEngineLine(t *testing.T) {
	var tests = []struct {
		line    string
		command EngineCommand
	}{
		{"teiok", TeiOK{}},
		{"readyok", ReadyOK{}},
		{"id name Tiltak 0.1", ID{Field: "name", Value: "Tiltak 0.1"}},
		{"id author someone", ID{Field: "author", Value: "someone"}},
		{"bestmove Cc3", BestMove{Move: mustMove("Cc3")}},
		{"bestmove 2a1+11 ponder b2", BestMove{Move: mustMove("2a1+11"), Ponder: mustMove("b2"), HasPonder: true}},
		{"bestmove resign", BestMove{Resign: true}},
		{"", Other{Line: ""}},
		{"thinking hard", Other{Line: "thinking hard"}},
		{"option name Threads type spin default 1 min 1 max 256",
			OptionDecl{Option: Declaration{Name: "Threads", Type: Spin, Default: "1", Min: 1, Max: 256}}},
		{"info depth 7 seldepth 9 score cp -35 nodes 12000 nps 6000 time 2000 pv a1 b2",
			Info{Depth: 7, SelDepth: 9, Score: -35, HasScore: true, Nodes: 12000, NPS: 6000,
				Time: 2 * time.Second, PV: []string{"a1", "b2"}}},
		{"info depth x score mate 3 string hello", Info{}},
	}
	for i, test := range tests {
		var got, err = ParseEngineLine(test.line)
		if err != nil {
			t.Error(i, err)
			continue
		}
		if !reflect.DeepEqual(got, test.command) {
			t.Error(i, test.line, got)
		}
	}
}

func TestParseEngineLineErrors(t *testing.T) {
	var tests = []string{
		"bestmove",
		"bestmove a9",
		"bestmove 2a1>3",
		"id name",
		"option name X",
		"option type check default false",
	}
	for _, test := range tests {
		var _, err = ParseEngineLine(test)
		var protocolErr *ProtocolError
		if !errors.As(err, &protocolErr) || !errors.Is(err, ErrProtocol) {
			t.Error(test, err)
		}
	}
}

func TestBestMoveRoundTrip(t *testing.T) {
	var b, _ = tak.New(4, 0)
	for _, m := range b.LegalMoves() {
		var line = BestMove{Move: m}.String()
		var got, err = ParseEngineLine(line)
		if err != nil || !reflect.DeepEqual(got, BestMove{Move: m}) {
			t.Error(line, got, err)
		}
	}
}
