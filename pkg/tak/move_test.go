package tak

import (
	"errors"
	"testing"
)

func TestParseMove(t *testing.T) {
	var tests = []struct {
		text      string
		move      Move
		canonical string
	}{
		{"a1", NewPlacement(Square{0, 0}, Flat), "a1"},
		{"Fc3", NewPlacement(Square{2, 2}, Flat), "c3"},
		{"Sh8", NewPlacement(Square{7, 7}, Wall), "Sh8"},
		{"Cd4", NewPlacement(Square{3, 3}, Capstone), "Cd4"},
		{"a1>", NewSpread(Square{0, 0}, Right, 1), "a1>"},
		{"1a1>1", NewSpread(Square{0, 0}, Right, 1), "a1>"},
		{"3c3+", NewSpread(Square{2, 2}, Up, 3), "3c3+"},
		{"3c3+3", NewSpread(Square{2, 2}, Up, 3), "3c3+"},
		{"5e5-221", NewSpread(Square{4, 4}, Down, 2, 2, 1), "5e5-221"},
		{"4d2<112", NewSpread(Square{3, 1}, Left, 1, 1, 2), "4d2<112"},
	}
	for i, test := range tests {
		var m, err = ParseMove(test.text)
		if err != nil {
			t.Error(i, test.text, err)
			continue
		}
		if !m.Equal(test.move) {
			t.Error(i, test.text, m)
		}
		if m.String() != test.canonical {
			t.Error(i, test.text, m.String())
		}
	}

	var crush, err = ParseMove("2b3>11*")
	if err != nil || !crush.Crush || crush.Count() != 2 || crush.String() != "2b3>11*" {
		t.Error(crush, err)
	}
}

func TestParseMoveErrors(t *testing.T) {
	var tests = []string{
		"",
		"a",
		"i1",
		"a9",
		"Sa1>",
		"3a1",
		"0a1>",
		"2a1>3",
		"3a1>102",
		"a1>x",
		"a1^",
		"a1>*x",
	}
	for _, test := range tests {
		if _, err := ParseMove(test); !errors.Is(err, ErrBadNotation) {
			t.Error(test, err)
		}
	}
}

func TestSquareNames(t *testing.T) {
	for file := 0; file < MaxSize; file++ {
		for rank := 0; rank < MaxSize; rank++ {
			var sq = Square{file, rank}
			var parsed, err = ParseSquare(sq.String())
			if err != nil || parsed != sq {
				t.Error(sq, parsed, err)
			}
		}
	}
}
