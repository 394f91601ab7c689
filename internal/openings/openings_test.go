package openings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

const book = `// 5x5 openings
a1 e5

1. a5 e1 2. c3
x5/x5/x5/x5/x5 1 1 b2 d4
// decided positions and bad lines are errors, see TestParseErrors
2,x4/x5/x5/x5/x4,1 1 2
`

func TestParse(t *testing.T) {
	var result, err = Parse(context.Background(), strings.NewReader(book), Auto, 5)
	if err != nil {
		t.Fatal(err)
	}
	var expected = []string{"a1 e5", "a5 e1 c3", "b2 d4", "2,x4/x5/x5/x5/x4,1 1 2"}
	if len(result) != len(expected) {
		t.Fatal(result)
	}
	for i := range expected {
		if result[i].String() != expected[i] {
			t.Error(i, result[i])
		}
	}
	if result[2].TPS != "" {
		t.Error("start position TPS must be normalized", result[2].TPS)
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		line   string
		format Format
	}{
		{"a1 a1", Auto},
		{"a1 e9", Moves},
		{"x6/x6/x6/x6/x6/x6 1 1", Auto},
		{"a1 e5", TPS},
		{"x3/x3/x3 1", TPS},
	}
	for i, test := range tests {
		if _, err := ParseLine(test.line, test.format, 5); !errors.Is(err, ErrBook) {
			t.Error(i, err)
		}
	}
	var _, err = Parse(context.Background(), strings.NewReader("a1 e5\nbad\n"), Moves, 5)
	if !errors.Is(err, ErrBook) || !strings.Contains(err.Error(), "line 2") {
		t.Error(err)
	}
}

func TestLoad(t *testing.T) {
	var dir = t.TempDir()
	var lines = filepath.Join(dir, "book.txt")
	var games = filepath.Join(dir, "book.ptn")
	if err := os.WriteFile(lines, []byte(book), 0644); err != nil {
		t.Fatal(err)
	}
	var ptnBook = `[Size "5"]
[TPS "2,x4/x5/x5/x5/x4,1 1 2"]

2. c3 d3 *

[Size "5"]

1. a1 e5 2. b3 *
`
	if err := os.WriteFile(games, []byte(ptnBook), 0644); err != nil {
		t.Fatal(err)
	}

	var result, err = Load(context.Background(), []string{games, lines}, Options{Size: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 6 || result[0].String() != "2,x4/x5/x5/x5/x4,1 1 2 c3 d3" || result[1].String() != "a1 e5 b3" {
		t.Fatal(result)
	}

	shuffled, err := Load(context.Background(), []string{games, lines}, Options{Size: 5, Shuffle: true, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	again, _ := Load(context.Background(), []string{games, lines}, Options{Size: 5, Shuffle: true, Seed: 7})
	var same = true
	for i := range shuffled {
		if shuffled[i].String() != again[i].String() {
			t.Error("shuffle must be deterministic")
		}
		same = same && shuffled[i].String() == result[i].String()
	}
	if same {
		t.Error("book was not shuffled")
	}

	if _, err = Load(context.Background(), []string{filepath.Join(dir, "missing.txt")}, Options{Size: 5}); err == nil {
		t.Error("missing book accepted")
	}
	if f, err := ParseFormat("PTN"); err != nil || f != PTN {
		t.Error(f, err)
	}
}

func TestGenerate(t *testing.T) {
	var opts = GenerateOptions{Size: 5, Plies: 4, Count: 20, Seed: 1, MaxFlatDiff: 2}
	var book, err = Generate(context.Background(), opts, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(book) != opts.Count {
		t.Fatal(len(book))
	}
	for i, opening := range book {
		if len(opening.Moves) != opts.Plies || opening.TPS != "" {
			t.Error(i, opening)
		}
	}

	var sb strings.Builder
	if err := Write(&sb, book); err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(context.Background(), strings.NewReader(sb.String()), Moves, 5)
	if err != nil {
		t.Fatal(err)
	}
	var seen = make(map[string]bool)
	for i := range parsed {
		if parsed[i].String() != book[i].String() {
			t.Error(i, parsed[i], book[i])
		}
		var b, _ = parsed[i].Board(5, 0)
		if seen[string(b.Fingerprint())] {
			t.Error("duplicate opening", parsed[i])
		}
		seen[string(b.Fingerprint())] = true
	}

	if _, err := Generate(context.Background(), GenerateOptions{Size: 5}, zaptest.NewLogger(t)); !errors.Is(err, ErrBook) {
		t.Error(err)
	}
}
