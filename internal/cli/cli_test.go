package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ChizhovVadim/takmatch/internal/config"
	"github.com/ChizhovVadim/takmatch/internal/enginetest"
	"github.com/ChizhovVadim/takmatch/internal/openings"
	"github.com/ChizhovVadim/takmatch/internal/store"
)

func TestMain(m *testing.M) {
	enginetest.Main()
	os.Exit(m.Run())
}

func engineFlag(name string, mode enginetest.Mode) string {
	var spec = enginetest.Spec(name, mode)
	return "name=" + spec.Name + ",path=" + spec.Path + ",args=" + strings.Join(spec.Args, " ")
}

func TestTournament(t *testing.T) {
	var dir = t.TempDir()
	var ptnPath = filepath.Join(dir, "games.ptn")
	var dbPath = filepath.Join(dir, "results.db")
	var out bytes.Buffer

	var cmd = NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"-e", engineFlag("alpha", enginetest.Random),
		"-e", engineFlag("beta", enginetest.Random),
		"-g", "4", "-c", "2", "--size", "4", "--tc", "20",
		"--ptnout", ptnPath, "--db", dbPath,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "4 games") {
		t.Error(out.String())
	}

	var data, err = os.ReadFile(ptnPath)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "[Result "); n != 4 {
		t.Error("ptn games", n)
	}
	var round1 = strings.Index(string(data), `[Round "1"]`)
	var round4 = strings.Index(string(data), `[Round "4"]`)
	if round1 < 0 || round4 < round1 {
		t.Error("ptn games out of order")
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	runs, err := db.Runs(context.Background())
	if err != nil || len(runs) != 1 || runs[0].Games != 4 {
		t.Fatal(runs, err)
	}
	games, err := db.Games(context.Background(), runs[0].ID)
	if err != nil || len(games) != 4 {
		t.Error(games, err)
	}
}

func TestConfigErrorExitStatus(t *testing.T) {
	var tests = [][]string{
		{},
		{"--format", "gauntlet", "-e", engineFlag("a", enginetest.Random), "-e", engineFlag("b", enginetest.Random)},
		{"-e", engineFlag("a", enginetest.Random), "-e", engineFlag("b", enginetest.Random), "--tc", "0"},
		{"-e", engineFlag("a", enginetest.Random), "-e", engineFlag("b", enginetest.Random), "--book", "missing.txt"},
		{"unexpected"},
	}
	for i, args := range tests {
		if code := Execute(args); code != 1 {
			t.Error(i, code)
		}
	}
}

func TestSecondInterruptAborts(t *testing.T) {
	var cfg = config.Config{
		Engines: []config.Engine{
			{Name: "a", Path: os.Args[0], Args: enginetest.Spec("a", enginetest.Slow).Args},
			{Name: "b", Path: os.Args[0], Args: enginetest.Spec("b", enginetest.Slow).Args},
		},
		Games:       2,
		Concurrency: 2,
		Size:        5,
		TimeControl: "600",
		Format:      "round-robin",
		BookFormat:  "auto",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	var signals = make(chan os.Signal, 2)
	signals <- os.Interrupt
	signals <- os.Interrupt

	var out bytes.Buffer
	var done = make(chan error, 1)
	go func() {
		done <- run(context.Background(), cfg, zaptest.NewLogger(t), &out, signals)
	}()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Error(err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("tournament was not aborted")
	}
	if !strings.HasPrefix(out.String(), "0 games") {
		t.Error(out.String())
	}
}

func TestGenbook(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "book.txt")
	var cmd = NewRootCommand()
	cmd.SetArgs([]string{"genbook", "--size", "6", "--plies", "2", "-n", "10", "--seed", "3", "-o", path})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var book, err = openings.Load(context.Background(), []string{path}, openings.Options{Size: 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(book) != 10 {
		t.Error(len(book))
	}
}
