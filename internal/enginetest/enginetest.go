// Package enginetest turns a test binary into a scripted TEI engine so that
// session and runner tests can drive real subprocesses.
package enginetest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

type Mode string

const (
	// Random plays random legal moves.
	Random Mode = "random"
	// Illegal places on an occupied square whenever one exists.
	Illegal Mode = "illegal"
	// Crash exits on the first go.
	Crash Mode = "crash"
	// Slow searches until stopped.
	Slow Mode = "slow"
	// Hang never answers go, not even after stop.
	Hang Mode = "hang"
	// Mute never completes the handshake.
	Mute Mode = "mute"
	// Garbage answers go with an unparseable move and ignores stop.
	Garbage Mode = "garbage"
	// Resign resigns every game.
	Resign Mode = "resign"
)

const marker = "takmatch-fake-engine"

// StderrGreeting is written to stderr by every engine at startup.
const StderrGreeting = "fake engine says hello"

// Main runs the fake engine and exits if the process was started by Spec.
// Call it first thing in TestMain.
func Main() {
	if len(os.Args) < 3 || os.Args[1] != marker {
		return
	}
	Run(Mode(os.Args[2]), os.Stdin, os.Stdout)
	os.Exit(0)
}

// Spec launches the current test binary as a fake engine.
func Spec(name string, mode Mode, options ...domain.OptionValue) domain.EngineSpec {
	return domain.EngineSpec{
		Name:    name,
		Path:    os.Args[0],
		Args:    []string{marker, string(mode)},
		Options: options,
	}
}

func Run(mode Mode, in io.Reader, out io.Writer) {
	fmt.Fprintln(os.Stderr, StderrGreeting)
	switch mode {
	case Mute, Garbage:
		runScripted(mode, in, out)
		return
	}
	var threads = 1
	var server = tei.NewServer("fake "+string(mode), "takmatch", &fakeEngine{
		mode:   mode,
		random: tei.NewRandomEngine(int64(os.Getpid())),
	}, []tei.Option{
		&tei.IntOption{Name: "Threads", Min: 1, Max: 64, Value: &threads},
	}, zap.NewNop())
	server.Run(in, out)
}

func runScripted(mode Mode, in io.Reader, out io.Writer) {
	var scanner = bufio.NewScanner(in)
	for scanner.Scan() {
		var fields = strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit":
			return
		case "tei":
			if mode != Mute {
				fmt.Fprintln(out, "id name garbage")
				fmt.Fprintln(out, "teiok")
			}
		case "isready":
			fmt.Fprintln(out, "readyok")
		case "go":
			fmt.Fprintln(out, "info depth 1 score cp nonsense")
			fmt.Fprintln(out, "bestmove z9?")
		}
	}
}

type fakeEngine struct {
	mode   Mode
	random *tei.RandomEngine
}

func (e *fakeEngine) Clear() {}

func (e *fakeEngine) Search(ctx context.Context, params tei.SearchParams) tei.SearchResult {
	switch e.mode {
	case Crash:
		os.Exit(3)
	case Slow:
		<-ctx.Done()
	case Hang:
		time.Sleep(24 * time.Hour)
	case Resign:
		return tei.SearchResult{Resign: true}
	case Illegal:
		if sq, ok := occupied(params.Board); ok {
			return tei.SearchResult{Move: tak.NewPlacement(sq, tak.Flat)}
		}
	}
	return e.random.Search(ctx, params)
}

func occupied(b *tak.Board) (tak.Square, bool) {
	for rank := 0; rank < b.Size(); rank++ {
		for file := 0; file < b.Size(); file++ {
			var sq = tak.Square{File: file, Rank: rank}
			if len(b.At(sq)) != 0 {
				return sq, true
			}
		}
	}
	return tak.Square{}, false
}
