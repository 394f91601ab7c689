package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/enginetest"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

func TestMain(m *testing.M) {
	enginetest.Main()
	os.Exit(m.Run())
}

func startSession(t *testing.T, mode enginetest.Mode, options ...domain.OptionValue) *Session {
	t.Helper()
	var s, err = Start(context.Background(), Config{
		Spec:           enginetest.Spec(string(mode), mode, options...),
		StartupTimeout: 5 * time.Second,
		StopGrace:      300 * time.Millisecond,
		QuitGrace:      time.Second,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func firstMove(t *testing.T, s *Session, tc domain.TimeControl) (Reply, error) {
	t.Helper()
	if err := s.NewGame(context.Background(), 5, 0); err != nil {
		t.Fatal(err)
	}
	return s.Go(context.Background(), tei.Position{}, NewClock(tc, 50*time.Millisecond), tak.White)
}

func TestSessionPlaysGame(t *testing.T) {
	var s = startSession(t, enginetest.Random, domain.OptionValue{Name: "threads", Value: "2"})
	if s.State() != Ready || s.EngineName() != "fake random" {
		t.Fatal(s.State(), s.EngineName())
	}
	if err := s.NewGame(context.Background(), 5, 4); err != nil {
		t.Fatal(err)
	}
	if s.State() != InGame {
		t.Fatal(s.State())
	}

	var board, _ = tak.New(5, 4)
	var clock = NewClock(domain.TimeControl{Base: 10 * time.Second, Increment: time.Second}, 0)
	var position tei.Position
	for ply := 0; ply < 10 && board.Status().Kind == tak.Ongoing; ply++ {
		var side = board.SideToMove()
		var before = clock.Remaining(side)
		var reply, err = s.Go(context.Background(), position, clock, side)
		if err != nil {
			t.Fatal(ply, err)
		}
		if err = board.Apply(reply.Move); err != nil {
			t.Fatal(ply, reply.Move, err)
		}
		if reply.Info.Depth != 1 || len(reply.Info.PV) != 1 {
			t.Error(ply, reply.Info)
		}
		if clock.Remaining(side) > before+time.Second || clock.Remaining(side) < before {
			t.Error(ply, before, clock.Remaining(side))
		}
		position.Moves = append(position.Moves, reply.Move)
	}
	s.EndGame()
	if s.State() != Ready {
		t.Error(s.State())
	}
	if err := s.NewGame(context.Background(), 6, 0); err != nil {
		t.Error("session must be reusable", err)
	}
	s.Close()
	if s.State() != Terminated {
		t.Error(s.State())
	}
}

func TestSessionForwardsStderr(t *testing.T) {
	var core, logs = observer.New(zap.InfoLevel)
	var s, err = Start(context.Background(), Config{
		Spec: enginetest.Spec("noisy", enginetest.Random),
	}, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	var found = logs.FilterMessage(enginetest.StderrGreeting).All()
	if len(found) != 1 || found[0].ContextMap()["engine"] != "noisy" {
		t.Error(logs.All())
	}
}

func TestStartErrors(t *testing.T) {
	var logger = zaptest.NewLogger(t)
	var _, err = Start(context.Background(), Config{
		Spec: domain.EngineSpec{Name: "missing", Path: "/nonexistent/engine"},
	}, logger)
	if !errors.Is(err, ErrSpawn) || !Fatal(err) {
		t.Error(err)
	}

	_, err = Start(context.Background(), Config{
		Spec: enginetest.Spec("x", enginetest.Random, domain.OptionValue{Name: "Hash", Value: "64"}),
	}, logger)
	if !errors.Is(err, ErrUnsupportedOption) || !Fatal(err) {
		t.Error(err)
	}

	_, err = Start(context.Background(), Config{
		Spec: enginetest.Spec("x", enginetest.Random, domain.OptionValue{Name: "Threads", Value: "100"}),
	}, logger)
	if !errors.Is(err, ErrUnsupportedOption) {
		t.Error(err)
	}

	_, err = Start(context.Background(), Config{
		Spec:           enginetest.Spec("mute", enginetest.Mute),
		StartupTimeout: 200 * time.Millisecond,
		QuitGrace:      200 * time.Millisecond,
	}, logger)
	if f, ok := AsFault(err); !ok || f.Kind != HandshakeTimeout || Fatal(err) {
		t.Error(err)
	}
}

func TestSessionFaults(t *testing.T) {
	var fast = domain.TimeControl{Base: 200 * time.Millisecond}
	var slow = domain.TimeControl{Base: time.Minute}
	var tests = []struct {
		mode  enginetest.Mode
		tc    domain.TimeControl
		kind  FaultKind
		state State
	}{
		{enginetest.Slow, fast, Timeout, InGame},
		{enginetest.Hang, fast, Timeout, Crashed},
		{enginetest.Crash, slow, ProcessExit, Crashed},
		{enginetest.Garbage, slow, Protocol, InGame},
	}
	for _, test := range tests {
		var s = startSession(t, test.mode)
		var _, err = firstMove(t, s, test.tc)
		var f, ok = AsFault(err)
		if !ok || f.Kind != test.kind || f.Engine != string(test.mode) {
			t.Error(test.mode, err)
			continue
		}
		if s.State() != test.state {
			t.Error(test.mode, s.State())
		}
		if s.State() == Crashed {
			if err = s.Restart(context.Background()); err != nil || s.State() != Ready {
				t.Error(test.mode, "restart", err, s.State())
			}
		}
	}
}

func TestSessionMalformedBestMove(t *testing.T) {
	var s = startSession(t, enginetest.Garbage)
	if err := s.NewGame(context.Background(), 5, 0); err != nil {
		t.Fatal(err)
	}
	var clock = NewClock(domain.TimeControl{Base: time.Minute}, 0)
	for i := 0; i < 2; i++ {
		var start = time.Now()
		var _, err = s.Go(context.Background(), tei.Position{}, clock, tak.White)
		var f, ok = AsFault(err)
		if !ok || f.Kind != Protocol {
			t.Fatal(i, err)
		}
		if n := strings.Count(err.Error(), "protocol error"); n != 1 {
			t.Error(i, err)
		}
		if took := time.Since(start); took >= s.cfg.StopGrace {
			t.Error(i, "took", took)
		}
		if s.State() != InGame {
			t.Error(i, s.State())
		}
	}
}

func TestSessionResign(t *testing.T) {
	var s = startSession(t, enginetest.Resign)
	var reply, err = firstMove(t, s, domain.TimeControl{Base: time.Minute})
	if err != nil || !reply.Resign {
		t.Error(reply, err)
	}
}

func TestSessionStateChecks(t *testing.T) {
	var s = startSession(t, enginetest.Random)
	var clock = NewClock(domain.TimeControl{Base: time.Minute}, 0)
	if _, err := s.Go(context.Background(), tei.Position{}, clock, tak.White); !errors.Is(err, ErrState) {
		t.Error(err)
	}
	if err := s.NewGame(context.Background(), 5, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.NewGame(context.Background(), 5, 0); !errors.Is(err, ErrState) {
		t.Error(err)
	}
}
