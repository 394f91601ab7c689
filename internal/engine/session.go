package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

type State int32

const (
	Spawned State = iota
	Handshaking
	Ready
	InGame
	WaitingForMove
	Crashed
	Terminated
)

var stateNames = [...]string{"spawned", "handshaking", "ready", "in game", "waiting for move", "crashed", "terminated"}

func (s State) String() string {
	return stateNames[s]
}

const halfKomiOption = "HalfKomi"

type Config struct {
	ID   domain.EngineID
	Spec domain.EngineSpec
	// StartupTimeout bounds the handshake and every isready exchange.
	StartupTimeout time.Duration
	// StopGrace is how long a timed out engine may take to answer stop.
	StopGrace time.Duration
	// QuitGrace is how long an engine may take to exit after quit.
	QuitGrace time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 10 * time.Second
	}
	if cfg.StopGrace == 0 {
		cfg.StopGrace = time.Second
	}
	if cfg.QuitGrace == 0 {
		cfg.QuitGrace = 2 * time.Second
	}
	return cfg
}

// Reply is an engine's answer to go.
type Reply struct {
	Move    tak.Move
	Resign  bool
	Info    tei.Info
	Elapsed time.Duration
}

// Session drives one engine subprocess through the TEI lifecycle. A session is
// used by one goroutine at a time; State may be read concurrently.
type Session struct {
	cfg     Config
	logger  *zap.Logger
	proc    *process
	mu      sync.Mutex
	state   State
	name    string
	author  string
	options map[string]tei.Declaration
}

// Start spawns the engine and completes the handshake. Errors matching
// ErrSpawn or ErrUnsupportedOption are fatal for the engine; a *Fault only
// loses the game at hand.
func Start(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	cfg = cfg.withDefaults()
	var s = &Session{
		cfg:    cfg,
		logger: logger.With(zap.String("engine", cfg.Spec.Name)),
	}
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) start(ctx context.Context) error {
	var proc, err = spawn(s.cfg.Spec, s.logger)
	if err != nil {
		s.setState(Terminated)
		return err
	}
	s.proc = proc
	s.options = make(map[string]tei.Declaration)
	s.setState(Spawned)
	if err = s.handshake(ctx); err != nil {
		s.proc.terminate(s.cfg.QuitGrace)
		s.setState(Terminated)
		return err
	}
	s.setState(Ready)
	return nil
}

// Restart replaces a crashed subprocess with a fresh one.
func (s *Session) Restart(ctx context.Context) error {
	if s.proc != nil {
		s.proc.terminate(s.cfg.QuitGrace)
	}
	s.logger.Info("restarting engine")
	return s.start(ctx)
}

// Close sends quit and reaps the subprocess, killing it after the grace period.
func (s *Session) Close() {
	if s.proc != nil {
		s.proc.terminate(s.cfg.QuitGrace)
	}
	s.setState(Terminated)
}

func (s *Session) ID() domain.EngineID { return s.cfg.ID }
func (s *Session) Name() string        { return s.cfg.Spec.Name }

// EngineName is the name the engine announced with "id name".
func (s *Session) EngineName() string { return s.name }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) fault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Engine: s.cfg.Spec.Name, Err: err}
}

func (s *Session) send(command tei.GuiCommand) error {
	var line = command.String()
	s.logger.Debug("> " + line)
	if err := s.proc.write(line); err != nil {
		s.setState(Crashed)
		return s.fault(ProcessExit, err)
	}
	return nil
}

var errDeadline = errors.New("deadline exceeded")

// receive returns the next parsed engine line. It fails with errDeadline when
// timeout fires, with a ProcessExit fault when output ends.
func (s *Session) receive(ctx context.Context, timeout <-chan time.Time) (tei.EngineCommand, error) {
	select {
	case line, ok := <-s.proc.lines:
		if !ok {
			s.setState(Crashed)
			select {
			case <-s.proc.exited:
			case <-time.After(s.cfg.QuitGrace):
			}
			return nil, s.fault(ProcessExit, s.proc.exitErr())
		}
		s.logger.Debug("< " + line)
		var command, err = tei.ParseEngineLine(line)
		if err != nil {
			return nil, s.fault(Protocol, err)
		}
		return command, nil
	case <-timeout:
		return nil, errDeadline
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) handshake(ctx context.Context) error {
	s.setState(Handshaking)
	var timer = time.NewTimer(s.cfg.StartupTimeout)
	defer timer.Stop()

	if err := s.send(tei.Tei{}); err != nil {
		return err
	}
	for done := false; !done; {
		var command, err = s.receive(ctx, timer.C)
		if err == errDeadline {
			return s.fault(HandshakeTimeout, fmt.Errorf("no teiok within %v", s.cfg.StartupTimeout))
		}
		if err != nil {
			return err
		}
		switch c := command.(type) {
		case tei.ID:
			if c.Field == "name" {
				s.name = c.Value
			} else if c.Field == "author" {
				s.author = c.Value
			}
		case tei.OptionDecl:
			s.options[strings.ToLower(c.Option.Name)] = c.Option
		case tei.TeiOK:
			done = true
		}
	}

	for _, opt := range s.cfg.Spec.Options {
		var decl, ok = s.options[strings.ToLower(opt.Name)]
		if !ok {
			return fmt.Errorf("%w: %v does not declare %q", ErrUnsupportedOption, s.cfg.Spec.Name, opt.Name)
		}
		if err := decl.Validate(opt.Value); err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedOption, err)
		}
		if err := s.send(tei.SetOption{Name: decl.Name, Value: opt.Value}); err != nil {
			return err
		}
	}
	s.logger.Info("engine started",
		zap.String("id", s.name),
		zap.String("author", s.author),
		zap.Int("options", len(s.options)))
	return s.sync(ctx, timer.C)
}

// sync sends isready and discards output until readyok.
func (s *Session) sync(ctx context.Context, timeout <-chan time.Time) error {
	if err := s.send(tei.IsReady{}); err != nil {
		return err
	}
	for {
		var command, err = s.receive(ctx, timeout)
		if err == errDeadline {
			return s.fault(HandshakeTimeout, errors.New("no readyok"))
		}
		if err != nil {
			if f, ok := AsFault(err); ok && f.Kind == Protocol {
				continue
			}
			return err
		}
		if _, ok := command.(tei.ReadyOK); ok {
			return nil
		}
	}
}

// NewGame moves a Ready session into a game on a board of the given size.
func (s *Session) NewGame(ctx context.Context, size, halfKomi int) error {
	if state := s.State(); state != Ready {
		return fmt.Errorf("%w: new game in state %v", ErrState, state)
	}
	if decl, ok := s.options[strings.ToLower(halfKomiOption)]; ok {
		var value = strconv.Itoa(halfKomi)
		if err := decl.Validate(value); err != nil {
			s.logger.Warn("engine rejects komi", zap.Error(err))
		} else if err := s.send(tei.SetOption{Name: decl.Name, Value: value}); err != nil {
			return err
		}
	} else if halfKomi != 0 {
		s.logger.Warn("engine does not declare HalfKomi", zap.Int("halfKomi", halfKomi))
	}
	if err := s.send(tei.TeiNewGame{Size: size}); err != nil {
		return err
	}
	var timer = time.NewTimer(s.cfg.StartupTimeout)
	defer timer.Stop()
	if err := s.sync(ctx, timer.C); err != nil {
		if _, ok := AsFault(err); ok {
			s.setState(Crashed)
		}
		return err
	}
	s.setState(InGame)
	return nil
}

// Go sends the position and a go command for side, then waits for bestmove
// until side's clock runs out. The clock is charged with the elapsed time.
func (s *Session) Go(ctx context.Context, position tei.Position, clock *Clock, side tak.Color) (Reply, error) {
	if state := s.State(); state != InGame {
		return Reply{}, fmt.Errorf("%w: go in state %v", ErrState, state)
	}
	if err := s.send(position); err != nil {
		return Reply{}, err
	}
	if err := s.send(clock.Limits()); err != nil {
		return Reply{}, err
	}
	s.setState(WaitingForMove)
	var deadline = clock.Deadline(side)
	clock.Start(side)
	var timer = time.NewTimer(deadline)
	defer timer.Stop()

	var info tei.Info
	for {
		var command, err = s.receive(ctx, timer.C)
		if err == errDeadline {
			clock.Stop()
			s.abortSearch()
			return Reply{}, s.fault(Timeout, fmt.Errorf("no move within %v", deadline))
		}
		if err != nil {
			if f, ok := AsFault(err); ok && f.Kind == Protocol {
				clock.Stop()
				if isBestMoveLine(err) {
					// The search is over, there is nothing to stop.
					s.setState(InGame)
				} else {
					s.abortSearch()
				}
				return Reply{}, err
			}
			if ctx.Err() != nil {
				s.abortSearch()
			}
			return Reply{}, err
		}
		switch c := command.(type) {
		case tei.Info:
			info = c
		case tei.BestMove:
			var elapsed, ok = clock.Stop()
			s.setState(InGame)
			if !ok {
				return Reply{}, s.fault(Timeout, fmt.Errorf("move took %v", elapsed))
			}
			return Reply{Move: c.Move, Resign: c.Resign, Info: info, Elapsed: elapsed}, nil
		case tei.TeiOK, tei.ReadyOK, tei.OptionDecl:
			s.logger.Warn("unexpected line while searching", zap.Stringer("line", c))
		}
	}
}

func isBestMoveLine(err error) bool {
	var pe *tei.ProtocolError
	if !errors.As(err, &pe) {
		return false
	}
	var fields = strings.Fields(pe.Line)
	return len(fields) != 0 && fields[0] == "bestmove"
}

// abortSearch stops a search that will not be used. An engine that does not
// answer stop in time is marked crashed and will be restarted.
func (s *Session) abortSearch() {
	if s.State() == Crashed {
		return
	}
	if err := s.send(tei.Stop{}); err != nil {
		return
	}
	var timer = time.NewTimer(s.cfg.StopGrace)
	defer timer.Stop()
	for {
		var command, err = s.receive(context.Background(), timer.C)
		if err == errDeadline {
			s.logger.Warn("engine ignored stop")
			s.setState(Crashed)
			return
		}
		if err != nil {
			if f, ok := AsFault(err); ok && f.Kind == Protocol {
				continue
			}
			return
		}
		if _, ok := command.(tei.BestMove); ok {
			s.setState(InGame)
			return
		}
	}
}

// EndGame returns the session to Ready. A crashed session stays crashed.
func (s *Session) EndGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == InGame || s.state == WaitingForMove {
		s.state = Ready
	}
}
