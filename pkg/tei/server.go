package tei

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

// Engine is the search side of a TEI engine driven by Server.
type Engine interface {
	Clear()
	Search(ctx context.Context, params SearchParams) SearchResult
}

type SearchParams struct {
	Board    *tak.Board
	Limits   Go
	Progress func(Info)
}

type SearchResult struct {
	Info   Info
	Move   tak.Move
	Resign bool
}

type searchMessage struct {
	info   Info
	result *SearchResult
}

// Server runs the engine end of the protocol over a pair of streams.
type Server struct {
	name         string
	author       string
	options      []Option
	engine       Engine
	logger       *zap.Logger
	out          io.Writer
	size         int
	halfKomi     int
	board        *tak.Board
	thinking     bool
	engineOutput chan searchMessage
	cancel       context.CancelFunc
}

// NewServer declares the engine's options plus a HalfKomi spin option.
// The server owns HalfKomi, a caller option of that name is dropped.
func NewServer(name, author string, engine Engine, options []Option, logger *zap.Logger) *Server {
	var s = &Server{
		name:   name,
		author: author,
		engine: engine,
		logger: logger,
		size:   5,
	}
	s.options = []Option{&IntOption{Name: "HalfKomi", Min: -20, Max: 20, Value: &s.halfKomi}}
	for _, o := range options {
		if strings.EqualFold(o.Declaration().Name, "HalfKomi") {
			logger.Warn("option declared by server", zap.String("name", o.Declaration().Name))
			continue
		}
		s.options = append(s.options, o)
	}
	return s
}

// Run serves commands from in until quit or end of input.
func (s *Server) Run(in io.Reader, out io.Writer) {
	s.out = out
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(in, commands)
	}()

	for {
		select {
		case msg, ok := <-s.engineOutput:
			if !ok {
				s.thinking = false
				s.cancel = nil
				s.engineOutput = nil
				continue
			}
			if msg.result == nil {
				fmt.Fprintln(s.out, msg.info)
				continue
			}
			if msg.result.Info.Depth != 0 || len(msg.result.Info.PV) != 0 {
				fmt.Fprintln(s.out, msg.result.Info)
			}
			fmt.Fprintln(s.out, BestMove{Move: msg.result.Move, Resign: msg.result.Resign})
		case commandLine, ok := <-commands:
			if !ok {
				if s.cancel != nil {
					s.cancel()
				}
				return
			}
			var err = s.handle(commandLine)
			if err != nil {
				s.logger.Warn("command failed", zap.String("command", commandLine), zap.Error(err))
			}
		}
	}
}

func readCommands(in io.Reader, commands chan<- string) {
	var scanner = bufio.NewScanner(in)
	for scanner.Scan() {
		var commandLine = strings.TrimSpace(scanner.Text())
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}

func (s *Server) handle(commandLine string) error {
	var command, err = ParseGuiLine(commandLine)
	if err != nil {
		return err
	}

	if s.thinking {
		if _, ok := command.(Stop); ok {
			s.cancel()
			return nil
		}
		return errors.New("search still run")
	}

	switch c := command.(type) {
	case Tei:
		fmt.Fprintf(s.out, "id name %v\n", s.name)
		fmt.Fprintf(s.out, "id author %v\n", s.author)
		for _, option := range s.options {
			fmt.Fprintln(s.out, option.Declaration())
		}
		fmt.Fprintln(s.out, TeiOK{})
	case IsReady:
		fmt.Fprintln(s.out, ReadyOK{})
	case SetOption:
		return s.setOption(c)
	case TeiNewGame:
		if _, _, err := tak.Reserves(c.Size); err != nil {
			return err
		}
		s.size = c.Size
		s.board = nil
		s.engine.Clear()
	case Position:
		return s.position(c)
	case Go:
		return s.search(c)
	case Stop:
	}
	return nil
}

func (s *Server) setOption(c SetOption) error {
	for _, option := range s.options {
		if strings.EqualFold(option.Declaration().Name, c.Name) {
			return option.Set(c.Value)
		}
	}
	return fmt.Errorf("unhandled option %q", c.Name)
}

func (s *Server) position(c Position) error {
	var board *tak.Board
	var err error
	if c.TPS == "" {
		board, err = tak.New(s.size, s.halfKomi)
	} else {
		board, err = tak.FromTPS(c.TPS, s.halfKomi)
	}
	if err != nil {
		return err
	}
	for _, m := range c.Moves {
		if err = board.Apply(m); err != nil {
			return fmt.Errorf("move %v: %w", m, err)
		}
	}
	s.board = board
	return nil
}

func (s *Server) search(limits Go) error {
	if s.board == nil {
		return errors.New("no position")
	}
	var ctx, cancel = context.WithCancel(context.Background())
	var output = make(chan searchMessage, 3)
	s.cancel = cancel
	s.thinking = true
	s.engineOutput = output
	var board = s.board.Clone()
	go func() {
		defer cancel()
		var result = s.engine.Search(ctx, SearchParams{
			Board:  board,
			Limits: limits,
			Progress: func(info Info) {
				select {
				case output <- searchMessage{info: info}:
				default:
				}
			},
		})
		output <- searchMessage{result: &result}
		close(output)
	}()
	return nil
}
