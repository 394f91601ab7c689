// Package tei implements the text protocol spoken between a match runner and
// Tak engines. Engine-sent lines decode into EngineCommand values, runner-sent
// lines into GuiCommand values; both directions round-trip through String.
package tei

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrProtocol = errors.New("protocol error")

// ProtocolError describes a malformed or unexpected line.
type ProtocolError struct {
	Line   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v: %q", e.Reason, e.Line)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func protocolError(line, format string, args ...interface{}) error {
	return &ProtocolError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// GuiCommand is a line sent from the runner to an engine.
type GuiCommand interface {
	fmt.Stringer
	guiCommand()
}

type Tei struct{}

type IsReady struct{}

type SetOption struct {
	Name  string
	Value string
}

type TeiNewGame struct {
	Size int
}

// Position sets the engine's board. An empty TPS means the start position.
type Position struct {
	TPS   string
	Moves []tak.Move
}

// Go starts a search. The clock fields are always sent; MoveTime only when set.
type Go struct {
	WTime    time.Duration
	BTime    time.Duration
	WInc     time.Duration
	BInc     time.Duration
	MoveTime time.Duration
}

type Stop struct{}

type Quit struct{}

func (Tei) guiCommand()        {}
func (IsReady) guiCommand()    {}
func (SetOption) guiCommand()  {}
func (TeiNewGame) guiCommand() {}
func (Position) guiCommand()   {}
func (Go) guiCommand()         {}
func (Stop) guiCommand()       {}
func (Quit) guiCommand()       {}

func (Tei) String() string     { return "tei" }
func (IsReady) String() string { return "isready" }
func (Stop) String() string    { return "stop" }
func (Quit) String() string    { return "quit" }

func (c SetOption) String() string {
	return fmt.Sprintf("setoption name %v value %v", c.Name, c.Value)
}

func (c TeiNewGame) String() string {
	return fmt.Sprintf("teinewgame %v", c.Size)
}

func (c Position) String() string {
	var sb = &strings.Builder{}
	if c.TPS == "" {
		sb.WriteString("position startpos")
	} else {
		fmt.Fprintf(sb, "position tps %v", c.TPS)
	}
	if len(c.Moves) != 0 {
		sb.WriteString(" moves")
		for _, m := range c.Moves {
			sb.WriteString(" ")
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// Clock returns the time left for the side to move and its increment.
func (c Go) Clock(side tak.Color) (remaining, increment time.Duration) {
	if side == tak.White {
		return c.WTime, c.WInc
	}
	return c.BTime, c.BInc
}

func (c Go) String() string {
	var s = fmt.Sprintf("go wtime %v btime %v winc %v binc %v",
		c.WTime.Milliseconds(), c.BTime.Milliseconds(),
		c.WInc.Milliseconds(), c.BInc.Milliseconds())
	if c.MoveTime != 0 {
		s += fmt.Sprintf(" movetime %v", c.MoveTime.Milliseconds())
	}
	return s
}

// EngineCommand is a line sent from an engine to the runner.
type EngineCommand interface {
	fmt.Stringer
	engineCommand()
}

// ID carries "id name ..." or "id author ...".
type ID struct {
	Field string
	Value string
}

type TeiOK struct{}

type ReadyOK struct{}

// BestMove ends a search. Resign is set for "bestmove resign".
type BestMove struct {
	Move      tak.Move
	Resign    bool
	Ponder    tak.Move
	HasPonder bool
}

// OptionDecl is an engine's "option ..." declaration.
type OptionDecl struct {
	Option Declaration
}

// Other is any line without protocol meaning. It is logged and ignored.
type Other struct {
	Line string
}

func (ID) engineCommand()         {}
func (TeiOK) engineCommand()      {}
func (ReadyOK) engineCommand()    {}
func (BestMove) engineCommand()   {}
func (Info) engineCommand()       {}
func (OptionDecl) engineCommand() {}
func (Other) engineCommand()      {}

func (c ID) String() string         { return fmt.Sprintf("id %v %v", c.Field, c.Value) }
func (TeiOK) String() string        { return "teiok" }
func (ReadyOK) String() string      { return "readyok" }
func (c Other) String() string      { return c.Line }
func (c OptionDecl) String() string { return c.Option.String() }

func (c BestMove) String() string {
	if c.Resign {
		return "bestmove resign"
	}
	if c.HasPonder {
		return fmt.Sprintf("bestmove %v ponder %v", c.Move, c.Ponder)
	}
	return fmt.Sprintf("bestmove %v", c.Move)
}
