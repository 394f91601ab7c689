package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpawn means the engine binary could not be started at all.
	ErrSpawn = errors.New("spawn failed")
	// ErrUnsupportedOption means a configured option was not declared by the
	// engine or its value was rejected.
	ErrUnsupportedOption = errors.New("unsupported option")
	ErrState             = errors.New("invalid session state")
)

type FaultKind int

const (
	IllegalMove FaultKind = iota
	Timeout
	Protocol
	ProcessExit
	HandshakeTimeout
)

var faultNames = [...]string{
	IllegalMove:      "illegal move",
	Timeout:          "timeout",
	Protocol:         "protocol error",
	ProcessExit:      "process exit",
	HandshakeTimeout: "handshake timeout",
}

func (k FaultKind) String() string {
	return faultNames[k]
}

// Fault is an engine misbehaviour that loses the current game for that engine.
type Fault struct {
	Kind   FaultKind
	Engine string
	Err    error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("engine %v: %v", f.Engine, f.Kind)
	}
	var msg = f.Err.Error()
	if strings.HasPrefix(msg, f.Kind.String()) {
		return fmt.Sprintf("engine %v: %v", f.Engine, msg)
	}
	return fmt.Sprintf("engine %v: %v: %v", f.Engine, f.Kind, msg)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// AsFault extracts a *Fault from err.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Fatal reports whether err makes the engine unusable for the rest of the
// tournament.
func Fatal(err error) bool {
	return errors.Is(err, ErrSpawn) || errors.Is(err, ErrUnsupportedOption)
}
