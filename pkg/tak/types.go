package tak

import (
	"errors"
	"fmt"
)

const (
	MinSize = 3
	MaxSize = 8

	DefaultMoveLimit = 100
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrBadNotation = errors.New("bad notation")
	ErrBadSize     = errors.New("unsupported board size")
)

type Color int8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type Shape int8

const (
	Flat Shape = iota
	Wall
	Capstone
)

func (s Shape) String() string {
	switch s {
	case Wall:
		return "wall"
	case Capstone:
		return "capstone"
	}
	return "flat"
}

type Piece struct {
	Color Color
	Shape Shape
}

func (p Piece) isRoad() bool {
	return p.Shape == Flat || p.Shape == Capstone
}

// Stack is ordered bottom to top.
type Stack []Piece

func (s Stack) Top() (Piece, bool) {
	if len(s) == 0 {
		return Piece{}, false
	}
	return s[len(s)-1], true
}

type Direction int8

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) delta() (df, dr int) {
	switch d {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	}
	return 1, 0
}

const directionChars = "+-<>"

func (d Direction) String() string {
	return string(directionChars[d])
}

type Square struct {
	File int
	Rank int
}

func (sq Square) String() string {
	return fmt.Sprintf("%c%d", 'a'+sq.File, sq.Rank+1)
}

func (sq Square) OnBoard(size int) bool {
	return sq.File >= 0 && sq.File < size && sq.Rank >= 0 && sq.Rank < size
}

func (sq Square) step(d Direction, n int) Square {
	var df, dr = d.delta()
	return Square{File: sq.File + df*n, Rank: sq.Rank + dr*n}
}

func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("%w: square %q", ErrBadNotation, s)
	}
	return Square{File: int(s[0] - 'a'), Rank: int(s[1] - '1')}, nil
}

// Reserves returns the starting flat and capstone counts of one player.
func Reserves(size int) (flats, caps int, err error) {
	switch size {
	case 3:
		return 10, 0, nil
	case 4:
		return 15, 0, nil
	case 5:
		return 21, 1, nil
	case 6:
		return 30, 1, nil
	case 7:
		return 40, 2, nil
	case 8:
		return 50, 2, nil
	}
	return 0, 0, fmt.Errorf("%w: %v", ErrBadSize, size)
}
