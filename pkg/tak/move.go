package tak

import (
	"fmt"
	"strings"
)

type MoveKind int8

const (
	Place MoveKind = iota
	Spread
)

// Move is either a placement or a stack spread. For a spread, Drops lists how many
// pieces are left on each square along Dir, starting next to Square; the number of
// carried pieces is their sum. Crush marks a capstone flattening a wall on the last
// square.
type Move struct {
	Kind   MoveKind
	Square Square
	Shape  Shape
	Dir    Direction
	Drops  []int
	Crush  bool
}

func NewPlacement(sq Square, shape Shape) Move {
	return Move{Kind: Place, Square: sq, Shape: shape}
}

func NewSpread(sq Square, dir Direction, drops ...int) Move {
	return Move{Kind: Spread, Square: sq, Dir: dir, Drops: drops}
}

func (m Move) Count() int {
	var n = 0
	for _, d := range m.Drops {
		n += d
	}
	return n
}

func (m Move) Equal(other Move) bool {
	if m.Kind != other.Kind || m.Square != other.Square {
		return false
	}
	if m.Kind == Place {
		return m.Shape == other.Shape
	}
	if m.Dir != other.Dir || m.Crush != other.Crush || len(m.Drops) != len(other.Drops) {
		return false
	}
	for i := range m.Drops {
		if m.Drops[i] != other.Drops[i] {
			return false
		}
	}
	return true
}

// String returns the PTN form of the move.
func (m Move) String() string {
	var sb strings.Builder
	if m.Kind == Place {
		switch m.Shape {
		case Wall:
			sb.WriteByte('S')
		case Capstone:
			sb.WriteByte('C')
		}
		sb.WriteString(m.Square.String())
		return sb.String()
	}
	var count = m.Count()
	if count != 1 {
		fmt.Fprintf(&sb, "%d", count)
	}
	sb.WriteString(m.Square.String())
	sb.WriteString(m.Dir.String())
	if len(m.Drops) > 1 {
		for _, d := range m.Drops {
			fmt.Fprintf(&sb, "%d", d)
		}
	}
	if m.Crush {
		sb.WriteByte('*')
	}
	return sb.String()
}

// ParseMove decodes a PTN move. Size bounds are not checked here.
func ParseMove(s string) (Move, error) {
	var text = strings.TrimSpace(s)
	if text == "" {
		return Move{}, fmt.Errorf("%w: empty move", ErrBadNotation)
	}
	var bad = func() (Move, error) {
		return Move{}, fmt.Errorf("%w: move %q", ErrBadNotation, s)
	}

	var i = 0
	var shape = Flat
	var hasShape = false
	switch text[0] {
	case 'F':
		hasShape = true
		i++
	case 'S':
		shape, hasShape = Wall, true
		i++
	case 'C':
		shape, hasShape = Capstone, true
		i++
	}

	var count = 0
	var hasCount = false
	if !hasShape && i < len(text) && isDigit(text[i]) {
		count = int(text[i] - '0')
		hasCount = true
		i++
	}

	if i+2 > len(text) {
		return bad()
	}
	var sq, err = ParseSquare(text[i : i+2])
	if err != nil {
		return bad()
	}
	i += 2

	if i == len(text) {
		if hasCount {
			return bad()
		}
		return NewPlacement(sq, shape), nil
	}
	if hasShape {
		return bad()
	}

	var dir = strings.IndexByte(directionChars, text[i])
	if dir < 0 {
		return bad()
	}
	i++
	if !hasCount {
		count = 1
	}
	if count == 0 {
		return bad()
	}

	var drops []int
	for i < len(text) && isDigit(text[i]) {
		var d = int(text[i] - '0')
		if d == 0 {
			return bad()
		}
		drops = append(drops, d)
		i++
	}
	if len(drops) == 0 {
		drops = []int{count}
	}

	var crush = false
	if i < len(text) && text[i] == '*' {
		crush = true
		i++
	}
	if i != len(text) {
		return bad()
	}

	var m = NewSpread(sq, Direction(dir), drops...)
	m.Crush = crush
	if m.Count() != count {
		return bad()
	}
	return m, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
