package tak

import (
	"fmt"
	"strconv"
	"strings"
)

// FromTPS builds a board from a TPS string such as "x3/x,2,x/1,x2 1 2".
// Reserves are derived from the pieces on the board.
func FromTPS(tps string, halfKomi int) (*Board, error) {
	var bad = func(format string, args ...interface{}) (*Board, error) {
		return nil, fmt.Errorf("%w: tps %q: %v", ErrBadNotation, tps, fmt.Sprintf(format, args...))
	}
	var fields = strings.Fields(strings.TrimSpace(tps))
	if len(fields) != 3 {
		return bad("expected 3 fields")
	}
	var rows = strings.Split(fields[0], "/")
	var size = len(rows)
	var b, err = New(size, halfKomi)
	if err != nil {
		return bad("%v", err)
	}

	for r, row := range rows {
		var rank = size - 1 - r
		var file = 0
		for _, cell := range strings.Split(row, ",") {
			if cell == "" {
				return bad("empty cell in row %v", r+1)
			}
			if cell[0] == 'x' {
				var n = 1
				if len(cell) > 1 {
					n, err = strconv.Atoi(cell[1:])
					if err != nil || n < 1 {
						return bad("bad empty run %q", cell)
					}
				}
				file += n
				continue
			}
			if file >= size {
				return bad("row %v too long", r+1)
			}
			var stack, err = parseTPSStack(cell)
			if err != nil {
				return bad("%v", err)
			}
			b.cells[rank*size+file] = stack
			file++
		}
		if file != size {
			return bad("row %v has %v cells", r+1, file)
		}
	}

	switch fields[1] {
	case "1":
		b.toMove = White
	case "2":
		b.toMove = Black
	default:
		return bad("bad side to move %q", fields[1])
	}

	b.fullMove, err = strconv.Atoi(fields[2])
	if err != nil || b.fullMove < 1 {
		return bad("bad move number %q", fields[2])
	}

	for _, s := range b.cells {
		for _, p := range s {
			if p.Shape == Capstone {
				b.caps[p.Color]--
			} else {
				b.flats[p.Color]--
			}
		}
	}
	for c := White; c <= Black; c++ {
		if b.flats[c] < 0 || b.caps[c] < 0 {
			return bad("too many %v pieces", c)
		}
	}

	b.resetHistory()
	b.status = b.evaluate(b.toMove.Opponent(), 1)
	return b, nil
}

func parseTPSStack(cell string) (Stack, error) {
	var stack Stack
	for i := 0; i < len(cell); i++ {
		switch ch := cell[i]; ch {
		case '1', '2':
			stack = append(stack, Piece{Color: Color(ch - '1'), Shape: Flat})
		case 'S', 'C':
			if i != len(cell)-1 || len(stack) == 0 {
				return nil, fmt.Errorf("misplaced %c in %q", ch, cell)
			}
			if ch == 'S' {
				stack[len(stack)-1].Shape = Wall
			} else {
				stack[len(stack)-1].Shape = Capstone
			}
		default:
			return nil, fmt.Errorf("bad stack %q", cell)
		}
	}
	return stack, nil
}

// TPS encodes the board, side to move and full move number.
func (b *Board) TPS() string {
	return fmt.Sprintf("%v %v %v", b.tpsRows(), int(b.toMove)+1, b.fullMove)
}

// StartTPS is the TPS of the empty board of the given size.
func StartTPS(size int) string {
	var rows = make([]string, size)
	for i := range rows {
		rows[i] = "x" + strconv.Itoa(size)
	}
	return strings.Join(rows, "/") + " 1 1"
}

func (b *Board) tpsRows() string {
	var sb strings.Builder
	for rank := b.size - 1; rank >= 0; rank-- {
		var empty = 0
		var first = true
		var flush = func() {
			if empty == 0 {
				return
			}
			if !first {
				sb.WriteByte(',')
			}
			first = false
			sb.WriteByte('x')
			if empty > 1 {
				sb.WriteString(strconv.Itoa(empty))
			}
			empty = 0
		}
		for file := 0; file < b.size; file++ {
			var stack = b.cells[rank*b.size+file]
			if len(stack) == 0 {
				empty++
				continue
			}
			flush()
			if !first {
				sb.WriteByte(',')
			}
			first = false
			for _, p := range stack {
				sb.WriteByte(byte('1' + p.Color))
			}
			switch stack[len(stack)-1].Shape {
			case Wall:
				sb.WriteByte('S')
			case Capstone:
				sb.WriteByte('C')
			}
		}
		flush()
		if rank != 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}
