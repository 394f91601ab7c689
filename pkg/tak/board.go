package tak

import (
	"fmt"
)

// PositionKey identifies board contents plus side to move.
type PositionKey string

type Board struct {
	size      int
	cells     []Stack
	toMove    Color
	fullMove  int
	flats     [2]int
	caps      [2]int
	halfKomi  int
	moveLimit int
	seen      map[PositionKey]int
	status    Result
}

// New returns the empty start position. Komi is given in half flats and credited
// to black.
func New(size, halfKomi int) (*Board, error) {
	var flats, caps, err = Reserves(size)
	if err != nil {
		return nil, err
	}
	var b = &Board{
		size:      size,
		cells:     make([]Stack, size*size),
		toMove:    White,
		fullMove:  1,
		flats:     [2]int{flats, flats},
		caps:      [2]int{caps, caps},
		halfKomi:  halfKomi,
		moveLimit: DefaultMoveLimit,
	}
	b.resetHistory()
	return b, nil
}

func (b *Board) resetHistory() {
	b.seen = make(map[PositionKey]int)
	b.seen[b.Fingerprint()]++
	b.status = Result{Kind: Ongoing}
}

func (b *Board) Size() int           { return b.size }
func (b *Board) SideToMove() Color   { return b.toMove }
func (b *Board) FullMove() int       { return b.fullMove }
func (b *Board) HalfKomi() int       { return b.halfKomi }
func (b *Board) Status() Result      { return b.status }
func (b *Board) SetMoveLimit(n int)  { b.moveLimit = n }
func (b *Board) Flats(c Color) int   { return b.flats[c] }
func (b *Board) Caps(c Color) int    { return b.caps[c] }
func (b *Board) At(sq Square) Stack  { return b.cells[b.index(sq)] }
func (b *Board) index(sq Square) int { return sq.Rank*b.size + sq.File }

func (b *Board) Clone() *Board {
	var c = *b
	c.cells = make([]Stack, len(b.cells))
	for i, s := range b.cells {
		if len(s) != 0 {
			c.cells[i] = append(Stack(nil), s...)
		}
	}
	c.seen = make(map[PositionKey]int, len(b.seen))
	for k, v := range b.seen {
		c.seen[k] = v
	}
	return &c
}

// Fingerprint is the TPS board field followed by the side to move. It is
// injective over board contents including shapes.
func (b *Board) Fingerprint() PositionKey {
	return PositionKey(fmt.Sprintf("%v %v", b.tpsRows(), int(b.toMove)+1))
}

func (b *Board) openingTurn() bool {
	return b.fullMove == 1
}

func (b *Board) Legal(m Move) bool {
	return b.validate(m) == nil
}

func (b *Board) validate(m Move) error {
	if b.status.Kind != Ongoing {
		return fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	if !m.Square.OnBoard(b.size) {
		return fmt.Errorf("%w: %v off board", ErrIllegalMove, m.Square)
	}
	if m.Kind == Place {
		return b.validatePlacement(m)
	}
	return b.validateSpread(m)
}

func (b *Board) placedColor() Color {
	if b.openingTurn() {
		return b.toMove.Opponent()
	}
	return b.toMove
}

func (b *Board) validatePlacement(m Move) error {
	if len(b.At(m.Square)) != 0 {
		return fmt.Errorf("%w: %v is occupied", ErrIllegalMove, m.Square)
	}
	var c = b.placedColor()
	switch m.Shape {
	case Flat, Wall:
		if b.openingTurn() && m.Shape != Flat {
			return fmt.Errorf("%w: only flats on the first turn", ErrIllegalMove)
		}
		if b.flats[c] == 0 {
			return fmt.Errorf("%w: no flats left", ErrIllegalMove)
		}
	case Capstone:
		if b.openingTurn() {
			return fmt.Errorf("%w: only flats on the first turn", ErrIllegalMove)
		}
		if b.caps[c] == 0 {
			return fmt.Errorf("%w: no capstones left", ErrIllegalMove)
		}
	default:
		return fmt.Errorf("%w: unknown shape", ErrIllegalMove)
	}
	return nil
}

func (b *Board) validateSpread(m Move) error {
	if b.openingTurn() {
		return fmt.Errorf("%w: no stack moves on the first turn", ErrIllegalMove)
	}
	var stack = b.At(m.Square)
	var top, ok = stack.Top()
	if !ok {
		return fmt.Errorf("%w: %v is empty", ErrIllegalMove, m.Square)
	}
	if top.Color != b.toMove {
		return fmt.Errorf("%w: %v is not controlled by %v", ErrIllegalMove, m.Square, b.toMove)
	}
	if len(m.Drops) == 0 {
		return fmt.Errorf("%w: no drops", ErrIllegalMove)
	}
	var count = 0
	for _, d := range m.Drops {
		if d < 1 {
			return fmt.Errorf("%w: empty drop", ErrIllegalMove)
		}
		count += d
	}
	if count > b.size {
		return fmt.Errorf("%w: carry limit is %v", ErrIllegalMove, b.size)
	}
	if count > len(stack) {
		return fmt.Errorf("%w: stack has %v pieces", ErrIllegalMove, len(stack))
	}
	var crushed = false
	for i := range m.Drops {
		var sq = m.Square.step(m.Dir, i+1)
		if !sq.OnBoard(b.size) {
			return fmt.Errorf("%w: spread leaves the board", ErrIllegalMove)
		}
		var target, occupied = b.At(sq).Top()
		if !occupied {
			continue
		}
		switch target.Shape {
		case Capstone:
			return fmt.Errorf("%w: cannot move onto capstone at %v", ErrIllegalMove, sq)
		case Wall:
			var last = i == len(m.Drops)-1
			if !last || m.Drops[i] != 1 || top.Shape != Capstone {
				return fmt.Errorf("%w: cannot move onto wall at %v", ErrIllegalMove, sq)
			}
			crushed = true
		}
	}
	if m.Crush && !crushed {
		return fmt.Errorf("%w: nothing to flatten", ErrIllegalMove)
	}
	return nil
}

// Apply validates and plays the move, then recomputes the game status.
func (b *Board) Apply(m Move) error {
	if err := b.validate(m); err != nil {
		return err
	}
	if m.Kind == Place {
		var c = b.placedColor()
		if m.Shape == Capstone {
			b.caps[c]--
		} else {
			b.flats[c]--
		}
		b.cells[b.index(m.Square)] = Stack{Piece{Color: c, Shape: m.Shape}}
	} else {
		b.spread(m)
	}

	var mover = b.toMove
	if b.toMove == Black {
		b.fullMove++
	}
	b.toMove = b.toMove.Opponent()

	var key = b.Fingerprint()
	b.seen[key]++
	b.status = b.evaluate(mover, b.seen[key])
	return nil
}

func (b *Board) spread(m Move) {
	var from = b.index(m.Square)
	var stack = b.cells[from]
	var count = m.Count()
	var carried = append(Stack(nil), stack[len(stack)-count:]...)
	b.cells[from] = stack[:len(stack)-count : len(stack)-count]
	if len(b.cells[from]) == 0 {
		b.cells[from] = nil
	}
	for i, d := range m.Drops {
		var to = b.index(m.Square.step(m.Dir, i+1))
		var target = b.cells[to]
		if n := len(target); n != 0 && target[n-1].Shape == Wall {
			target[n-1].Shape = Flat
		}
		b.cells[to] = append(target, carried[:d]...)
		carried = carried[d:]
	}
}

// LegalMoves lists every legal move in the current position.
func (b *Board) LegalMoves() []Move {
	if b.status.Kind != Ongoing {
		return nil
	}
	var result []Move
	var shapes = []Shape{Flat, Wall, Capstone}
	for rank := 0; rank < b.size; rank++ {
		for file := 0; file < b.size; file++ {
			var sq = Square{File: file, Rank: rank}
			for _, shape := range shapes {
				var m = NewPlacement(sq, shape)
				if b.validate(m) == nil {
					result = append(result, m)
				}
			}
			var top, ok = b.At(sq).Top()
			if !ok || top.Color != b.toMove || b.openingTurn() {
				continue
			}
			var maxCarry = len(b.At(sq))
			if maxCarry > b.size {
				maxCarry = b.size
			}
			for dir := Up; dir <= Right; dir++ {
				for count := 1; count <= maxCarry; count++ {
					for _, drops := range compositions(count, b.distance(sq, dir)) {
						var m = NewSpread(sq, dir, drops...)
						if b.validate(m) == nil {
							result = append(result, m)
						}
					}
				}
			}
		}
	}
	return result
}

func (b *Board) distance(sq Square, dir Direction) int {
	var n = 0
	for sq.step(dir, n+1).OnBoard(b.size) {
		n++
	}
	return n
}

// compositions returns the ordered ways of writing n as a sum of at most k
// positive parts.
func compositions(n, k int) [][]int {
	if n == 0 {
		return [][]int{nil}
	}
	if k == 0 {
		return nil
	}
	var result [][]int
	for first := 1; first <= n; first++ {
		for _, rest := range compositions(n-first, k-1) {
			result = append(result, append([]int{first}, rest...))
		}
	}
	return result
}
