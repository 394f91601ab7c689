package tak

// evaluate computes the status after a move by mover. Priority is road, then
// flats, then repetition, then the move limit.
func (b *Board) evaluate(mover Color, occurrences int) Result {
	var white, black = b.hasRoad(White), b.hasRoad(Black)
	switch {
	case white && black:
		return WinFor(mover, ReasonRoad)
	case white:
		return WinFor(White, ReasonRoad)
	case black:
		return WinFor(Black, ReasonRoad)
	}

	if b.boardFull() || b.outOfPieces(White) || b.outOfPieces(Black) {
		return b.flatsResult()
	}

	if occurrences >= 3 {
		return DrawBy(ReasonRepetition)
	}

	if b.moveLimit > 0 && b.fullMove > b.moveLimit {
		return DrawBy(ReasonMoveLimit)
	}
	return Result{Kind: Ongoing}
}

func (b *Board) boardFull() bool {
	for _, s := range b.cells {
		if len(s) == 0 {
			return false
		}
	}
	return true
}

func (b *Board) outOfPieces(c Color) bool {
	return b.flats[c] == 0 && b.caps[c] == 0
}

// FlatCount counts the flats on top of stacks for color c.
func (b *Board) FlatCount(c Color) int {
	var n = 0
	for _, s := range b.cells {
		if top, ok := s.Top(); ok && top.Color == c && top.Shape == Flat {
			n++
		}
	}
	return n
}

func (b *Board) flatsResult() Result {
	var white = 2 * b.FlatCount(White)
	var black = 2*b.FlatCount(Black) + b.halfKomi
	switch {
	case white > black:
		return WinFor(White, ReasonFlats)
	case black > white:
		return WinFor(Black, ReasonFlats)
	}
	return DrawBy(ReasonFlats)
}

func (b *Board) roadAt(i int, c Color) bool {
	var top, ok = b.cells[i].Top()
	return ok && top.Color == c && top.isRoad()
}

// hasRoad searches for a group of road pieces joining opposite edges.
func (b *Board) hasRoad(c Color) bool {
	return b.connects(c, func(sq Square) bool { return sq.File == 0 },
		func(sq Square) bool { return sq.File == b.size-1 }) ||
		b.connects(c, func(sq Square) bool { return sq.Rank == 0 },
			func(sq Square) bool { return sq.Rank == b.size-1 })
}

func (b *Board) connects(c Color, start, goal func(Square) bool) bool {
	var visited = make([]bool, len(b.cells))
	var queue []Square
	for i := range b.cells {
		var sq = Square{File: i % b.size, Rank: i / b.size}
		if start(sq) && b.roadAt(i, c) {
			visited[i] = true
			queue = append(queue, sq)
		}
	}
	for len(queue) != 0 {
		var sq = queue[0]
		queue = queue[1:]
		if goal(sq) {
			return true
		}
		for dir := Up; dir <= Right; dir++ {
			var next = sq.step(dir, 1)
			if !next.OnBoard(b.size) {
				continue
			}
			var i = b.index(next)
			if !visited[i] && b.roadAt(i, c) {
				visited[i] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
