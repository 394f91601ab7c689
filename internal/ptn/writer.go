package ptn

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ChizhovVadim/takmatch/internal/arena"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

// Format renders a game record with its tags and move comments.
func Format(game *arena.GameRecord) string {
	var sb = &strings.Builder{}
	var tag = func(key, value string) {
		fmt.Fprintf(sb, "[%v \"%v\"]\n", key, value)
	}
	var entry = game.Entry
	tag("Player1", game.White)
	tag("Player2", game.Black)
	tag("Size", strconv.Itoa(entry.Size))
	tag("Komi", strconv.FormatFloat(float64(entry.HalfKomi)/2, 'f', -1, 64))
	tag("Round", strconv.Itoa(entry.Index+1))
	tag("Date", game.Started.Format("2006.01.02"))
	if game.StartTPS != "" && game.StartTPS != tak.StartTPS(entry.Size) {
		tag("TPS", game.StartTPS)
	}
	tag("Clock", entry.TimeControl.String())
	tag("Result", game.Result.PTN())
	tag("Termination", game.Result.Reason.String())
	sb.WriteString("\n")

	var moveNumber, side = startOf(game)
	var parts []string
	if side == tak.Black && len(game.Moves) != 0 {
		parts = append(parts, fmt.Sprintf("%v.", moveNumber), "--")
	}
	for _, m := range game.Moves {
		if side == tak.White {
			parts = append(parts, fmt.Sprintf("%v.", moveNumber))
		} else {
			moveNumber++
		}
		parts = append(parts, m.Move.String())
		if m.Comment != "" {
			parts = append(parts, "{"+m.Comment+"}")
		}
		side = side.Opponent()
	}
	parts = append(parts, game.Result.PTN())
	sb.WriteString(strings.Join(parts, " "))
	sb.WriteString("\n\n")
	return sb.String()
}

func startOf(game *arena.GameRecord) (int, tak.Color) {
	if game.StartTPS == "" {
		return 1, tak.White
	}
	var b, err = tak.FromTPS(game.StartTPS, game.Entry.HalfKomi)
	if err != nil {
		return 1, tak.White
	}
	return b.FullMove(), b.SideToMove()
}

// Writer appends games in schedule order. Games that finish early are held
// back until every game before them has been written.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	file    *os.File
	next    int
	pending map[int]*arena.GameRecord
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:       w,
		pending: make(map[int]*arena.GameRecord),
	}
}

// Create opens path for appending.
func Create(path string) (*Writer, error) {
	var file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	var w = NewWriter(file)
	w.file = file
	return w, nil
}

func (w *Writer) Record(game *arena.GameRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[game.Entry.Index] = game
	for {
		var g, ok = w.pending[w.next]
		if !ok {
			return nil
		}
		delete(w.pending, w.next)
		w.next++
		if _, err := io.WriteString(w.w, Format(g)); err != nil {
			return err
		}
	}
}

// Flush writes held back games whose predecessors will never arrive.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var indexes []int
	for index := range w.pending {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		var g = w.pending[index]
		delete(w.pending, index)
		w.next = index + 1
		if _, err := io.WriteString(w.w, Format(g)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) Close() error {
	var err = w.Flush()
	if w.file != nil {
		if closeErr := w.file.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
