// Package openings loads opening books: one opening per line, either as a TPS
// position (optionally followed by moves) or as a move list from the start
// position, or as games in a PTN file.
package openings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/ptn"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrBook = errors.New("bad opening book")

type Format int

const (
	Auto Format = iota
	TPS
	Moves
	PTN
)

var formatNames = [...]string{"auto", "tps", "moves", "ptn"}

func (f Format) String() string {
	return formatNames[f]
}

func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(name, s) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown format %q", ErrBook, s)
}

type Options struct {
	Format Format
	// Size is the board size every opening must fit.
	Size int
	// Shuffle reorders the book with Seed; the same seed gives the same order.
	Shuffle bool
	Seed    int64
}

// Load reads the books in paths concurrently and concatenates them in order.
func Load(ctx context.Context, paths []string, opts Options) ([]domain.Opening, error) {
	var books = make([][]domain.Opening, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		var i, path = i, path
		g.Go(func() error {
			var book, err = loadFile(ctx, path, opts)
			books[i] = book
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var result []domain.Opening
	for _, book := range books {
		result = append(result, book...)
	}
	if opts.Shuffle {
		Shuffle(result, opts.Seed)
	}
	return result, nil
}

func Shuffle(book []domain.Opening, seed int64) {
	var rnd = rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(book), func(i, j int) {
		book[i], book[j] = book[j], book[i]
	})
}

func loadFile(ctx context.Context, path string, opts Options) ([]domain.Opening, error) {
	var format = opts.Format
	if format == Auto && strings.EqualFold(filepath.Ext(path), ".ptn") {
		format = PTN
	}
	if format == PTN {
		return loadGames(path, opts.Size)
	}
	var file, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	book, err := Parse(ctx, file, format, opts.Size)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return book, nil
}

// Parse reads a line based book. Empty lines and lines starting with // are
// skipped.
func Parse(ctx context.Context, r io.Reader, format Format, size int) ([]domain.Opening, error) {
	var result []domain.Opening
	var scanner = bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var opening, err = ParseLine(line, format, size)
		if err != nil {
			return nil, fmt.Errorf("line %v: %w", lineNumber, err)
		}
		result = append(result, opening)
	}
	return result, scanner.Err()
}

func ParseLine(line string, format Format, size int) (domain.Opening, error) {
	if format == Auto {
		format = Moves
		if looksLikeTPS(line) {
			format = TPS
		}
	}
	var opening domain.Opening
	var moveText = line
	if format == TPS {
		var fields = strings.Fields(line)
		if len(fields) < 3 {
			return domain.Opening{}, fmt.Errorf("%w: %q is not a position", ErrBook, line)
		}
		opening.TPS = strings.Join(fields[:3], " ")
		moveText = strings.Join(fields[3:], " ")
	}
	var moves, err = ptn.ParseMoves(moveText)
	if err != nil {
		return domain.Opening{}, fmt.Errorf("%w: %v", ErrBook, err)
	}
	opening.Moves = moves
	return validate(opening, size)
}

func looksLikeTPS(line string) bool {
	var fields = strings.Fields(line)
	return len(fields) >= 3 && (strings.Contains(fields[0], "/") || strings.HasPrefix(fields[0], "x"))
}

func validate(opening domain.Opening, size int) (domain.Opening, error) {
	if opening.TPS == tak.StartTPS(size) {
		opening.TPS = ""
	}
	var b, err = opening.Board(size, 0)
	if err != nil {
		return domain.Opening{}, fmt.Errorf("%w: %v", ErrBook, err)
	}
	if b.Status().Kind != tak.Ongoing {
		return domain.Opening{}, fmt.Errorf("%w: opening %v is already decided", ErrBook, opening)
	}
	return opening, nil
}

func loadGames(path string, size int) ([]domain.Opening, error) {
	var result []domain.Opening
	var err = ptn.WalkFile(path, func(text string) error {
		var game, err = ptn.ParseGame(text)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBook, err)
		}
		var tps, _ = game.TagValue("TPS")
		opening, err := validate(domain.Opening{TPS: tps, Moves: game.Moves()}, size)
		if err != nil {
			return err
		}
		result = append(result, opening)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return result, nil
}
