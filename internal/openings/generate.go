package openings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

type GenerateOptions struct {
	Size  int
	Plies int
	Count int
	Seed  int64
	// MaxFlatDiff drops openings where one side already leads by more flats.
	MaxFlatDiff int
}

// branching is the number of random children tried per node.
const branching = 3

// Generate walks random move sequences from the start position and collects
// up to Count distinct openings of Plies moves. Fewer are returned when the
// walk keeps finding duplicates.
func Generate(ctx context.Context, opts GenerateOptions, logger *zap.Logger) ([]domain.Opening, error) {
	if opts.Plies < 1 || opts.Count < 1 {
		return nil, fmt.Errorf("%w: plies and count must be positive", ErrBook)
	}
	var root, err = tak.New(opts.Size, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBook, err)
	}

	logger.Info("generate openings started", zap.Int("size", opts.Size), zap.Int("plies", opts.Plies))
	defer logger.Info("generate openings finished")

	g, ctx := errgroup.WithContext(ctx)
	var candidates = make(chan domain.Opening, 128)
	var done = make(chan struct{})

	g.Go(func() error {
		defer close(candidates)
		var w = &walker{
			rnd:         rand.New(rand.NewSource(opts.Seed)),
			maxFlatDiff: opts.MaxFlatDiff,
			out:         candidates,
			done:        done,
		}
		var maxRoots = 64 * opts.Count
		for i := 0; i < maxRoots; i++ {
			if err := w.walk(ctx, root.Clone(), nil, opts.Plies); err != nil {
				if err == errStop {
					return nil
				}
				return err
			}
		}
		return nil
	})

	var result []domain.Opening
	g.Go(func() error {
		var err error
		result, err = collect(ctx, opts.Size, opts.Count, candidates, logger)
		close(done)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

var errStop = errors.New("stop")

type walker struct {
	rnd         *rand.Rand
	maxFlatDiff int
	out         chan<- domain.Opening
	done        <-chan struct{}
}

func (w *walker) walk(ctx context.Context, b *tak.Board, moves []tak.Move, depth int) error {
	if b.Status().Terminal() {
		return nil
	}
	if depth <= 0 {
		var diff = b.FlatCount(tak.White) - b.FlatCount(tak.Black)
		if diff < -w.maxFlatDiff || diff > w.maxFlatDiff {
			return nil
		}
		var opening = domain.Opening{Moves: append([]tak.Move(nil), moves...)}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return errStop
		case w.out <- opening:
		}
		return nil
	}
	var legal = b.LegalMoves()
	if len(legal) == 0 {
		return nil
	}
	for i := 0; i < branching; i++ {
		var m = legal[w.rnd.Intn(len(legal))]
		var child = b.Clone()
		if err := child.Apply(m); err != nil {
			continue
		}
		if err := w.walk(ctx, child, append(moves, m), depth-1); err != nil {
			return err
		}
	}
	return nil
}

// collect keeps the first count openings with distinct final positions.
func collect(ctx context.Context, size, count int, candidates <-chan domain.Opening, logger *zap.Logger) ([]domain.Opening, error) {
	var ticker = time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var result []domain.Opening
	var total int
	var seen = make(map[tak.PositionKey]struct{})

	var showProgress = func() {
		logger.Info("generate openings progress", zap.Int("total", total), zap.Int("unique", len(result)))
	}

	for len(result) < count {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			showProgress()
		case opening, ok := <-candidates:
			if !ok {
				showProgress()
				return result, nil
			}
			total++
			var b, err = opening.Board(size, 0)
			if err != nil {
				return nil, err
			}
			var key = b.Fingerprint()
			if _, found := seen[key]; found {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, opening)
		}
	}
	showProgress()
	return result, nil
}

// Write saves openings one per line, readable by Parse.
func Write(w io.Writer, book []domain.Opening) error {
	var bw = bufio.NewWriter(w)
	for _, opening := range book {
		if _, err := fmt.Fprintln(bw, opening); err != nil {
			return err
		}
	}
	return bw.Flush()
}
