package arena

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrConfig = errors.New("invalid runner options")

type Options struct {
	Engines []domain.EngineSpec
	// Concurrency is the number of games played at the same time.
	Concurrency int
	// MoveOverhead is added to the remaining time before a flag falls.
	MoveOverhead   time.Duration
	StartupTimeout time.Duration
	StopGrace      time.Duration
	QuitGrace      time.Duration
	// SPRT stops a two-engine match once either hypothesis is accepted.
	SPRT *SPRT
}

func (o Options) Validate() error {
	if len(o.Engines) == 0 {
		return fmt.Errorf("%w: no engines", ErrConfig)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency %v", ErrConfig, o.Concurrency)
	}
	if o.SPRT != nil {
		if len(o.Engines) != 2 {
			return fmt.Errorf("%w: sprt needs exactly 2 engines", ErrConfig)
		}
		if err := o.SPRT.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Runner plays a schedule with a bounded number of concurrent games and
// aggregates the results.
type Runner struct {
	opts      Options
	logger    *zap.Logger
	standings *Standings
	sinks     []Sink
	watcher   Watcher

	drain     chan struct{}
	drainOnce sync.Once
	decision  Decision
}

func NewRunner(opts Options, logger *zap.Logger) *Runner {
	var names []string
	for _, e := range opts.Engines {
		names = append(names, e.Name)
	}
	return &Runner{
		opts:      opts,
		logger:    logger,
		standings: NewStandings(names),
		drain:     make(chan struct{}),
	}
}

// AddSink registers a store for finished games. Must be called before Run.
func (r *Runner) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// SetWatcher registers the receiver of live updates. Must be called before Run.
func (r *Runner) SetWatcher(w Watcher) {
	r.watcher = w
}

func (r *Runner) Standings() *Standings {
	return r.standings
}

// Decision is the SPRT outcome; valid after Run returns.
func (r *Runner) Decision() Decision {
	return r.decision
}

// Drain stops dispatching new games. Games in progress are played out.
func (r *Runner) Drain() {
	r.drainOnce.Do(func() {
		close(r.drain)
	})
}

func (r *Runner) draining() bool {
	select {
	case <-r.drain:
		return true
	default:
		return false
	}
}

// Run plays entries until the schedule is exhausted or drained. Cancelling ctx
// aborts running games; their records are still aggregated. Engines are shut
// down before Run returns.
func (r *Runner) Run(ctx context.Context, entries []schedule.Entry) error {
	if err := r.opts.Validate(); err != nil {
		return err
	}
	r.logger.Info("tournament started",
		zap.Int("games", len(entries)),
		zap.Int("engines", len(r.opts.Engines)),
		zap.Int("concurrency", r.opts.Concurrency),
		zap.Int("NumCPU", runtime.NumCPU()))
	defer r.logger.Info("tournament finished")

	var pool = newPool(r.opts.Engines, r.opts, r.logger)
	defer pool.close()

	g, ctx := errgroup.WithContext(ctx)

	var gameInfos = make(chan schedule.Entry)
	var gameResults = make(chan *GameRecord)

	g.Go(func() error {
		defer close(gameInfos)
		return r.dispatch(ctx, entries, gameInfos)
	})

	g.Go(func() error {
		return r.showResults(gameResults, len(entries))
	})

	var wg = &sync.WaitGroup{}

	for i := 0; i < r.opts.Concurrency; i++ {
		var ref = &referee{
			logger:   r.logger,
			overhead: r.opts.MoveOverhead,
			watcher:  r.watcher,
			slot:     i,
		}
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			r.playGames(ctx, ref, pool, gameInfos, gameResults)
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	return g.Wait()
}

func (r *Runner) dispatch(ctx context.Context, entries []schedule.Entry, gameInfos chan<- schedule.Entry) error {
	for i, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.draining() {
			r.logger.Info("draining", zap.Int("skipped", len(entries)-i))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.drain:
			r.logger.Info("draining", zap.Int("skipped", len(entries)-i))
			return nil
		case gameInfos <- entry:
		}
	}
	return nil
}

// playGames sends a record for every game it starts. Entries received after
// cancellation are not started.
func (r *Runner) playGames(
	ctx context.Context,
	ref *referee,
	pool *pool,
	gameInfos <-chan schedule.Entry,
	gameResults chan<- *GameRecord,
) {
	for entry := range gameInfos {
		if ctx.Err() != nil {
			continue
		}
		gameResults <- r.playEntry(ctx, ref, pool, entry)
	}
}

func (r *Runner) playEntry(ctx context.Context, ref *referee, pool *pool, entry schedule.Entry) *GameRecord {
	var white, whiteErr = pool.acquire(ctx, entry.White)
	var black, blackErr = pool.acquire(ctx, entry.Black)
	if whiteErr == nil && blackErr == nil {
		defer pool.release(white)
		defer pool.release(black)
		return ref.playGame(ctx, entry, white, black)
	}
	if white != nil {
		pool.release(white)
	}
	if black != nil {
		pool.release(black)
	}

	var now = time.Now()
	var game = &GameRecord{
		Entry:    entry,
		White:    r.opts.Engines[entry.White].Name,
		Black:    r.opts.Engines[entry.Black].Name,
		Started:  now,
		Finished: now,
		Fault:    firstError(whiteErr, blackErr).Error(),
	}
	if b, err := entry.Opening.Board(entry.Size, entry.HalfKomi); err == nil {
		game.StartTPS = b.TPS()
		game.FinalTPS = game.StartTPS
	}
	if ctx.Err() != nil {
		game.Result = tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonAborted}
	} else {
		game.Result = forfeitResult(whiteErr, blackErr)
	}
	ref.publish(game, nil, true)
	return game
}

func (r *Runner) showResults(gameResults <-chan *GameRecord, total int) error {
	var finished = 0
	for game := range gameResults {
		finished++
		r.standings.Record(game)
		var fields = []zap.Field{
			zap.Int("game", game.Entry.Index+1),
			zap.String("progress", fmt.Sprintf("%v/%v", finished, total)),
			zap.String("white", game.White),
			zap.String("black", game.Black),
			zap.String("result", game.Result.PTN()),
			zap.Stringer("reason", game.Result.Reason),
			zap.Int("plies", len(game.Moves)),
		}
		if game.Fault != "" {
			fields = append(fields, zap.String("fault", game.Fault))
		}
		r.logger.Info("finished game", fields...)

		for _, sink := range r.sinks {
			if err := sink.Record(game); err != nil {
				r.logger.Error("store game failed", zap.Error(err))
			}
		}

		if len(r.opts.Engines) == 2 {
			r.showMatch()
		}
	}
	r.logger.Info("standings\n" + r.standings.Snapshot().String())
	return nil
}

// showMatch logs the head-to-head score of a two-engine match and runs the
// SPRT if one is configured.
func (r *Runner) showMatch() {
	var pair = r.standings.Pair(0, 1)
	var t = pair.Trinomial
	if t.Games() == 0 {
		return
	}
	var stat = computeStat(t.Wins, t.Losses, t.Draws)
	r.logger.Info(fmt.Sprintf("Score: %v - %v - %v  [%.3f] %v",
		t.Wins, t.Losses, t.Draws, stat.WinningFraction, t.Games()))
	r.logger.Info(fmt.Sprintf("Elo difference: %.1f, LOS: %.1f %%",
		stat.EloDifference, stat.LOS*100))
	if pairs := pair.Pentanomial.Pairs(); pairs != 0 {
		r.logger.Info(fmt.Sprintf("Pentanomial: %v  logistic Elo %v  normalized Elo %v",
			pair.Pentanomial, pair.Pentanomial.LogisticElo(), pair.Pentanomial.NormalizedElo()))
	}
	if r.opts.SPRT == nil || r.decision != Continue {
		return
	}
	var llr = r.opts.SPRT.LLR(pair.Pentanomial)
	var lower, upper = r.opts.SPRT.Bounds()
	r.logger.Info(fmt.Sprintf("LLR: %.2f (%.2f, %.2f)", llr, lower, upper))
	if d := r.opts.SPRT.Decide(pair.Pentanomial); d != Continue {
		r.decision = d
		r.logger.Info("sprt finished", zap.Stringer("decision", d))
		r.Drain()
	}
}
