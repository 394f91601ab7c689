// Package cli is the takmatch command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/takmatch/internal/arena"
	"github.com/ChizhovVadim/takmatch/internal/config"
	"github.com/ChizhovVadim/takmatch/internal/httpserver"
	"github.com/ChizhovVadim/takmatch/internal/logging"
	"github.com/ChizhovVadim/takmatch/internal/openings"
	"github.com/ChizhovVadim/takmatch/internal/ptn"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/internal/store"
)

// Execute runs the command and returns the process exit status.
func Execute(args []string) int {
	var cmd = NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "takmatch:", err)
		return 1
	}
	return 0
}

func NewRootCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:           "takmatch",
		Short:         "Play a match between two or more Tak engines",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg, err = config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, closeLog, err := logging.New(logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile})
			if err != nil {
				return err
			}
			defer closeLog()
			return run(cmd.Context(), cfg, logger, cmd.OutOrStdout(), interrupts())
		},
	}
	config.AddFlags(cmd.Flags())
	cmd.AddCommand(newGenbookCommand())
	return cmd
}

// interrupts delivers SIGINT and SIGTERM.
func interrupts() <-chan os.Signal {
	var c = make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	return c
}

// run plays the configured tournament. The first signal stops dispatching new
// games, the second aborts the running ones.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer, signals <-chan os.Signal) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bookOpts, err = cfg.BookOptions()
	if err != nil {
		return err
	}
	book, err := openings.Load(ctx, cfg.Book, bookOpts)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrConfig, err)
	}
	if len(book) != 0 {
		logger.Info("loaded openings", zap.Int("count", len(book)), zap.Strings("files", cfg.Book))
	}
	tournament, err := cfg.Tournament(book)
	if err != nil {
		return err
	}
	entries, err := schedule.Build(tournament)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrConfig, err)
	}
	runnerOpts, err := cfg.RunnerOptions()
	if err != nil {
		return err
	}

	var runner = arena.NewRunner(runnerOpts, logger)

	if cfg.PTNOut != "" {
		var w, err = ptn.Create(cfg.PTNOut)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Flush(); err != nil {
				logger.Error("flush ptn", zap.Error(err))
			}
			w.Close()
		}()
		runner.AddSink(w)
	}

	var results httpserver.Results
	if cfg.Database != "" {
		var db, err = store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		stored, err := db.StartRun(ctx, store.Run{
			Format:      tournament.Format.String(),
			Engines:     engineNames(cfg),
			Size:        tournament.Size,
			HalfKomi:    tournament.HalfKomi,
			TimeControl: tournament.TimeControl.String(),
			Games:       len(entries),
		})
		if err != nil {
			return err
		}
		logger.Info("results database", zap.String("path", cfg.Database), zap.Stringer("run", stored.ID))
		runner.AddSink(db)
		results = db
	}

	var g, gctx = errgroup.WithContext(context.Background())
	var serveCtx, stopServe = context.WithCancel(gctx)
	if cfg.HTTP != "" {
		var hub = httpserver.NewHub()
		runner.SetWatcher(hub)
		var srv = httpserver.New(hub, runner.Standings(), results, logger)
		g.Go(func() error {
			return srv.ListenAndServe(serveCtx, cfg.HTTP)
		})
	}

	go func() {
		var interrupted bool
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				if !interrupted {
					interrupted = true
					logger.Warn("stopping after running games, interrupt again to abort", zap.Stringer("signal", sig))
					runner.Drain()
				} else {
					logger.Warn("aborting running games", zap.Stringer("signal", sig))
					cancel()
				}
			}
		}
	}()

	logger.Info("match configured",
		zap.String("format", tournament.Format.String()),
		zap.Strings("engines", engineNames(cfg)),
		zap.Int("games", len(entries)),
		zap.Int("concurrency", runnerOpts.Concurrency),
		zap.Stringer("tc", tournament.TimeControl))

	var runErr = runner.Run(ctx, entries)
	stopServe()
	if err := g.Wait(); err != nil {
		logger.Error("http server", zap.Error(err))
	}

	fmt.Fprintln(out, runner.Standings().Snapshot())
	if runnerOpts.SPRT != nil {
		fmt.Fprintln(out, "SPRT:", runner.Decision())
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Warn("tournament aborted")
		return nil
	}
	return runErr
}

func engineNames(cfg config.Config) []string {
	var result []string
	for _, e := range cfg.Engines {
		result = append(result, e.Name)
	}
	return result
}
