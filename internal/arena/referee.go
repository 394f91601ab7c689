package arena

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/internal/engine"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

// referee plays single games between two sessions.
type referee struct {
	logger   *zap.Logger
	overhead time.Duration
	watcher  Watcher
	slot     int
}

func faultReason(kind engine.FaultKind) tak.Reason {
	switch kind {
	case engine.IllegalMove:
		return tak.ReasonIllegalMove
	case engine.Timeout:
		return tak.ReasonTimeout
	case engine.Protocol:
		return tak.ReasonProtocol
	case engine.ProcessExit:
		return tak.ReasonCrash
	}
	return tak.ReasonForfeit
}

// forfeitResult decides a game that could not be played because one or both
// engines were unavailable.
func forfeitResult(whiteErr, blackErr error) tak.Result {
	switch {
	case whiteErr != nil && blackErr != nil:
		return tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonForfeit}
	case whiteErr != nil:
		return tak.WinFor(tak.Black, tak.ReasonForfeit)
	}
	return tak.WinFor(tak.White, tak.ReasonForfeit)
}

// playGame runs one game to completion. Engine faults are converted into
// results; the returned record is always usable. white and black must be
// distinct sessions, also in self-play.
func (r *referee) playGame(ctx context.Context, entry schedule.Entry, white, black *engine.Session) *GameRecord {
	var game = &GameRecord{
		Entry:   entry,
		White:   white.Name(),
		Black:   black.Name(),
		Started: time.Now(),
	}
	var logger = r.logger.With(zap.Int("game", entry.Index+1))
	logger.Info("started game",
		zap.String("white", game.White),
		zap.String("black", game.Black),
		zap.Stringer("opening", entry.Opening))
	defer func() {
		game.Finished = time.Now()
		white.EndGame()
		black.EndGame()
		r.publish(game, nil, true)
	}()

	var board, err = entry.Opening.Board(entry.Size, entry.HalfKomi)
	if err != nil {
		game.Result = tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonAborted}
		game.Fault = err.Error()
		return game
	}
	if entry.MoveLimit != 0 {
		board.SetMoveLimit(entry.MoveLimit)
	}
	game.StartTPS = board.TPS()
	game.FinalTPS = game.StartTPS
	var sessions = [2]*engine.Session{white, black}

	var newGameErrs [2]error
	for side, s := range sessions {
		newGameErrs[side] = s.NewGame(ctx, entry.Size, entry.HalfKomi)
	}
	if newGameErrs[tak.White] != nil || newGameErrs[tak.Black] != nil {
		if ctx.Err() != nil {
			game.Result = tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonAborted}
			return game
		}
		game.Result = forfeitResult(newGameErrs[tak.White], newGameErrs[tak.Black])
		game.Fault = fmt.Sprint(firstError(newGameErrs[:]...))
		return game
	}

	var clock = engine.NewClock(entry.TimeControl, r.overhead)
	var played []tak.Move
	r.publish(game, clock, false)
	for board.Status().Kind == tak.Ongoing {
		var side = board.SideToMove()
		var position = tei.Position{
			TPS:   entry.Opening.TPS,
			Moves: append(append([]tak.Move(nil), entry.Opening.Moves...), played...),
		}
		var reply, err = sessions[side].Go(ctx, position, clock, side)
		if err != nil {
			if ctx.Err() != nil {
				game.Result = tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonAborted}
				return game
			}
			game.Fault = err.Error()
			if f, ok := engine.AsFault(err); ok {
				game.Result = tak.WinFor(side.Opponent(), faultReason(f.Kind))
			} else {
				game.Result = tak.Result{Kind: tak.Unterminated, Reason: tak.ReasonAborted}
			}
			logger.Warn("engine fault", zap.Error(err))
			return game
		}
		if reply.Resign {
			game.Result = tak.WinFor(side.Opponent(), tak.ReasonResignation)
			return game
		}
		if err = board.Apply(reply.Move); err != nil {
			var f = &engine.Fault{Kind: engine.IllegalMove, Engine: sessions[side].Name(), Err: err}
			game.Fault = f.Error()
			game.Result = tak.WinFor(side.Opponent(), tak.ReasonIllegalMove)
			logger.Warn("engine fault", zap.Error(f))
			return game
		}
		played = append(played, reply.Move)
		game.FinalTPS = board.TPS()
		game.Moves = append(game.Moves, PlayedMove{
			Move:    reply.Move,
			Comment: reply.Info.Summary(reply.Elapsed),
		})
		r.publish(game, clock, false)
	}
	game.Result = board.Status()
	return game
}

func (r *referee) publish(game *GameRecord, clock *engine.Clock, finished bool) {
	if r.watcher == nil {
		return
	}
	var state = GameState{
		Slot:     r.slot,
		Game:     game.Entry.Index + 1,
		White:    game.White,
		Black:    game.Black,
		TPS:      game.FinalTPS,
		Finished: finished,
	}
	for _, m := range game.Moves {
		state.Moves = append(state.Moves, m.Move.String())
	}
	if clock != nil {
		state.WhiteTime = clock.Remaining(tak.White)
		state.BlackTime = clock.Remaining(tak.Black)
	}
	if finished {
		state.Result = game.Result.PTN()
	}
	r.watcher.Update(state)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
