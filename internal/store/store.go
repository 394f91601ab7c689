// Package store persists tournament runs and finished games in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChizhovVadim/takmatch/internal/arena"
	"github.com/ChizhovVadim/takmatch/internal/ptn"
)

var ErrNoRun = errors.New("no run started")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   TIMESTAMP NOT NULL,
	format       TEXT NOT NULL,
	engines      TEXT NOT NULL,
	size         INTEGER NOT NULL,
	half_komi    INTEGER NOT NULL,
	time_control TEXT NOT NULL,
	games        INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	game_number INTEGER NOT NULL,
	white       TEXT NOT NULL,
	black       TEXT NOT NULL,
	opening     TEXT NOT NULL,
	result      TEXT NOT NULL,
	reason      TEXT NOT NULL,
	fault       TEXT NOT NULL,
	plies       INTEGER NOT NULL,
	ptn         TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS games_run ON games(run_id, game_number);
`

type Run struct {
	ID          uuid.UUID `json:"id"`
	Started     time.Time `json:"started"`
	Format      string    `json:"format"`
	Engines     []string  `json:"engines"`
	Size        int       `json:"size"`
	HalfKomi    int       `json:"halfKomi"`
	TimeControl string    `json:"timeControl"`
	Games       int       `json:"games"`
}

type Game struct {
	ID       uuid.UUID `json:"id"`
	Number   int       `json:"number"`
	White    string    `json:"white"`
	Black    string    `json:"black"`
	Opening  string    `json:"opening"`
	Result   string    `json:"result"`
	Reason   string    `json:"reason"`
	Fault    string    `json:"fault,omitempty"`
	Plies    int       `json:"plies"`
	PTN      string    `json:"ptn"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Store is an arena.Sink writing every finished game of the current run.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	runID uuid.UUID
}

// Open opens (and creates if missing) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun registers a new run; later games are attached to it.
func (s *Store) StartRun(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.New()
	if run.Started.IsZero() {
		run.Started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(id, started_at, format, engines, size, half_komi, time_control, games)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Started.UTC(), run.Format, strings.Join(run.Engines, ","),
		run.Size, run.HalfKomi, run.TimeControl, run.Games)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	s.mu.Lock()
	s.runID = run.ID
	s.mu.Unlock()
	return run, nil
}

func (s *Store) Record(game *arena.GameRecord) error {
	s.mu.Lock()
	var runID = s.runID
	s.mu.Unlock()
	if runID == uuid.Nil {
		return ErrNoRun
	}
	_, err := s.db.Exec(
		`INSERT INTO games(id, run_id, game_number, white, black, opening, result, reason, fault, plies, ptn, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), runID.String(), game.Entry.Index+1, game.White, game.Black,
		game.Entry.Opening.String(), game.Result.PTN(), game.Result.Reason.String(), game.Fault,
		len(game.Moves), ptn.Format(game), game.Started.UTC(), game.Finished.UTC())
	if err != nil {
		return fmt.Errorf("insert game %v: %w", game.Entry.Index+1, err)
	}
	return nil
}

// Runs lists runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, format, engines, size, half_komi, time_control, games
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Run
	for rows.Next() {
		var run Run
		var id, engines string
		if err := rows.Scan(&id, &run.Started, &run.Format, &engines, &run.Size,
			&run.HalfKomi, &run.TimeControl, &run.Games); err != nil {
			return nil, err
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		run.Engines = strings.Split(engines, ",")
		result = append(result, run)
	}
	return result, rows.Err()
}

// Games lists the games of a run in schedule order.
func (s *Store) Games(ctx context.Context, runID uuid.UUID) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_number, white, black, opening, result, reason, fault, plies, ptn, started_at, finished_at
		 FROM games WHERE run_id = ? ORDER BY game_number`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Game
	for rows.Next() {
		var g Game
		var id string
		if err := rows.Scan(&id, &g.Number, &g.White, &g.Black, &g.Opening, &g.Result,
			&g.Reason, &g.Fault, &g.Plies, &g.PTN, &g.Started, &g.Finished); err != nil {
			return nil, err
		}
		if g.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// RunID is the current run, uuid.Nil before StartRun.
func (s *Store) RunID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}
