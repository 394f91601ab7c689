package arena

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/engine"
)

// pool hands out engine sessions to games. Idle sessions are reused; a crashed
// session is restarted before it is handed out again. An engine that cannot be
// spawned at all is marked dead and every later acquire fails immediately.
type pool struct {
	specs          []domain.EngineSpec
	startupTimeout time.Duration
	stopGrace      time.Duration
	quitGrace      time.Duration
	logger         *zap.Logger

	mu   sync.Mutex
	idle map[domain.EngineID][]*engine.Session
	dead map[domain.EngineID]error
	all  []*engine.Session
}

func newPool(specs []domain.EngineSpec, opts Options, logger *zap.Logger) *pool {
	return &pool{
		specs:          specs,
		startupTimeout: opts.StartupTimeout,
		stopGrace:      opts.StopGrace,
		quitGrace:      opts.QuitGrace,
		logger:         logger,
		idle:           make(map[domain.EngineID][]*engine.Session),
		dead:           make(map[domain.EngineID]error),
	}
}

func (p *pool) acquire(ctx context.Context, id domain.EngineID) (*engine.Session, error) {
	p.mu.Lock()
	if err := p.dead[id]; err != nil {
		p.mu.Unlock()
		return nil, err
	}
	var s *engine.Session
	if n := len(p.idle[id]); n != 0 {
		s = p.idle[id][n-1]
		p.idle[id] = p.idle[id][:n-1]
	}
	p.mu.Unlock()

	var err error
	if s == nil {
		s, err = engine.Start(ctx, engine.Config{
			ID:             id,
			Spec:           p.specs[id],
			StartupTimeout: p.startupTimeout,
			StopGrace:      p.stopGrace,
			QuitGrace:      p.quitGrace,
		}, p.logger)
		if err == nil {
			p.mu.Lock()
			p.all = append(p.all, s)
			p.mu.Unlock()
		}
	} else if state := s.State(); state != engine.Ready {
		err = s.Restart(ctx)
	}
	if err != nil {
		if engine.Fatal(err) {
			p.mu.Lock()
			p.dead[id] = err
			p.mu.Unlock()
			p.logger.Error("engine disabled",
				zap.String("engine", p.specs[id].Name),
				zap.Error(err))
		}
		return nil, err
	}
	return s, nil
}

// release returns a session after a game. Sessions in any other state than
// Ready or Crashed are closed.
func (p *pool) release(s *engine.Session) {
	switch s.State() {
	case engine.Ready, engine.Crashed:
		p.mu.Lock()
		p.idle[s.ID()] = append(p.idle[s.ID()], s)
		p.mu.Unlock()
	default:
		s.Close()
	}
}

// close terminates every session ever started, in parallel.
func (p *pool) close() {
	p.mu.Lock()
	var sessions = p.all
	p.all = nil
	p.idle = make(map[domain.EngineID][]*engine.Session)
	p.mu.Unlock()

	var g errgroup.Group
	for _, s := range sessions {
		var s = s
		g.Go(func() error {
			s.Close()
			return nil
		})
	}
	g.Wait()
	p.logger.Debug("engines closed", zap.Int("count", len(sessions)))
}

