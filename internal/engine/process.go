package engine

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/internal/domain"
)

const maxLineSize = 1 << 20

// process owns an engine subprocess and its pipes. Lines from stdout arrive on
// lines, which is closed at end of output; exited is closed once the process
// has been reaped.
type process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	exited  chan struct{}
	closing chan struct{}
	once    sync.Once
	waitErr error
	mu      sync.Mutex
	logger  *zap.Logger
}

func spawn(spec domain.EngineSpec, logger *zap.Logger) (*process, error) {
	var cmd = exec.Command(spec.Path, spec.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrSpawn, spec.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrSpawn, spec.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrSpawn, spec.Name, err)
	}
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrSpawn, spec.Name, err)
	}

	var p = &process{
		cmd:     cmd,
		stdin:   stdin,
		lines:   make(chan string, 64),
		exited:  make(chan struct{}),
		closing: make(chan struct{}),
		logger:  logger,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		defer close(p.lines)
		var scanner = bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case p.lines <- scanner.Text():
			case <-p.closing:
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("stdout read failed", zap.Error(err))
		}
		io.Copy(io.Discard, stdout)
	}()
	go func() {
		defer readers.Done()
		var scanner = bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			logger.Info(scanner.Text(), zap.String("stream", "stderr"))
		}
		io.Copy(io.Discard, stderr)
	}()
	go func() {
		readers.Wait()
		var err = cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.exited)
	}()
	return p, nil
}

func (p *process) write(line string) error {
	_, err := io.WriteString(p.stdin, line+"\n")
	return err
}

func (p *process) exitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

func (p *process) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// terminate asks the engine to quit and kills it if it is still running after
// grace. It always waits for the process to be reaped.
func (p *process) terminate(grace time.Duration) {
	p.once.Do(func() { close(p.closing) })
	if p.alive() {
		p.write("quit")
	}
	p.stdin.Close()
	var timer = time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.exited:
		return
	case <-timer.C:
	}
	if err := p.cmd.Process.Kill(); err != nil {
		p.logger.Warn("kill failed", zap.Error(err))
	}
	// a killed child can leave grandchildren holding the pipes open
	select {
	case <-p.exited:
	case <-time.After(grace):
		p.logger.Warn("engine pipes still open after kill")
	}
}
