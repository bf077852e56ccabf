package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/znp-host/znp-go/pkg/znp"
)

// Supervisor errors.
var (
	ErrClosed         = errors.New("supervisor closed")
	ErrAlreadyRunning = errors.New("supervisor already running")
	ErrGaveUp         = errors.New("giving up on link")
)

// State is the link state.
type State uint8

const (
	// StateDisconnected is the state before Run.
	StateDisconnected State = iota

	// StateConnecting covers the first open and session setup.
	StateConnecting

	// StateConnected means a session is up and Client returns it.
	StateConnected

	// StateReconnecting covers backoff waits and later opens.
	StateReconnecting

	// StateClosed means Run has returned.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc opens the transport.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Config configures a Supervisor.
type Config struct {
	Backoff BackoffConfig

	// MaxAttempts bounds consecutive failed attempts. Zero retries forever.
	MaxAttempts int

	// ClientOptions are passed to every znp.NewClient.
	ClientOptions []znp.Option

	// OnSession runs on every new session before it is published. An
	// error closes the session and counts as a failed attempt.
	OnSession func(ctx context.Context, c *znp.Client) error

	// OnStateChange is called from the Run goroutine.
	OnStateChange func(old, new State)

	Logger *slog.Logger
}

// Supervisor reopens the link whenever the session ends.
type Supervisor struct {
	dial    DialFunc
	cfg     Config
	backoff *Backoff
	logger  *slog.Logger

	mu      sync.Mutex
	state   State
	client  *znp.Client
	running bool

	// changed is closed and replaced on every transition.
	changed chan struct{}
}

// NewSupervisor creates a supervisor. Nothing is opened before Run.
func NewSupervisor(dial DialFunc, cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		dial:    dial,
		cfg:     cfg,
		backoff: NewBackoffWithConfig(cfg.Backoff),
		logger:  logger,
		changed: make(chan struct{}),
	}
}

// State returns the current link state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Client returns the live session, or nil.
func (s *Supervisor) Client() *znp.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// WaitConnected blocks until a session is up.
func (s *Supervisor) WaitConnected(ctx context.Context) (*znp.Client, error) {
	for {
		s.mu.Lock()
		c, state, changed := s.client, s.state, s.changed
		s.mu.Unlock()

		switch {
		case c != nil:
			return c, nil
		case state == StateClosed:
			return nil, ErrClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Run keeps a session open until ctx is done or MaxAttempts consecutive
// attempts failed. It returns ctx.Err() or an error matching ErrGaveUp.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()
	defer s.transition(StateClosed, nil)

	s.transition(StateConnecting, nil)
	failures := 0
	for {
		established, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if established {
			s.backoff.Reset()
			failures = 0
		}
		failures++
		if s.cfg.MaxAttempts > 0 && failures >= s.cfg.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, failures, err)
		}

		delay := s.backoff.Next()
		s.transition(StateReconnecting, nil)
		s.logger.Warn("link down, reopening", "error", err, "attempt", failures, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session opens the link and blocks until the session ends. established
// reports whether OnSession succeeded.
func (s *Supervisor) session(ctx context.Context) (established bool, err error) {
	rw, err := s.dial(ctx)
	if err != nil {
		return false, fmt.Errorf("open: %w", err)
	}
	c := znp.NewClient(rw, s.cfg.ClientOptions...)

	if s.cfg.OnSession != nil {
		if err := s.cfg.OnSession(ctx, c); err != nil {
			_ = c.Close()
			return false, fmt.Errorf("session setup: %w", err)
		}
	}

	s.transition(StateConnected, c)
	s.logger.Info("link up", "session", c.SessionID())

	select {
	case <-c.Done():
		s.transition(StateReconnecting, nil)
		return true, c.Err()
	case <-ctx.Done():
		_ = c.Close()
		return true, ctx.Err()
	}
}

func (s *Supervisor) transition(state State, c *znp.Client) {
	s.mu.Lock()
	old := s.state
	s.client = c
	if old == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(old, state)
	}
}
