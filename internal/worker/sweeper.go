package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// sweepLockName guards the purge so one instance runs it per cycle.
const sweepLockName = "sweep:sessions"

// Sweeper periodically removes expired sessions from a store that does
// not expire them natively.
//
// For multi-instance deployments, configure a DistributedLock so only one
// instance purges per cycle.
type Sweeper struct {
	purger driven.SessionPurger
	lock   driven.DistributedLock
	logger *slog.Logger

	interval time.Duration
	lockTTL  time.Duration

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SweeperConfig holds configuration for the sweeper.
type SweeperConfig struct {
	Purger   driven.SessionPurger
	Lock     driven.DistributedLock // Optional
	Logger   *slog.Logger
	Interval time.Duration // default: 1h
	LockTTL  time.Duration // default: 5m
}

// NewSweeper creates a new session sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &Sweeper{
		purger:   cfg.Purger,
		lock:     cfg.Lock,
		logger:   logger,
		interval: interval,
		lockTTL:  lockTTL,
	}
}

// Start begins the sweep loop in the background. It runs once immediately
// and then every interval until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("session sweeper starting", "interval", s.interval)
	go s.run(ctx)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("session sweeper stopped")
}

// Wait blocks until the loop exits.
func (s *Sweeper) Wait() {
	s.mu.Lock()
	done := s.doneCh
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one purge. It returns the number of sessions removed, or 0
// when another instance holds the lock or the purge failed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, sweepLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire sweep lock", "error", err)
			return 0
		}
		if !acquired {
			s.logger.Debug("sweep lock held by another instance, skipping cycle")
			return 0
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), sweepLockName); err != nil {
				s.logger.Warn("failed to release sweep lock", "error", err)
			}
		}()
	}

	start := time.Now()
	n, err := s.purger.Purge(ctx)
	if err != nil {
		s.logger.Error("session purge failed", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", "count", n, "duration", time.Since(start))
	}
	return n
}
