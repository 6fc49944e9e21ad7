package application

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// RetentionSweeper applies retention policies on a fixed interval.
type RetentionSweeper struct {
	governance *GovernanceService
	interval   time.Duration
	logger     *slog.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
	started    atomic.Bool
	done       chan struct{}
}

// NewRetentionSweeper constructs a sweeper. A non-positive interval disables it.
func NewRetentionSweeper(governance *GovernanceService, interval time.Duration, logger *slog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		governance: governance,
		interval:   interval,
		logger:     defaultLogger(logger).With("component", "RetentionSweeper"),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs a sweep immediately and then on every tick until Stop is called
// or ctx is cancelled.
func (s *RetentionSweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	if s.interval <= 0 || s.governance == nil {
		s.logger.Info("retention sweeper disabled")
		close(s.done)
		return
	}
	s.logger.Info("starting retention sweeper", "interval", s.interval.String())
	go s.run(ctx)
}

// Stop halts the sweeper and waits for an in-flight sweep to finish.
func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *RetentionSweeper) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("retention sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("retention sweeper cancelled")
			return
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	if _, err := s.governance.ApplyRetention(ctx); err != nil {
		s.logger.Error("retention sweep failed", "error", err)
	}
}
