package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/redis"
	"github.com/creature-forge/internal/store"
)

// SyncWorker periodically rebuilds the Redis leaderboard mirror from the
// authoritative store, so a Redis restart or missed mirror write heals
// within one interval.
type SyncWorker struct {
	store   *store.Store
	mirror  *redis.Mirror
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a mirror reconciliation worker
func NewSyncWorker(s *store.Store, m *redis.Mirror, cfg *config.SyncConfig, logger *slog.Logger) *SyncWorker {
	return &SyncWorker{
		store:  s,
		mirror: m,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background reconciliation loop
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("leaderboard sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background reconciliation loop
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("leaderboard sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.RebuildMirror(ctx); err != nil {
				w.logger.Error("leaderboard mirror rebuild failed", "error", err)
			}
		}
	}
}

// RebuildMirror replaces the mirror's contents from the store. Also called
// once at startup for recovery.
func (w *SyncWorker) RebuildMirror(ctx context.Context) error {
	start := time.Now()

	entries, err := w.store.AllSessionScores(ctx)
	if err != nil {
		return err
	}

	if err := w.mirror.Rebuild(ctx, entries); err != nil {
		return err
	}

	w.logger.Debug("leaderboard mirror rebuilt",
		"entries", len(entries),
		"duration", time.Since(start),
	)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
