// Package refresher periodically re-renders every roster so messages
// drift back in sync with role membership and interrupted reorders heal.
package refresher

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Syncer re-renders every roster the bot knows about
type Syncer interface {
	RefreshAll(ctx context.Context) error
}

// Refresher runs a Syncer on a fixed interval
type Refresher struct {
	syncer   Syncer
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Refresher
func New(syncer Syncer, interval time.Duration) *Refresher {
	return &Refresher{
		syncer:   syncer,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the refresh loop. It runs until ctx is cancelled or Stop
// is called.
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	defer r.wg.Done()

	slog.Info("Starting roster refresher", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Roster refresher stopped (context cancelled)")
			return
		case <-r.stopChan:
			slog.Info("Roster refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for it, including a refresh in
// progress
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

func (r *Refresher) refresh(ctx context.Context) {
	started := time.Now()
	if err := r.syncer.RefreshAll(ctx); err != nil {
		slog.Error("Roster refresh finished with errors", "error", err)
		return
	}
	slog.Debug("Roster refresh complete", "took", time.Since(started))
}
