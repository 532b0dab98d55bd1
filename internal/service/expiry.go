package service

import (
	"context"
	"log"
	"time"

	"github.com/campus-events/gatepass/internal/monitoring"
)

// ExpiryWorker periodically transitions active passes to expired once their
// event's start time has passed by the grace period. It never touches entry
// state; a consumed entry stays consumed forever.
type ExpiryWorker struct {
	passes   PassStore
	interval time.Duration
	grace    time.Duration
}

// NewExpiryWorker constructs an ExpiryWorker. interval is how often the
// sweep runs, grace is how long after an event's start time its passes stay
// active (late arrivals still get scanned).
func NewExpiryWorker(passes PassStore, interval, grace time.Duration) *ExpiryWorker {
	if passes == nil {
		panic("nil pass store passed to NewExpiryWorker")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if grace < 0 {
		grace = 0
	}
	return &ExpiryWorker{passes: passes, interval: interval, grace: grace}
}

// Run sweeps on a ticker until ctx is cancelled.
func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("pass-expiry: worker started (interval=%s grace=%s)", w.interval, w.grace)

	for {
		select {
		case <-ctx.Done():
			log.Println("pass-expiry: worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.grace)
	n, err := w.passes.ExpireBefore(ctx, cutoff)
	if err != nil {
		log.Printf("pass-expiry: sweep failed: %v", err)
		return
	}
	if n > 0 {
		monitoring.RecordExpired(n)
		log.Printf("pass-expiry: expired %d passes (events started before %s)", n, cutoff.Format(time.RFC3339))
	}
}
