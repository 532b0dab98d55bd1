package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-events/gatepass/internal/service"
)

func TestExpiryWorker_SweepsWithGrace(t *testing.T) {
	events := newFakeEvents()
	passes := newFakePasses(events)
	passes.expireN = 3

	grace := 6 * time.Hour
	worker := service.NewExpiryWorker(passes, 5*time.Millisecond, grace)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	// Wait for at least one sweep.
	deadline := time.After(2 * time.Second)
	for {
		passes.mu.Lock()
		n := len(passes.expired)
		passes.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker never swept")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	passes.mu.Lock()
	cutoff := passes.expired[0]
	passes.mu.Unlock()

	// The cutoff trails now by the grace period, so passes stay active for
	// late arrivals after the event starts.
	want := time.Now().UTC().Add(-grace)
	assert.WithinDuration(t, want, cutoff, 3*time.Second)
}

func TestExpiryWorker_StopsOnCancel(t *testing.T) {
	passes := newFakePasses(nil)
	worker := service.NewExpiryWorker(passes, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	require.Empty(t, passes.expired)
}
