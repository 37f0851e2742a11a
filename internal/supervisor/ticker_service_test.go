// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestTickerServiceImplementsSutureService(t *testing.T) {
	var _ suture.Service = (*TickerService)(nil)
}

func TestTickerServiceFiresRepeatedly(t *testing.T) {
	var calls atomic.Int32
	svc := NewTickerService("counter", 5*time.Millisecond, func(ctx context.Context) {
		calls.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() < 3 {
		t.Fatalf("calls = %d, want at least 3 within 1s", calls.Load())
	}

	cancel()
	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Serve() error = nil, want context.Canceled")
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestTickerServiceString(t *testing.T) {
	svc := NewTickerService("maintenance-ticker", time.Second, func(ctx context.Context) {})
	if svc.String() != "maintenance-ticker" {
		t.Errorf("String() = %q, want %q", svc.String(), "maintenance-ticker")
	}
}
