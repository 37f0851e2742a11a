// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeStarter struct {
	started atomic.Bool
	stopped atomic.Bool
	startErr error
}

func (f *fakeStarter) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started.Store(true)
	return nil
}

func (f *fakeStarter) Stop() {
	f.stopped.Store(true)
}

func TestModelServiceImplementsSutureService(t *testing.T) {
	var _ suture.Service = (*ModelService)(nil)
}

func TestModelServiceStartsAndStopsOnCancel(t *testing.T) {
	starter := &fakeStarter{}
	svc := NewModelService("test-model", starter)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for !starter.started.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !starter.started.Load() {
		t.Fatal("starter was never started")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if !starter.stopped.Load() {
		t.Error("Stop() was not called")
	}
}

func TestModelServicePropagatesStartError(t *testing.T) {
	starter := &fakeStarter{startErr: errors.New("subscribe failed")}
	svc := NewModelService("broken-model", starter)

	err := svc.Serve(context.Background())
	if err == nil || err.Error() != "subscribe failed" {
		t.Errorf("Serve() error = %v, want %q", err, "subscribe failed")
	}
}

func TestModelServiceString(t *testing.T) {
	svc := NewModelService("my-model", &fakeStarter{})
	if svc.String() != "my-model" {
		t.Errorf("String() = %q, want %q", svc.String(), "my-model")
	}
}
