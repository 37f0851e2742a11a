// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package supervisor

import (
	"context"
	"time"
)

// TickerService runs fn once per interval under the maintenance layer, for
// periodic upkeep that has no notification or storage-commit trigger of its
// own — exporting live entry counts, for instance. fn must return quickly;
// TickerService does not run overlapping calls.
type TickerService struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
}

// NewTickerService wraps fn so it runs every interval under name, for
// registration via AddMaintenanceService. interval must be positive.
func NewTickerService(name string, interval time.Duration, fn func(ctx context.Context)) *TickerService {
	return &TickerService{name: name, interval: interval, fn: fn}
}

// Serve implements suture.Service.
func (s *TickerService) Serve(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.fn(ctx)
		}
	}
}

// String implements fmt.Stringer, used by suture in log messages.
func (s *TickerService) String() string {
	return s.name
}
