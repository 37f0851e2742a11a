// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package supervisor

import "context"

// Starter is implemented by internal/querymodel.Model and internal/
// propertymodel.Model: Start launches a background consumer goroutine and
// returns immediately; Stop cancels it.
type Starter interface {
	Start(ctx context.Context) error
	Stop()
}

// ModelService adapts a Starter into a suture.Service, so a live query or
// property model's notification-consumer goroutine is supervised the same
// way as the writer and persistence services, rather than left to manage
// its own restart behavior.
type ModelService struct {
	name    string
	starter Starter
}

// NewModelService wraps starter under name for registration via
// AddNotifyService.
func NewModelService(name string, starter Starter) *ModelService {
	return &ModelService{name: name, starter: starter}
}

// Serve implements suture.Service: it starts the wrapped consumer, blocks
// until ctx is cancelled, then stops it.
func (s *ModelService) Serve(ctx context.Context) error {
	if err := s.starter.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.starter.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer, used by suture in log messages.
func (s *ModelService) String() string {
	return s.name
}
