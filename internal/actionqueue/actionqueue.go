// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package actionqueue implements the bounded single-writer action channel:
// every mutation to the entry store funnels through here so exactly one
// goroutine ever calls the commit engine, the loader, or the saver.
package actionqueue

import (
	"context"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// ActionKind discriminates the closed set of actions the writer accepts.
type ActionKind int

const (
	// KindCommit asks the writer to run one commit pass.
	KindCommit ActionKind = iota
	// KindEnumEntriesFull asks the writer to hand every live entry to a sink.
	KindEnumEntriesFull
	// KindQuery asks the writer to run a query model's initial drain.
	KindQuery
	// KindLoadFile asks the writer to load a persisted database file.
	KindLoadFile
	// KindSaveFile asks the writer to save the store to a file.
	KindSaveFile
	// KindShutdown asks the writer to drain pending actions and stop.
	KindShutdown
)

// QuerySink receives entries matched by a KindQuery action as they are
// found, in the order the writer visits them.
type QuerySink interface {
	// Accept is called once per matching entry. Returning false tells the
	// writer the sink has gone away; the writer hands no further entries to
	// this sink for this action.
	Accept(entry *rhythmdb.Entry) (alive bool)
}

// Action is a closed sum type: exactly one of the optional fields is
// meaningful, selected by Kind. Done, if non-nil, is closed once the writer
// has finished processing the action (including a Query/EnumEntriesFull
// action cut short because its sink returned false).
type Action struct {
	Kind ActionKind

	// Query/EnumEntriesFull fields.
	Sink QuerySink

	// LoadFile/SaveFile fields.
	Path string

	// Err receives the action's outcome, if the caller wants to observe it.
	// Buffered with capacity 1 so a Send that does not wait for completion
	// never blocks the writer.
	Err chan error

	// Done is closed by the writer once it has finished handling the action;
	// the writer does not skip actions, even after its context is cancelled.
	Done chan struct{}
}

// Queue is the bounded channel of pending actions. Send enqueues and may
// block only while the queue is full, matching the "suspend only in the
// action-queue enqueue" concurrency contract; nothing else in the entry
// database blocks a caller.
type Queue struct {
	ch chan Action
}

// New constructs a Queue with the given bound. depth should be sized from
// internal/config's ActionQueueDepth field.
func New(depth int) *Queue {
	if depth <= 0 {
		depth = 1024
	}
	return &Queue{ch: make(chan Action, depth)}
}

// Send enqueues action, blocking only if the queue is currently full, or
// until ctx is cancelled.
func (q *Queue) Send(ctx context.Context, action Action) error {
	select {
	case q.ch <- action:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive is used only by the writer goroutine to drain the queue.
func (q *Queue) Receive() <-chan Action {
	return q.ch
}

// Depth returns the number of actions currently queued, for
// internal/metrics to export rhythmdb_action_queue_depth.
func (q *Queue) Depth() int {
	return len(q.ch)
}
