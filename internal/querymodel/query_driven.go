// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package querymodel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// DoQuery performs (or repeats) the model's initial drain: every live entry
// in the backing source (the entry store, or the base model's current rows
// when chained) is filtered and inserted in sort order, then a single
// Complete event fires. Explicit models have nothing to drain and DoQuery
// is a no-op for them.
func (m *Model) DoQuery(ctx context.Context) {
	if m.mode == ModeExplicit {
		m.publishComplete(ctx)
		return
	}

	m.mu.Lock()
	prevVisible := m.snapshotVisible()
	oldTracked := m.tracked
	m.tracked = make(map[uint32]*rhythmdb.Entry, len(oldTracked))
	m.matched = nil
	m.visibleCount = 0

	var source []*rhythmdb.Entry
	switch m.mode {
	case ModeChained:
		source = m.base.Rows()
	default:
		if m.store != nil {
			m.store.ForEach(func(e *rhythmdb.Entry) {
				source = append(source, e)
			})
		}
	}

	for _, e := range source {
		if !m.matchesLocked(e) {
			continue
		}
		id := e.ID()
		if _, already := oldTracked[id]; already {
			// Carry the existing reference forward rather than releasing
			// and immediately re-acquiring it.
			delete(oldTracked, id)
		} else if m.store != nil {
			m.store.Ref(e)
		}
		m.tracked[id] = e
		m.insertSorted(e)
	}

	// Anything left in oldTracked no longer matches the (re-evaluated)
	// query or has been deleted since the last drain; release it.
	for _, e := range oldTracked {
		if m.store != nil {
			m.store.Unref(e)
		}
	}

	m.recomputeVisibility(ctx, prevVisible)
	m.mu.Unlock()

	m.publishComplete(ctx)
}

// Start begins consuming the model's upstream notification source (the
// store's commit bus, or the base model's row topic when chained) in a
// dedicated goroutine, until ctx is cancelled. It does not perform the
// initial drain; call DoQuery first for query-driven and chained models.
func (m *Model) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	var (
		msgs <-chan *message.Message
		err  error
	)
	switch m.mode {
	case ModeChained:
		msgs, err = m.bus.Subscribe(runCtx, m.base.Topic())
	case ModeQueryDriven:
		msgs, err = m.bus.Subscribe(runCtx, notify.EntryTopic)
	default:
		return nil // explicit models have no upstream to consume
	}
	if err != nil {
		cancel()
		return err
	}

	go m.consume(runCtx, msgs)
	return nil
}

// Stop cancels the model's background consumer goroutine, if running.
func (m *Model) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *Model) consume(ctx context.Context, msgs <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			m.handleMessage(ctx, msg)
			msg.Ack()
		}
	}
}

func (m *Model) handleMessage(ctx context.Context, msg *message.Message) {
	log := logging.WithComponent("querymodel")

	if m.mode == ModeChained {
		ev, err := unmarshalRowEvent(msg.Payload)
		if err != nil {
			log.Err(err).Msg("failed to decode row event")
			return
		}
		switch ev.Kind {
		case RowInserted.wireName(), RowMoved.wireName():
			m.handleUpsert(ctx, ev.EntryID, nil)
		case RowDeleted.wireName():
			m.handleDeleted(ctx, ev.EntryID)
		case RowPropChanged.wireName():
			m.handleUpsert(ctx, ev.EntryID, []propChangeText{{
				Property: ev.Property, Old: ev.OldValue, New: ev.NewValue,
			}})
		}
		return
	}

	if msg.Metadata.Get("kind") == "tick" {
		return
	}
	var rec notify.ChangeRecord
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		log.Err(err).Msg("failed to decode change record")
		return
	}
	switch rec.Kind {
	case notify.ChangeAdded:
		m.handleAdded(ctx, rec.EntryID)
	case notify.ChangeUpdated:
		changes := make([]propChangeText, 0, len(rec.Changes))
		for _, c := range rec.Changes {
			changes = append(changes, propChangeText{Property: c.Property, Old: c.OldValue, New: c.NewValue})
		}
		m.handleUpsert(ctx, rec.EntryID, changes)
	case notify.ChangeDeleted:
		m.handleDeleted(ctx, rec.EntryID)
	}
}

func (m *Model) handleAdded(ctx context.Context, id uint32) {
	e, ok := m.resolve(id)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, already := m.tracked[id]; already {
		return
	}
	if !m.matchesLocked(e) {
		return
	}
	prevVisible := m.snapshotVisible()
	m.track(e)
	m.insertSorted(e)
	m.recomputeVisibility(ctx, prevVisible)
}

func (m *Model) handleDeleted(ctx context.Context, id uint32) {
	m.mu.Lock()
	e, wasTracked := m.tracked[id]
	if !wasTracked {
		m.mu.Unlock()
		return
	}

	idx := m.findIndex(e)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	prevVisible := m.snapshotVisible()
	wasVisible := idx < m.visibleCount
	m.removeAt(idx)
	if wasVisible {
		m.visibleCount--
	}
	m.untrack(e)
	m.recomputeVisibility(ctx, prevVisible)
	m.mu.Unlock()

	if wasVisible {
		m.publishRow(ctx, RowDeleted, e, idx, 0, 0)
	}
	m.publishPostEntryDelete(ctx, e)
}

// handleUpsert reacts to an upstream notification that entry id exists and
// may have changed (a property write, a reposition, or first appearance).
// changes carries the property deltas to re-publish downstream, if any;
// it is nil for a bare reposition/insertion relayed from a chained base.
func (m *Model) handleUpsert(ctx context.Context, id uint32, changes []propChangeText) {
	e, ok := m.resolve(id)
	if !ok {
		return
	}

	m.mu.Lock()
	_, wasTracked := m.tracked[id]
	nowMatches := m.matchesLocked(e)

	switch {
	case !wasTracked && nowMatches:
		prevVisible := m.snapshotVisible()
		m.track(e)
		m.insertSorted(e)
		m.recomputeVisibility(ctx, prevVisible)
		m.mu.Unlock()

	case wasTracked && !nowMatches:
		idx := m.findIndex(e)
		if idx < 0 {
			m.mu.Unlock()
			return
		}
		prevVisible := m.snapshotVisible()
		wasVisible := idx < m.visibleCount
		m.removeAt(idx)
		if wasVisible {
			m.visibleCount--
		}
		m.untrack(e)
		m.recomputeVisibility(ctx, prevVisible)
		m.mu.Unlock()
		if wasVisible {
			m.publishRow(ctx, RowDeleted, e, idx, 0, 0)
		}
		m.publishPostEntryDelete(ctx, e)

	case wasTracked && nowMatches:
		prevVisible := m.snapshotVisible()
		oldIdx := m.findIndex(e)
		wasVisible := oldIdx >= 0 && oldIdx < m.visibleCount
		if oldIdx >= 0 {
			m.removeAt(oldIdx)
		}
		newIdx := m.insertSorted(e)
		m.recomputeVisibility(ctx, prevVisible)
		nowVisible := newIdx < m.visibleCount
		m.mu.Unlock()

		if wasVisible && nowVisible && oldIdx != newIdx {
			m.publishMoved(ctx, e, oldIdx, newIdx)
		}
		for _, c := range changes {
			m.publishPropChangedText(ctx, e, c.Property, c.Old, c.New)
		}

	default:
		m.mu.Unlock()
	}
}

// propChangeText is one (property, old, new) tuple already rendered as
// text, matching the wire shape notify.PropChange and RowEvent both use.
type propChangeText struct {
	Property string
	Old      string
	New      string
}
