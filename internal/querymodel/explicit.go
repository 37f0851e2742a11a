// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package querymodel

import (
	"context"
	"sort"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// AddEntry inserts e at position pos in an explicit model's order. pos is
// clamped to [0, len]; pass a value >= the current length to append. It is
// an error to call AddEntry on a model that is not ModeExplicit.
func (m *Model) AddEntry(ctx context.Context, e *rhythmdb.Entry, pos int) error {
	if m.mode != ModeExplicit {
		return rhythmdberrors.Invalid("AddEntry is only valid on an explicit query model")
	}
	m.mu.Lock()
	if _, already := m.tracked[e.ID()]; already {
		m.mu.Unlock()
		return rhythmdberrors.Conflict("entry %d is already present in this model", e.ID())
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(m.matched) {
		pos = len(m.matched)
	}
	prevVisible := m.snapshotVisible()
	m.matched = append(m.matched, nil)
	copy(m.matched[pos+1:], m.matched[pos:])
	m.matched[pos] = e
	m.track(e)
	m.recomputeVisibility(ctx, prevVisible)
	m.mu.Unlock()
	return nil
}

// RemoveEntry removes e from an explicit model, if present.
func (m *Model) RemoveEntry(ctx context.Context, e *rhythmdb.Entry) {
	m.mu.Lock()
	if _, ok := m.tracked[e.ID()]; !ok {
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

// MoveEntry repositions e to newPos in an explicit model's order, emitting
// row-moved if its visible position actually changes.
func (m *Model) MoveEntry(ctx context.Context, e *rhythmdb.Entry, newPos int) error {
	if m.mode != ModeExplicit {
		return rhythmdberrors.Invalid("MoveEntry is only valid on an explicit query model")
	}
	m.mu.Lock()
	oldIdx := m.findIndex(e)
	if oldIdx < 0 {
		m.mu.Unlock()
		return rhythmdberrors.NotFound("entry %d is not present in this model", e.ID())
	}
	prevVisible := m.snapshotVisible()
	wasVisible := oldIdx < m.visibleCount
	m.removeAt(oldIdx)
	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(m.matched) {
		newPos = len(m.matched)
	}
	m.matched = append(m.matched, nil)
	copy(m.matched[newPos+1:], m.matched[newPos:])
	m.matched[newPos] = e
	m.recomputeVisibility(ctx, prevVisible)
	nowVisible := newPos < m.visibleCount
	m.mu.Unlock()

	if wasVisible && nowVisible && oldIdx != newPos {
		m.publishMoved(ctx, e, oldIdx, newPos)
	}
	return nil
}

// Reorder re-sorts an explicit model's entire entry set under less,
// re-deriving visibility and emitting row-moved for every entry whose
// visible position changes.
func (m *Model) Reorder(ctx context.Context, less func(a, b *rhythmdb.Entry) bool) error {
	if m.mode != ModeExplicit {
		return rhythmdberrors.Invalid("Reorder is only valid on an explicit query model")
	}
	m.mu.Lock()
	before := append([]*rhythmdb.Entry(nil), m.matched...)
	oldVisible := m.visibleCount
	prevVisible := m.snapshotVisible()

	sort.SliceStable(m.matched, func(i, j int) bool { return less(m.matched[i], m.matched[j]) })
	m.recomputeVisibility(ctx, prevVisible)
	newVisible := m.visibleCount
	after := m.matched
	m.mu.Unlock()

	oldPos := make(map[uint32]int, len(before))
	for i, e := range before {
		oldPos[e.ID()] = i
	}
	for newIdx, e := range after {
		oldIdx, ok := oldPos[e.ID()]
		if !ok || oldIdx == newIdx {
			continue
		}
		wasVisible := ok && oldIdx < oldVisible
		nowVisible := newIdx < newVisible
		if wasVisible && nowVisible {
			m.publishMoved(ctx, e, oldIdx, newIdx)
		}
	}
	return nil
}
