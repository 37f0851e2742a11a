// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package querymodel

import (
	"context"
	"sort"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// findIndex locates e's current position in matched by identity. Callers
// must hold m.mu. A linear scan is used rather than a binary search keyed
// on the entry's possibly-stale sort value, since after a property change
// the entry's old position in matched may no longer agree with its new
// value under the comparator.
func (m *Model) findIndex(e *rhythmdb.Entry) int {
	for i, x := range m.matched {
		if x == e {
			return i
		}
	}
	return -1
}

// insertSorted inserts e into matched at its binary-search position under
// m.less, returning the inserted index. Callers must hold m.mu.
func (m *Model) insertSorted(e *rhythmdb.Entry) int {
	i := sort.Search(len(m.matched), func(i int) bool { return !m.less(m.matched[i], e) })
	m.matched = append(m.matched, nil)
	copy(m.matched[i+1:], m.matched[i:])
	m.matched[i] = e
	return i
}

// removeAt deletes the entry at index i from matched. Callers must hold m.mu.
func (m *Model) removeAt(i int) *rhythmdb.Entry {
	e := m.matched[i]
	m.matched = append(m.matched[:i], m.matched[i+1:]...)
	return e
}

// computeCut returns how many leading entries of matched are within the
// model's limit. Callers must hold m.mu.
func (m *Model) computeCut() int {
	switch m.limit.Kind {
	case LimitCount:
		if m.limit.Count < 0 {
			return 0
		}
		if m.limit.Count >= len(m.matched) {
			return len(m.matched)
		}
		return m.limit.Count
	case LimitDuration, LimitSize:
		return m.budget.cut(m.matched, m.limit.Budget)
	default:
		return len(m.matched)
	}
}

// snapshotVisible captures the identity of every currently visible entry,
// for recomputeVisibility to diff against once matched has been mutated.
// Callers must hold m.mu.
func (m *Model) snapshotVisible() map[*rhythmdb.Entry]struct{} {
	prev := make(map[*rhythmdb.Entry]struct{}, m.visibleCount)
	for _, e := range m.matched[:m.visibleCount] {
		prev[e] = struct{}{}
	}
	return prev
}

// recomputeVisibility recomputes the visible/overflow cut after matched has
// already been mutated, emitting row-inserted for every entry that entered
// the visible window and row-deleted for every entry that left it, compared
// by identity against prev (captured via snapshotVisible before the
// mutation). Diffing by identity, rather than assuming the change happened
// at the cut boundary, means a single insert or reposition anywhere in
// matched is attributed to the right entry rather than to whichever entry
// happens to now sit at the old boundary index. Callers must hold m.mu.
func (m *Model) recomputeVisibility(ctx context.Context, prev map[*rhythmdb.Entry]struct{}) {
	newCut := m.computeCut()

	for i := 0; i < newCut; i++ {
		e := m.matched[i]
		if _, was := prev[e]; was {
			delete(prev, e)
			continue
		}
		m.publishRow(ctx, RowInserted, e, i, 0, 0)
	}
	// Anything left in prev was visible before and is not in the new visible
	// window: it either fell into overflow or was removed from matched
	// entirely (the caller publishes that RowDeleted itself, alongside
	// post-entry-delete, so it isn't duplicated here).
	for e := range prev {
		if idx := m.findIndex(e); idx >= 0 {
			m.publishRow(ctx, RowDeleted, e, idx, 0, 0)
		}
	}
	m.visibleCount = newCut
}

// track starts holding a strong reference to e on behalf of this model.
// Callers must hold m.mu.
func (m *Model) track(e *rhythmdb.Entry) {
	m.tracked[e.ID()] = e
	if m.store != nil {
		m.store.Ref(e)
	}
}

// untrack releases this model's reference to e. Callers must hold m.mu.
func (m *Model) untrack(e *rhythmdb.Entry) {
	delete(m.tracked, e.ID())
	if m.store != nil {
		m.store.Unref(e)
	}
}
