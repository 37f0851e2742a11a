// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package propertymodel

import (
	"context"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// addMember records e as a member displaying value, creating its group
// (and publishing row-inserted) if this is the first entry to hold that
// value. Callers must hold m.mu, and e must not already be a member.
func (m *Model) addMember(ctx context.Context, e *rhythmdb.Entry) {
	value := displayOf(e, m.property)
	m.members[e.ID()] = value

	g, ok := m.groups[value]
	if !ok {
		g = &group{display: value, sortKey: sortKeyOf(e, m.property), rep: e}
		if m.store != nil {
			m.store.Ref(e)
		}
		m.groups[value] = g
		m.rebuildOrder()
		m.publishRow(ctx, RowInserted, value, 1)
	}
	g.count++
}

// removeMember drops id (previously displaying value, per the model's
// cached membership record) from its group, replacing the representative
// or deleting the group entirely if it was the last member. Callers must
// hold m.mu.
func (m *Model) removeMember(ctx context.Context, id uint32) {
	value, ok := m.members[id]
	if !ok {
		return
	}
	delete(m.members, id)

	g, ok := m.groups[value]
	if !ok {
		return
	}
	m.publishRow(ctx, PreRowDeletion, value, g.count)
	g.count--

	if g.count <= 0 {
		delete(m.groups, value)
		if m.store != nil && g.rep != nil {
			m.store.Unref(g.rep)
		}
		m.rebuildOrder()
		m.publishRow(ctx, RowDeleted, value, 0)
		return
	}

	if g.rep != nil && g.rep.ID() == id {
		replacement := m.findOtherMember(value, id)
		old := g.rep
		g.rep = replacement
		if replacement != nil && m.store != nil {
			m.store.Ref(replacement)
		}
		if m.store != nil && old != nil {
			m.store.Unref(old)
		}
	}
}

// findOtherMember returns a live entry other than excludeID currently
// recorded as displaying value, for representative replacement. Callers
// must hold m.mu.
func (m *Model) findOtherMember(value string, excludeID uint32) *rhythmdb.Entry {
	for id, v := range m.members {
		if id == excludeID || v != value {
			continue
		}
		if e, ok := m.base.EntryByID(id); ok {
			return e
		}
	}
	return nil
}

// changeMember reacts to the tracked property changing on an already-member
// entry: it leaves its old-value group (same bookkeeping as removeMember,
// minus dropping the membership record) and joins the new-value group (same
// bookkeeping as addMember, minus re-adding the membership record), then
// records the new display value. Callers must hold m.mu.
func (m *Model) changeMember(ctx context.Context, id uint32, newValue string) {
	oldValue, ok := m.members[id]
	if !ok || oldValue == newValue {
		return
	}

	if g, ok := m.groups[oldValue]; ok {
		m.publishRow(ctx, PreRowDeletion, oldValue, g.count)
		g.count--
		if g.count <= 0 {
			delete(m.groups, oldValue)
			if m.store != nil && g.rep != nil {
				m.store.Unref(g.rep)
			}
			m.rebuildOrder()
			m.publishRow(ctx, RowDeleted, oldValue, 0)
		} else if g.rep != nil && g.rep.ID() == id {
			replacement := m.findOtherMember(oldValue, id)
			old := g.rep
			g.rep = replacement
			if replacement != nil && m.store != nil {
				m.store.Ref(replacement)
			}
			if m.store != nil && old != nil {
				m.store.Unref(old)
			}
		}
	}

	m.members[id] = newValue
	if g, ok := m.groups[newValue]; ok {
		g.count++
		return
	}

	e, ok := m.base.EntryByID(id)
	if !ok {
		return
	}
	g := &group{display: newValue, sortKey: sortKeyOf(e, m.property), count: 1, rep: e}
	if m.store != nil {
		m.store.Ref(e)
	}
	m.groups[newValue] = g
	m.rebuildOrder()
	m.publishRow(ctx, RowInserted, newValue, 1)
}
