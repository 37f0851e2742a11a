// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package querymodel

import (
	"context"

	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// publishRow publishes one row-level event on the model's own topic. Errors
// are logged, not returned: a model whose bus is momentarily backed up
// should not fail the mutation that triggered the notification, the same
// best-effort posture the commit engine takes publishing to query models.
func (m *Model) publishRow(ctx context.Context, kind RowEventKind, e *rhythmdb.Entry, pos, from, to int) {
	if m.bus == nil {
		return
	}
	ev := RowEvent{Kind: kind.wireName(), Pos: pos, From: from, To: to}
	if e != nil {
		ev.EntryID = e.ID()
	}
	if err := m.bus.PublishJSON(ctx, m.topic, kind.wireName(), ev); err != nil {
		logging.CtxErr(ctx, err).Str("topic", string(m.topic)).Msg("failed to publish row event")
	}
}

func (m *Model) publishMoved(ctx context.Context, e *rhythmdb.Entry, from, to int) {
	if m.bus == nil {
		return
	}
	ev := RowEvent{Kind: RowMoved.wireName(), EntryID: e.ID(), From: from, To: to}
	if err := m.bus.PublishJSON(ctx, m.topic, RowMoved.wireName(), ev); err != nil {
		logging.CtxErr(ctx, err).Str("topic", string(m.topic)).Msg("failed to publish row-moved")
	}
}

func (m *Model) publishPropChangedText(ctx context.Context, e *rhythmdb.Entry, property, old, new string) {
	if m.bus == nil {
		return
	}
	ev := RowEvent{
		Kind:     RowPropChanged.wireName(),
		EntryID:  e.ID(),
		Property: property,
		OldValue: old,
		NewValue: new,
	}
	if err := m.bus.PublishJSON(ctx, m.topic, RowPropChanged.wireName(), ev); err != nil {
		logging.CtxErr(ctx, err).Str("topic", string(m.topic)).Msg("failed to publish entry-prop-changed")
	}
}

func (m *Model) publishComplete(ctx context.Context) {
	if m.bus == nil {
		return
	}
	if err := m.bus.PublishJSON(ctx, m.topic, Complete.wireName(), RowEvent{Kind: Complete.wireName()}); err != nil {
		logging.CtxErr(ctx, err).Str("topic", string(m.topic)).Msg("failed to publish complete")
	}
}

func (m *Model) publishPostEntryDelete(ctx context.Context, e *rhythmdb.Entry) {
	if m.bus == nil {
		return
	}
	ev := RowEvent{Kind: PostEntryDelete.wireName(), EntryID: e.ID()}
	if err := m.bus.PublishJSON(ctx, m.topic, PostEntryDelete.wireName(), ev); err != nil {
		logging.CtxErr(ctx, err).Str("topic", string(m.topic)).Msg("failed to publish post-entry-delete")
	}
}
