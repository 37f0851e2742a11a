// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package propertymodel

import (
	"context"

	"github.com/tomtom215/rhythmdb/internal/logging"
)

// publishRow publishes one row-level event on the model's own topic.
// Errors are logged, not returned, the same best-effort posture
// internal/querymodel takes publishing its own row events.
func (m *Model) publishRow(ctx context.Context, kind RowEventKind, value string, count int) {
	if m.bus == nil {
		return
	}
	ev := RowEvent{Kind: kind.wireName(), Value: value, Count: count}
	if err := m.bus.PublishJSON(ctx, m.topic, kind.wireName(), ev); err != nil {
		logging.CtxErr(ctx, err).Str("topic", string(m.topic)).Msg("failed to publish property row event")
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
