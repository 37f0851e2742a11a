// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package commit implements the commit engine: the single place staged
// entry changes and deletions become visible, in a fixed notification
// order (additions, then property changes, then deletions, then one
// aggregate tick) that every subscriber can rely on.
package commit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/metrics"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// Engine applies staged changes collected on rhythmdb.Entry values and
// publishes the resulting notifications. It is not safe for concurrent
// Commit calls: the single dedicated writer thread in internal/actionqueue
// is the only caller, per the entry database's single-writer discipline.
type Engine struct {
	store *rhythmdb.Store
	bus   *notify.Bus
}

// New constructs a commit Engine bound to store and bus.
func New(store *rhythmdb.Store, bus *notify.Bus) *Engine {
	return &Engine{store: store, bus: bus}
}

// Result summarizes one Commit call, for callers (LoadFile's chunked commit
// loop, tests) that want to know what happened without re-deriving it from
// the published notifications.
type Result struct {
	CommitID uuid.UUID
	Added    int
	Changed  int
	Deleted  int
}

// Commit collects every entry with a staged change or deletion, applies
// those changes atomically per entry, and publishes notifications in the
// fixed order: entry-added for newly committed entries, entry-changed for
// entries with property changes, entry-deleted for staged deletions, then a
// single aggregate db-changed tick. Commit is a synchronisation edge: once
// it returns, every notification it produced has already been dispatched.
func (e *Engine) Commit(ctx context.Context) (Result, error) {
	start := time.Now()
	commitID := uuid.New()
	log := logging.Ctx(ctx).With().Str("commit_id", commitID.String()).Logger()

	dirty := e.store.DrainDirty()
	if len(dirty) == 0 {
		return Result{CommitID: commitID}, nil
	}

	type applied struct {
		entry   *rhythmdb.Entry
		wasNew  bool
		changes []rhythmdb.PropertyChange
		deleted bool
	}

	results := make([]applied, 0, len(dirty))
	for _, entry := range dirty {
		wasNew := !entry.Committed()
		changes, deleted := entry.ApplyPending()
		results = append(results, applied{entry: entry, wasNew: wasNew, changes: changes, deleted: deleted})
	}

	var res Result
	res.CommitID = commitID

	for _, a := range results {
		if a.deleted {
			continue
		}
		if a.wasNew {
			res.Added++
			if err := e.publishChange(ctx, commitID, notify.ChangeAdded, a.entry, nil); err != nil {
				log.Err(err).Uint32("entry_id", a.entry.ID()).Msg("failed to publish entry-added")
			}
		}
	}

	for _, a := range results {
		if a.deleted || a.wasNew || len(a.changes) == 0 {
			continue
		}
		res.Changed++
		if err := e.publishChange(ctx, commitID, notify.ChangeUpdated, a.entry, a.changes); err != nil {
			log.Err(err).Uint32("entry_id", a.entry.ID()).Msg("failed to publish entry-changed")
		}
	}

	for _, a := range results {
		if !a.deleted {
			continue
		}
		res.Deleted++
		if err := e.publishChange(ctx, commitID, notify.ChangeDeleted, a.entry, a.changes); err != nil {
			log.Err(err).Uint32("entry_id", a.entry.ID()).Msg("failed to publish entry-deleted")
		}
		e.store.FinalizeDeletion(a.entry)
	}

	if err := e.bus.PublishTick(ctx, notify.EntryTopic, notify.Tick{CommitID: commitID}); err != nil {
		log.Err(err).Msg("failed to publish db-changed tick")
	}

	elapsed := time.Since(start)
	metrics.RecordCommit(elapsed, len(dirty))
	log.Debug().
		Int("added", res.Added).
		Int("changed", res.Changed).
		Int("deleted", res.Deleted).
		Dur("elapsed", elapsed).
		Msg("commit applied")

	return res, nil
}

func (e *Engine) publishChange(ctx context.Context, commitID uuid.UUID, kind notify.ChangeKind, entry *rhythmdb.Entry, changes []rhythmdb.PropertyChange) error {
	rec := notify.ChangeRecord{
		CommitID: commitID,
		Kind:     kind,
		EntryID:  entry.ID(),
	}
	for _, c := range changes {
		rec.Changes = append(rec.Changes, notify.PropChange{
			Property: c.Property.Name(),
			OldValue: stringifyValue(c.Property, c.Old),
			NewValue: stringifyValue(c.Property, c.New),
		})
	}
	return e.bus.PublishChange(ctx, notify.EntryTopic, rec)
}

// stringifyValue renders a rhythmdb.Value as text for the wire-level
// ChangeRecord payload, the same leaf-as-text convention internal/
// persistence uses for saved entries.
func stringifyValue(prop rhythmdb.Property, v rhythmdb.Value) string {
	switch prop.ValueType() {
	case rhythmdb.TypeString:
		if v.Str == nil {
			return ""
		}
		return v.Str.String()
	case rhythmdb.TypeULong:
		return fmt.Sprintf("%d", v.ULong)
	case rhythmdb.TypeDouble:
		return fmt.Sprintf("%g", v.Double)
	case rhythmdb.TypeBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case rhythmdb.TypeTimestamp:
		return fmt.Sprintf("%d", v.Timestamp)
	case rhythmdb.TypeJulianDay:
		return fmt.Sprintf("%d", v.JulianDay)
	case rhythmdb.TypeInt64:
		return fmt.Sprintf("%d", v.Int64)
	default:
		return ""
	}
}
