// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package persistence implements the entry store's single on-disk artifact:
// a versioned XML document loaded by a SAX-style streaming parser and saved
// via a temp-file/fsync/atomic-rename sequence, the same durable-write
// discipline the teacher's write-ahead log uses for segment rotation,
// generalized here from log-segment files to a single full-database
// snapshot.
package persistence

import (
	"context"

	"github.com/tomtom215/rhythmdb/internal/commit"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// CurrentVersion is the version attribute written by Save and the version
// every migration hook chains load-time documents up to.
const CurrentVersion = 2

// rootElement and entryElement name the XML document's structural tags.
const (
	rootElement  = "rhythmdb"
	entryElement = "entry"
	typeAttr     = "type"
	versionAttr  = "version"
)

// CommitBatchEntries bounds how many staged entries Load accumulates before
// issuing an intermediate commit, keeping memory bounded on large documents.
const CommitBatchEntries = 1000

// MigrationFunc rewrites one loaded entry still carrying an old document
// version's shape before it is staged, run atomically within the same load
// that discovered the version skew.
type MigrationFunc func(e *rhythmdb.Entry, store *rhythmdb.Store)

// Manager loads and saves the entry store's XML document. It implements
// internal/actionqueue's Persister interface.
type Manager struct {
	store  *rhythmdb.Store
	types  *entrytype.Registry
	engine *commit.Engine

	migrations map[int]MigrationFunc
}

// New constructs a Manager bound to store, types, and the commit engine
// Load uses to flush staged batches, with the built-in migration set
// registered.
func New(store *rhythmdb.Store, types *entrytype.Registry, engine *commit.Engine) *Manager {
	m := &Manager{
		store:      store,
		types:      types,
		engine:     engine,
		migrations: make(map[int]MigrationFunc),
	}
	registerBuiltinMigrations(m)
	return m
}

// RegisterMigration adds a migration hook run on every entry loaded from a
// document whose version attribute is at or below fromVersion, provided
// fromVersion is below CurrentVersion. Intended for tests and for extending the builtin set; production
// code registers the shipped podcast-location migration via New.
func (m *Manager) RegisterMigration(fromVersion int, fn MigrationFunc) {
	m.migrations[fromVersion] = fn
}

var _ interface {
	Load(ctx context.Context, path string) error
	Save(ctx context.Context, path string) error
} = (*Manager)(nil)
