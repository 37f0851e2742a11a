// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package persistence

import (
	"strings"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// legacyMountpointSeparator is the delimiter version-1 documents used to
// conflate a podcast post's feed mountpoint with its own location, before
// version 2 split PropMountpoint into its own leaf element:
// "<mountpoint-uri>::<entry-relative-uri>". Version 1 never persisted this
// split explicitly, so registerBuiltinMigrations reconstructs it from the
// combined location on load; entries that never carried the separator
// (everything except podcast posts) pass through unchanged.
const legacyMountpointSeparator = "::"

// registerBuiltinMigrations installs the migration chain every Manager ships
// with. Today there is exactly one version transition, 1 to 2; future
// version bumps append another entry here rather than replacing this one,
// so a document several versions behind still loads by chaining hooks.
func registerBuiltinMigrations(m *Manager) {
	m.RegisterMigration(1, migrateV1ToV2MountpointSplit)
}

// migrateV1ToV2MountpointSplit splits a version-1 podcast post's combined
// location back into a separate mountpoint and location, the shape version 2
// persists as two leaf elements instead of one. Non-podcast entries, and
// podcast posts whose location never carried the legacy separator (already
// mountpoint-less, e.g. locally downloaded episodes), are left untouched.
func migrateV1ToV2MountpointSplit(e *rhythmdb.Entry, store *rhythmdb.Store) {
	if e.Type == nil || e.Type.Name != "podcast-post" {
		return
	}

	loc := e.Location()
	if loc == nil {
		return
	}
	raw := loc.String()

	mount, rest, found := strings.Cut(raw, legacyMountpointSeparator)
	if !found {
		return
	}

	store.Set(e, rhythmdb.PropMountpoint, rhythmdb.Value{Str: store.InternAtom(mount)})
	store.Relocate(e, rest)
}
