// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

/*
Package config loads the entry database's runtime configuration.

Three layers are merged via koanf, lowest priority first: built-in defaults,
an optional YAML file (found via RHYTHMDB_CONFIG or the default search
paths), and RHYTHMDB_-prefixed environment variables. Call Load to get a
validated Config; there is no global singleton.
*/
package config
