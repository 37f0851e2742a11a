// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

/*
Package metrics provides Prometheus metrics collection for the entry
database's writer, query models, and notification pipeline.

All metrics are registered via promauto against the default registry at
package init, following the same pattern the rest of the codebase's
ecosystem uses for instrumentation. internal/commit, internal/actionqueue,
internal/notify, and internal/persistence record them inline;
rhythmdb.Store.ReportLiveCounts sets rhythmdb_entries_live when called
(cmd/rhythmdb-bench runs it from a supervisor.TickerService). The atom-pool,
query-model and property-model metrics, rhythmdb_action_errors_total and
rhythmdb_notify_queue_depth are registered but not recorded by any package
in this module.

# Available Metrics

Commit engine:
  - rhythmdb_commit_duration_seconds: time to apply one commit (histogram)
  - rhythmdb_commit_batch_size: actions applied per commit (histogram)
  - rhythmdb_commits_total: total commits applied (counter)
  - rhythmdb_action_errors_total: actions that failed to apply (counter)
    Labels: entry_type, error_kind
  - rhythmdb_action_queue_depth: actions pending in the queue (gauge)

Atom pool:
  - rhythmdb_atom_pool_size: distinct interned atoms (gauge)
  - rhythmdb_atom_interns_total: Intern calls by outcome (counter)
    Labels: outcome (hit, miss)

Entry store:
  - rhythmdb_entries_live: live entries by type (gauge)
    Labels: entry_type

Query/property models:
  - rhythmdb_query_model_population: entries currently held (gauge)
    Labels: model
  - rhythmdb_query_model_limit_overflow_total: entries rejected by a
    Duration/Size limit (counter)
    Labels: model
  - rhythmdb_property_model_groups: distinct groups held (gauge)
    Labels: model

Notification bus:
  - rhythmdb_notify_queue_depth: backlog depth by topic (gauge)
    Labels: topic
  - rhythmdb_notify_dispatch_duration_seconds: dispatch fan-out time (histogram)

Persistence:
  - rhythmdb_persistence_save_duration_seconds: save-to-disk time (histogram)
  - rhythmdb_persistence_load_duration_seconds: load-from-disk time (histogram)
  - rhythmdb_persistence_errors_total: load/save failures (counter)
    Labels: operation (load, save)

# Usage

	metrics.RecordCommit(elapsed, len(batch))
	metrics.RecordAtomIntern(wasAlreadyPresent)
	metrics.EntriesLive.WithLabelValues("song").Set(float64(count))

# See Also

  - github.com/prometheus/client_golang: underlying metrics library
*/
package metrics
