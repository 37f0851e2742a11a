// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the entry database's writer, query models, and
// notification pipeline.

var (
	// CommitDuration tracks how long a single Commit() pass takes, from
	// draining the action queue batch to dispatching notifications.
	CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rhythmdb_commit_duration_seconds",
			Help:    "Duration of a single commit pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CommitBatchSize tracks how many actions were applied per commit.
	CommitBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rhythmdb_commit_batch_size",
			Help:    "Number of actions applied per commit",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// CommitsTotal counts completed commits.
	CommitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rhythmdb_commits_total",
			Help: "Total number of commits applied",
		},
	)

	// ActionErrorsTotal counts actions that failed validation or application,
	// broken down by the entry-type kind involved.
	ActionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhythmdb_action_errors_total",
			Help: "Total number of actions that failed to apply",
		},
		[]string{"entry_type", "error_kind"},
	)

	// ActionQueueDepth tracks the current number of actions waiting to be
	// drained by the writer.
	ActionQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rhythmdb_action_queue_depth",
			Help: "Current number of actions pending in the action queue",
		},
	)

	// EntriesLive tracks the number of non-deleted entries held by the
	// store, broken down by entry type.
	EntriesLive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rhythmdb_entries_live",
			Help: "Current number of live entries by type",
		},
		[]string{"entry_type"},
	)

	// AtomPoolSize tracks the number of distinct interned strings.
	AtomPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rhythmdb_atom_pool_size",
			Help: "Current number of distinct interned atoms",
		},
	)

	// AtomInternsTotal counts calls to Intern, split by whether the string
	// was already present in the pool.
	AtomInternsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhythmdb_atom_interns_total",
			Help: "Total number of Intern calls",
		},
		[]string{"outcome"}, // "hit" or "miss"
	)

	// QueryModelPopulation tracks the number of entries currently held by a
	// live query model, keyed by the model's identifying label.
	QueryModelPopulation = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rhythmdb_query_model_population",
			Help: "Current number of entries in a query model",
		},
		[]string{"model"},
	)

	// QueryModelLimitOverflow counts entries rejected by a query model's
	// Duration/Size limit.
	QueryModelLimitOverflow = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhythmdb_query_model_limit_overflow_total",
			Help: "Total number of entries rejected for exceeding a model's limit",
		},
		[]string{"model"},
	)

	// PropertyModelGroups tracks the number of distinct groups held by a
	// property model.
	PropertyModelGroups = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rhythmdb_property_model_groups",
			Help: "Current number of distinct groups in a property model",
		},
		[]string{"model"},
	)

	// NotifyQueueDepth tracks the depth of the in-process notification bus
	// backlog for a given topic.
	NotifyQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rhythmdb_notify_queue_depth",
			Help: "Current backlog depth of a notification topic",
		},
		[]string{"topic"},
	)

	// NotifyDispatchDuration tracks how long it takes to fan a single
	// commit's change records out to subscribed query models.
	NotifyDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rhythmdb_notify_dispatch_duration_seconds",
			Help:    "Duration of dispatching one commit's notifications",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PersistenceSaveDuration tracks the time taken to serialize and write
	// the full entry database to disk.
	PersistenceSaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rhythmdb_persistence_save_duration_seconds",
			Help:    "Duration of a full save-to-disk pass",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// PersistenceLoadDuration tracks the time taken to load and parse the
	// on-disk XML into the entry store at startup.
	PersistenceLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rhythmdb_persistence_load_duration_seconds",
			Help:    "Duration of loading the on-disk database at startup",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// PersistenceErrorsTotal counts load/save failures by operation.
	PersistenceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhythmdb_persistence_errors_total",
			Help: "Total number of persistence errors",
		},
		[]string{"operation"}, // "load" or "save"
	)

	// AppInfo exposes static build information as label values.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rhythmdb_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordCommit records a completed commit pass.
func RecordCommit(duration time.Duration, batchSize int) {
	CommitDuration.Observe(duration.Seconds())
	CommitBatchSize.Observe(float64(batchSize))
	CommitsTotal.Inc()
}

// RecordActionError records an action that failed to apply.
func RecordActionError(entryType, errorKind string) {
	ActionErrorsTotal.WithLabelValues(entryType, errorKind).Inc()
}

// RecordAtomIntern records an Intern call outcome.
func RecordAtomIntern(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	AtomInternsTotal.WithLabelValues(outcome).Inc()
}

// RecordQueryModelOverflow records a query model rejecting an entry for
// exceeding its configured limit.
func RecordQueryModelOverflow(model string) {
	QueryModelLimitOverflow.WithLabelValues(model).Inc()
}

// RecordNotifyDispatch records the duration of one dispatch fan-out.
func RecordNotifyDispatch(duration time.Duration) {
	NotifyDispatchDuration.Observe(duration.Seconds())
}

// RecordPersistence records the outcome of a load or save operation.
func RecordPersistence(operation string, duration time.Duration, err error) {
	switch operation {
	case "load":
		PersistenceLoadDuration.Observe(duration.Seconds())
	case "save":
		PersistenceSaveDuration.Observe(duration.Seconds())
	}
	if err != nil {
		PersistenceErrorsTotal.WithLabelValues(operation).Inc()
	}
}
