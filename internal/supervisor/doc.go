// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

/*
Package supervisor provides process supervision for the entry database's
long-running goroutines using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of the writer thread, the notification dispatcher, and persistence,
giving each an independent failure domain with Erlang/OTP-style automatic
restart and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("rhythmdb")
	├── StorageSupervisor ("storage-layer")
	│   └── actionqueue.Writer (drains the action queue, runs the commit
	│       engine and the persistence load/save actions)
	├── NotifySupervisor ("notify-layer")
	│   └── ModelService (one per query or property model's notification
	│       consumer)
	└── MaintenanceSupervisor ("maintenance-layer")
	    └── TickerService (periodic upkeep, e.g. exporting live entry counts)

This hierarchy ensures that:
  - A crash in the notification dispatcher doesn't stop the writer from
    applying commits
  - A hung persistence drain doesn't block notification delivery
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via sutureslog adapter

# Usage Example

	import (
	    "log/slog"
	    "github.com/tomtom215/rhythmdb/internal/supervisor"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddStorageService(writer)
	    tree.AddStorageService(persistence)
	    tree.AddNotifyService(dispatcher)

	    ctx := context.Background()
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

# Configuration

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: Service stopped cleanly, will not be restarted
  - Return error: Service crashed, will be restarted
  - Context canceled: Shutdown requested, return promptly

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

# Thread Safety

The SupervisorTree is safe for concurrent use: services can be added from any
goroutine, and multiple services can crash simultaneously without corrupting
the tree.

# See Also

  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
