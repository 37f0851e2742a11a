// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Command rhythmdb-bench is a CLI test harness that exercises the entry
// database's load/commit/save path under a synthetic workload: it loads a
// database file (generating one first if none exists), deletes every entry
// of a chosen type, commits, saves, and reloads — repeating for the
// requested number of iterations and reporting per-phase timings. It
// mirrors the teacher's cmd/server initialization order (config, store,
// supervisor, then work) without the HTTP surface, since this binary never
// serves requests.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/rhythmdb/internal/actionqueue"
	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/commit"
	"github.com/tomtom215/rhythmdb/internal/config"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/persistence"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/supervisor"
)

func main() {
	file := flag.String("file", "rhythmdb-bench.xml", "database file to load, delete from, and resave")
	iterations := flag.Int("iterations", 3, "number of load/delete/save/reload cycles")
	seedEntries := flag.Int("seed", 5000, "number of synthetic song entries to generate if file does not exist")
	deleteType := flag.String("delete-type", entrytype.Song, "entry type deleted each cycle")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.SetLevelString("info")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := atom.NewPool(cfg.BloomFilterSize)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		logging.Fatal().Err(err).Msg("failed to register builtin entry types")
	}
	store := rhythmdb.NewStore(pool, types)
	bus := notify.NewBus()
	defer bus.Close()
	engine := commit.New(store, bus)
	mgr := persistence.New(store, types, engine)

	queue := actionqueue.New(cfg.ActionQueueDepth)
	writer := actionqueue.NewWriter(queue, store, types, engine, mgr)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build supervisor tree")
	}
	tree.AddStorageService(writer)
	tree.AddMaintenanceService(supervisor.NewTickerService("live-count-reporter", 10*time.Second, func(ctx context.Context) {
		store.ReportLiveCounts()
	}))
	treeErrCh := tree.ServeBackground(ctx)

	song, ok := types.Lookup(entrytype.Song)
	if !ok {
		logging.Fatal().Msg("song entry type not registered")
	}

	if _, statErr := os.Stat(*file); os.IsNotExist(statErr) {
		logging.Info().Int("entries", *seedEntries).Str("file", *file).Msg("seeding synthetic database")
		seedSongs(store, song, *seedEntries)
		if err := sendAction(ctx, queue, actionqueue.Action{Kind: actionqueue.KindCommit}); err != nil {
			logging.Fatal().Err(err).Msg("seed commit failed")
		}
		if err := sendAction(ctx, queue, actionqueue.Action{Kind: actionqueue.KindSaveFile, Path: *file}); err != nil {
			logging.Fatal().Err(err).Msg("seed save failed")
		}
	}

	for i := 1; i <= *iterations; i++ {
		log := logging.Logger().With().Int("iteration", i).Logger()

		loadStart := time.Now()
		if err := sendAction(ctx, queue, actionqueue.Action{Kind: actionqueue.KindLoadFile, Path: *file}); err != nil {
			log.Fatal().Err(err).Msg("load failed")
		}
		log.Info().Dur("elapsed", time.Since(loadStart)).Int("entries", store.Size()).Msg("load complete")

		deleteStart := time.Now()
		ty, ok := types.Lookup(*deleteType)
		if !ok {
			log.Fatal().Str("type", *deleteType).Msg("unknown delete-type")
		}
		deleted := 0
		store.ForEachByType(ty, func(e *rhythmdb.Entry) {
			store.Delete(e)
			deleted++
		})
		if err := sendAction(ctx, queue, actionqueue.Action{Kind: actionqueue.KindCommit}); err != nil {
			log.Fatal().Err(err).Msg("delete commit failed")
		}
		log.Info().Dur("elapsed", time.Since(deleteStart)).Int("deleted", deleted).Str("type", *deleteType).Msg("delete-by-type complete")

		saveStart := time.Now()
		if err := sendAction(ctx, queue, actionqueue.Action{Kind: actionqueue.KindSaveFile, Path: *file}); err != nil {
			log.Fatal().Err(err).Msg("save failed")
		}
		log.Info().Dur("elapsed", time.Since(saveStart)).Msg("save complete")
	}

	if err := sendAction(ctx, queue, actionqueue.Action{Kind: actionqueue.KindShutdown}); err != nil {
		logging.Error().Err(err).Msg("shutdown action failed")
	}
	stop()

	select {
	case err := <-treeErrCh:
		if err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "supervisor tree stopped with error: %v\n", err)
		}
	case <-time.After(5 * time.Second):
		fmt.Fprintln(os.Stderr, "supervisor tree did not stop within 5s")
	}
}

// seedSongs stages n synthetic song entries with distinct locations,
// titles, and track numbers, for first-run benchmarking when no existing
// database file is available.
func seedSongs(store *rhythmdb.Store, song *entrytype.Type, n int) {
	for i := 0; i < n; i++ {
		location := fmt.Sprintf("file:///bench/track-%06d.mp3", i)
		e, err := store.New(song, location)
		if err != nil {
			continue
		}
		store.Set(e, rhythmdb.PropTitle, rhythmdb.Value{Str: store.InternAtom(fmt.Sprintf("Track %d", i))})
		store.Set(e, rhythmdb.PropTrackNumber, rhythmdb.Value{ULong: uint64(i % 20)})
		store.Set(e, rhythmdb.PropDuration, rhythmdb.Value{Int64: int64(180 + i%120)})
	}
}

// sendAction submits action to queue and blocks until the writer has
// finished applying it, returning any error the writer reported.
func sendAction(ctx context.Context, queue *actionqueue.Queue, action actionqueue.Action) error {
	action.Err = make(chan error, 1)
	if err := queue.Send(ctx, action); err != nil {
		return err
	}
	select {
	case err := <-action.Err:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
