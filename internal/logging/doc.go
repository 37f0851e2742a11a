// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package logging provides centralized zerolog-based structured logging for
// the entry database.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Global logger configuration via environment variables
//   - Context-aware logging with correlation-ID and commit-ID propagation
//   - slog adapter for suture v4 integration (sutureslog.Handler)
//
// # Quick Start
//
//	import "github.com/tomtom215/rhythmdb/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Int("entries", n).Msg("load complete")
//	logging.Error().Err(err).Msg("commit failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Msg("applying commit")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Log Levels
//
// Supported log levels (from most to least verbose):
//
//	trace  - Very detailed diagnostic information
//	debug  - Detailed diagnostic information
//	info   - General operational information (default)
//	warn   - Warning conditions that should be addressed
//	error  - Error conditions requiring attention
//	fatal  - Fatal errors that terminate the program
//	panic  - Panic conditions that crash the program
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// # Component Loggers
//
//	commitLogger := logging.WithComponent("commit")
//	commitLogger.Info().Msg("applying batch")
//
// # Context-Aware Logging
//
// ContextWithCommitID and CommitIDFromContext carry a commit ID on a
// context. The commit engine itself does not go through the context: it adds
// commit_id as a field on the logger it uses for that commit pass:
//
//	log := logging.Ctx(ctx).With().Str("commit_id", commitID.String()).Logger()
//	log.Debug().Msg("commit applied")
//
// # slog Adapter
//
// The package provides an slog adapter for suture, which requires slog.Logger:
//
//	slogLogger := logging.NewSlogLogger()
//	handler := &sutureslog.Handler{Logger: slogLogger}
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # Testing
//
// Create test loggers that capture output:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//	output := buf.String()
//
// # See Also
//
//   - github.com/rs/zerolog: underlying logging library
//   - github.com/thejerf/sutureslog: slog bridge consumed via NewSlogLogger
package logging
