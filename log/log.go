// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the process-wide structured logger.
// Packages obtain their own logger once at init time:
//
//	var logger = log.WithContext("pkg", "staking")
package log

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	level  atomic.Int64 // slog.Level
	output atomic.Pointer[slog.Handler]
	root   *slog.Logger
)

func init() {
	level.Store(int64(slog.LevelInfo))
	h := newOutput(os.Stderr, false)
	output.Store(&h)
	root = slog.New(&dynamicHandler{})
}

// WithContext returns a logger carrying the given key/value context.
func WithContext(args ...any) *slog.Logger {
	return root.With(args...)
}

// Root returns the root logger.
func Root() *slog.Logger {
	return root
}

// Setup replaces the logger output. Takes effect for all loggers, including
// those obtained via WithContext before the call.
func Setup(w io.Writer, jsonFormat bool) {
	h := newOutput(w, jsonFormat)
	output.Store(&h)
}

// SetLevel sets the minimum level emitted by all loggers.
func SetLevel(l slog.Level) {
	level.Store(int64(l))
}

// ParseLevel converts a verbosity name into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Errorf("unknown verbosity %q", s)
	}
}
