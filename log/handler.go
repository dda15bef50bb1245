// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"
)

// dynamicHandler resolves the output handler and minimum level on every
// record, so Setup and SetLevel take effect for loggers created before the
// call.
type dynamicHandler struct {
	attrs  []slog.Attr
	groups []string
}

func newOutput(w io.Writer, jsonFormat bool) slog.Handler {
	opts := &slog.HandlerOptions{
		// level filtering happens in Enabled below
		Level: slog.LevelDebug,
	}
	if jsonFormat {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (h *dynamicHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= slog.Level(level.Load())
}

func (h *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	inner := *output.Load()
	for _, g := range h.groups {
		inner = inner.WithGroup(g)
	}
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}
	return inner.Handle(ctx, r)
}

func (h *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dynamicHandler{
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: h.groups,
	}
}

func (h *dynamicHandler) WithGroup(name string) slog.Handler {
	return &dynamicHandler{
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}
