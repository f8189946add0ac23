// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package glaze is a hardware-accelerated 2D UI rendering pipeline. It
// converts trees of recorded drawing operations (display lists produced by a
// retained-mode scene graph) into ordered, batched draw commands ready for a
// GPU backend.
//
// The interesting work lives in the subpackages:
//
//   - record: display lists, render nodes, and the recording canvas
//   - frame: the deferral engine that walks render-node trees and produces
//     Z-ordered, merged batches per render target
//   - offscreen: the pooled render targets used by save-layers and
//     hardware layers
//   - jank: frame timing capture and percentile bucketing
//
// The root package only carries cross-cutting plumbing shared by the
// subpackages.
package glaze

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all log records. Enabled returns false so callers skip
// message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := slog.New(nopHandler{})
	loggerPtr.Store(l)
}

// SetLogger configures the logger for glaze and all its subpackages. By
// default glaze produces no log output. Pass nil to restore the silent
// default. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Subpackages call this to share the same
// logger configuration without introducing import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
