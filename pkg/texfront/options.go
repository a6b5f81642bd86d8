// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package texfront

import (
	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/eval"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// Box is a packaged list produced by Process.
type Box = box.Box

// Hook observes engine events.
type Hook = eval.Hook

// Event is a trace event.
type Event = eval.Event

// Error is a fatal engine error.
type Error = eval.Error

// ErrorKind classifies an Error.
type ErrorKind = eval.ErrorKind

// KindOf returns the kind of an engine error, or 0.
func KindOf(err error) ErrorKind {
	return eval.KindOf(err)
}

// Store interface for custom format stores.
type Store = store.Store

// VersionEntry describes one stored version of a format.
type VersionEntry = store.VersionEntry

// Metrics answers character-dimension queries.
type Metrics = font.Metrics

// WithFonts sets the font-metric provider. The default is a fixed-pitch
// synthetic family.
func WithFonts(m Metrics) Option {
	return func(r *Runtime) {
		r.metrics = m
	}
}

// WithGoFonts reads metrics from the Go font family.
func WithGoFonts() Option {
	return func(r *Runtime) {
		m, err := font.NewGoFonts()
		if err != nil {
			r.err = err
			return
		}
		r.metrics = m
	}
}

// WithTraceHook sets a hook that observes every engine event.
func WithTraceHook(h Hook) Option {
	return func(r *Runtime) {
		r.hook = h
	}
}

// WithPrelude sets a custom prelude source to be processed on startup.
// If not set, the plain format is used.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// WithNoPrelude disables the prelude.
func WithNoPrelude() Option {
	return func(r *Runtime) {
		r.noPrelude = true
	}
}

// WithMaxInputDepth bounds the input stack; n <= 0 disables the limit.
func WithMaxInputDepth(n int) Option {
	return func(r *Runtime) {
		r.maxDepth = n
	}
}

// WithMaxExpansions bounds expansion steps per Process call; 0 means
// unlimited.
func WithMaxExpansions(n int) Option {
	return func(r *Runtime) {
		r.maxExpansions = n
	}
}

// WithJobName sets \jobname.
func WithJobName(name string) Option {
	return func(r *Runtime) {
		r.jobName = name
	}
}

// WithSQLiteStore configures SQLite format persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.err = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory format store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore sets a custom format store.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}
