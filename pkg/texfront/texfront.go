// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package texfront provides the public API of the TeX front end: it turns
// TeX source into a list of boxes.
package texfront

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"nickandperla.net/texfront/internal/eval"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/stdlib"
	"nickandperla.net/texfront/internal/store"
)

// ErrNoStore is returned by format operations on a Runtime without a store.
var ErrNoStore = errors.New("texfront: no format store configured")

// Runtime is a TeX front end with its own equivalence table. Definitions
// made by one Process call are visible to the next. A Runtime is not
// safe for concurrent use.
type Runtime struct {
	engine        *eval.Engine
	store         store.Store
	metrics       font.Metrics
	hook          Hook
	jobName       string
	prelude       string
	noPrelude     bool
	maxDepth      int
	maxExpansions int
	err           error
}

// New creates a runtime and loads the prelude, unless disabled.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{maxDepth: eval.DefaultMaxInputDepth}
	for _, opt := range opts {
		opt(r)
	}
	if r.err != nil {
		return nil, r.err
	}

	evalOpts := []eval.Option{
		eval.WithMaxInputDepth(r.maxDepth),
		eval.WithMaxExpansions(r.maxExpansions),
	}
	if r.metrics != nil {
		evalOpts = append(evalOpts, eval.WithMetrics(r.metrics))
	}
	if r.hook != nil {
		evalOpts = append(evalOpts, eval.WithHook(r.hook))
	}
	if r.jobName != "" {
		evalOpts = append(evalOpts, eval.WithJobName(r.jobName))
	}
	r.engine = eval.New(evalOpts...)

	if !r.noPrelude {
		prelude := r.prelude
		if prelude == "" {
			prelude = stdlib.Plain
		}
		if _, err := r.engine.ProcessString(prelude); err != nil {
			r.Close()
			return nil, fmt.Errorf("prelude: %w", err)
		}
	}
	return r, nil
}

// Process reads TeX source from rd and returns the boxes of the outer
// vertical list.
func (r *Runtime) Process(rd io.Reader) ([]*Box, error) {
	return r.engine.Process(rd)
}

// ProcessString is Process over a string.
func (r *Runtime) ProcessString(s string) ([]*Box, error) {
	return r.engine.Process(strings.NewReader(s))
}

// ProcessFile processes the named file.
func (r *Runtime) ProcessFile(path string) ([]*Box, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Process(f)
}

// Engine exposes the underlying engine for register and meaning queries.
func (r *Runtime) Engine() *eval.Engine {
	return r.engine
}

// DumpFormat saves the current global definitions under name.
func (r *Runtime) DumpFormat(name string) error {
	if r.store == nil {
		return ErrNoStore
	}
	snap, err := r.engine.Dump()
	if err != nil {
		return err
	}
	if err := r.store.Put(name, snap); err != nil {
		return fmt.Errorf("dump format %s: %w", name, err)
	}
	return nil
}

// LoadFormat installs the newest version of a dumped format.
func (r *Runtime) LoadFormat(name string) error {
	if r.store == nil {
		return ErrNoStore
	}
	snap, err := r.store.Get(name)
	if err != nil {
		return fmt.Errorf("load format %s: %w", name, err)
	}
	if snap == nil {
		return fmt.Errorf("load format %s: not found", name)
	}
	return r.engine.Load(snap)
}

// FormatHistory lists the stored versions of a format, newest first.
// limit <= 0 means all.
func (r *Runtime) FormatHistory(name string, limit int) ([]VersionEntry, error) {
	hs, ok := r.store.(store.HistoryStore)
	if !ok {
		return nil, ErrNoStore
	}
	return hs.GetHistory(name, limit)
}

// Close releases the store.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// JobName derives \jobname from a file path, as TeX does.
func JobName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
