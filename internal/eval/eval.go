// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the expansion engine and main control: it pulls
// tokens from the scanner, expands macros and conditionals, performs
// scoped assignments and builds boxes in a stack of modes.
package eval

import (
	"io"
	"strings"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/scanner"
	"nickandperla.net/texfront/internal/token"
)

// DefaultMaxInputDepth bounds the input stack unless overridden.
const DefaultMaxInputDepth = 5000

// Engine interprets a token stream into boxes. An Engine is not safe for
// concurrent use; the equivalence table persists across Process calls.
type Engine struct {
	tab         *eqtb.Table
	metrics     font.Metrics
	hook        Hook
	jobName     string
	defaultFont font.Font

	maxDepth      int
	maxExpansions int
	expansions    int

	scan   *scanner.Scanner
	inputs []*source
	last   token.Token // most recently read token
	conds  []cond
	nest   []*frame
	done   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics sets the font-metric provider.
func WithMetrics(m font.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithHook sets the trace hook.
func WithHook(h Hook) Option {
	return func(e *Engine) { e.hook = h }
}

// WithMaxInputDepth bounds the number of pending token sources.
// Zero or less disables the limit.
func WithMaxInputDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithMaxExpansions bounds the number of expansion steps per Process
// call. Zero means unlimited.
func WithMaxExpansions(n int) Option {
	return func(e *Engine) { e.maxExpansions = n }
}

// WithJobName sets the value of \jobname.
func WithJobName(name string) Option {
	return func(e *Engine) { e.jobName = name }
}

// WithDefaultFont sets the font current before any selection.
func WithDefaultFont(f font.Font) Option {
	return func(e *Engine) { e.defaultFont = f }
}

// New creates an Engine with every primitive defined.
func New(opts ...Option) *Engine {
	e := &Engine{
		metrics:     font.Fixed{},
		jobName:     "texput",
		defaultFont: font.Font{Name: "cmr10", Size: dimen.Pt(10)},
		maxDepth:    DefaultMaxInputDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tab = eqtb.New(e.initial)
	e.tab.OnRestore = func(k eqtb.Key, v any) {
		e.emit(Event{Kind: Restore, Key: k, New: v})
	}
	for _, p := range primitives {
		e.tab.Assign(eqtb.Key{Space: eqtb.Meaning, Name: p.Name}, p, true)
	}
	return e
}

// initial supplies the value of keys never assigned.
func (e *Engine) initial(k eqtb.Key) any {
	switch k.Space {
	case eqtb.Meaning:
		return expr.Undefined{}
	case eqtb.Catcode:
		return initialCatcode(rune(k.N))
	case eqtb.SFCode:
		if k.N >= 'A' && k.N <= 'Z' {
			return int32(999)
		}
		return int32(1000)
	case eqtb.Count:
		return int32(0)
	case eqtb.Dimen:
		return dimen.Dimen(0)
	case eqtb.Skip:
		return dimen.Glue{}
	case eqtb.Box:
		return (*box.Box)(nil)
	case eqtb.IntPar:
		return intParams[k.Name]
	case eqtb.DimenPar:
		return dimenParams[k.Name]
	case eqtb.GluePar:
		return glueParams[k.Name]
	case eqtb.Font:
		return e.defaultFont
	}
	return nil
}

// Category implements scanner.Categorizer.
func (e *Engine) Category(r rune) token.Category {
	return e.tab.Get(eqtb.Key{Space: eqtb.Catcode, N: int(r)}).(token.Category)
}

// EndLineChar implements scanner.Categorizer.
func (e *Engine) EndLineChar() rune {
	c := e.intParam("endlinechar")
	if c < 0 || c > 255 {
		return -1
	}
	return rune(c)
}

// Process reads r to the end (or to \end) and returns the boxes of the
// outer vertical list in document order. On error the boxes finished so
// far are returned with it, and any open groups are unwound.
func (e *Engine) Process(r io.Reader) ([]*box.Box, error) {
	e.scan = scanner.New(r, e)
	e.inputs = nil
	e.conds = nil
	e.done = false
	e.expansions = 0
	e.nest = []*frame{{mode: OuterVertical, prevDepth: ignoreDepth, spaceFactor: 1000}}

	err := e.run()
	if err != nil {
		for e.tab.Depth() > 0 {
			e.tab.Close()
		}
	}
	return e.Boxes(), err
}

// ProcessString is Process over a string.
func (e *Engine) ProcessString(s string) ([]*box.Box, error) {
	return e.Process(strings.NewReader(s))
}

// List returns the outer vertical list built by the last Process call,
// including interline and paragraph glue.
func (e *Engine) List() []box.Item {
	if len(e.nest) == 0 {
		return nil
	}
	return e.nest[0].list
}

// Boxes returns the boxes of the outer vertical list.
func (e *Engine) Boxes() []*box.Box {
	var out []*box.Box
	for _, it := range e.List() {
		if b, ok := it.(*box.Box); ok {
			out = append(out, b)
		}
	}
	return out
}

// Depth returns the number of open groups.
func (e *Engine) Depth() int {
	return e.tab.Depth()
}

// Meaning returns what \meaning would print for a control sequence.
func (e *Engine) Meaning(name string) string {
	return e.meaning(token.NewCS(name)).String()
}

// Count returns \count n.
func (e *Engine) Count(n int) int32 {
	return e.tab.Get(eqtb.Key{Space: eqtb.Count, N: n}).(int32)
}

// Dimen returns \dimen n.
func (e *Engine) Dimen(n int) dimen.Dimen {
	return e.tab.Get(eqtb.Key{Space: eqtb.Dimen, N: n}).(dimen.Dimen)
}

// Skip returns \skip n.
func (e *Engine) Skip(n int) dimen.Glue {
	return e.tab.Get(eqtb.Key{Space: eqtb.Skip, N: n}).(dimen.Glue)
}

// Box returns \box n without voiding it; nil if the register is void.
func (e *Engine) Box(n int) *box.Box {
	return e.boxReg(n)
}

func (e *Engine) boxReg(n int) *box.Box {
	return e.tab.Get(eqtb.Key{Space: eqtb.Box, N: n}).(*box.Box)
}

func (e *Engine) intParam(name string) int32 {
	return e.tab.Get(eqtb.Key{Space: eqtb.IntPar, Name: name}).(int32)
}

func (e *Engine) dimenParam(name string) dimen.Dimen {
	return e.tab.Get(eqtb.Key{Space: eqtb.DimenPar, Name: name}).(dimen.Dimen)
}

func (e *Engine) glueParam(name string) dimen.Glue {
	return e.tab.Get(eqtb.Key{Space: eqtb.GluePar, Name: name}).(dimen.Glue)
}

func (e *Engine) curFont() font.Font {
	return e.tab.Get(eqtb.Key{Space: eqtb.Font}).(font.Font)
}

// set performs a scoped assignment and reports it.
func (e *Engine) set(k eqtb.Key, v any, global bool) {
	old := e.tab.Assign(k, v, global)
	e.emit(Event{Kind: Assignment, Key: k, Old: old, New: v, Global: global})
}
