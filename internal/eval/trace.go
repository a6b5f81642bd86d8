// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/token"
)

func tracer() tracing.Trace {
	return tracing.Select("texfront.eval")
}

// EventKind identifies what a trace event reports.
type EventKind int

const (
	// TokenConsumed: main control acted on Token.
	TokenConsumed EventKind = iota
	// MacroExpanded: Name was expanded with Args.
	MacroExpanded
	// PrimitiveExpanded: an expandable primitive Name produced Result. For
	// conditionals Cond is the test outcome (Case for \ifcase).
	PrimitiveExpanded
	// Assignment: Key changed from Old to New.
	Assignment
	// Restore: Key reverted to New on group exit.
	Restore
	// ModeChange: From -> To.
	ModeChange
	// BoxPacked: Box was packaged, see Report.
	BoxPacked
	// Message: \message printed Text.
	Message
	// MissingChar: Token's character is not in font Name.
	MissingChar
)

func (k EventKind) String() string {
	switch k {
	case TokenConsumed:
		return "token"
	case MacroExpanded:
		return "expand"
	case PrimitiveExpanded:
		return "primitive"
	case Assignment:
		return "assign"
	case Restore:
		return "restore"
	case ModeChange:
		return "mode"
	case BoxPacked:
		return "box"
	case Message:
		return "message"
	case MissingChar:
		return "missing"
	}
	return "event"
}

// Event is one observation of the engine at work.
type Event struct {
	Kind   EventKind
	Token  token.Token
	Name   string
	Args   []token.List
	Result token.List
	Cond   bool
	Case   int32
	Key    eqtb.Key
	Old    any
	New    any
	Global bool
	From   Mode
	To     Mode
	Box    *box.Box
	Report box.Report
	Text   string
	// Depth is the group level at the time of the event.
	Depth int
}

// Hook receives trace events. Hooks observe only; they must not call
// back into the engine.
type Hook func(Event)

func (e *Engine) emit(ev Event) {
	if e.hook == nil {
		return
	}
	ev.Depth = e.tab.Depth()
	e.hook(ev)
}
