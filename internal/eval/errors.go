// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"errors"
	"fmt"

	"nickandperla.net/texfront/internal/token"
)

// ErrorKind classifies a fatal engine error.
type ErrorKind int

const (
	LexError ErrorKind = iota + 1
	UndefinedControlSequence
	RunawayArgument
	UnmatchedConditional
	ModeError
	RegisterOutOfRange
	TypeMismatch
	UnmatchedGroup
	ResourceExhausted
	ArgumentMismatch
	InvalidPrefix
	SyntaxError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case UndefinedControlSequence:
		return "undefined control sequence"
	case RunawayArgument:
		return "runaway argument"
	case UnmatchedConditional:
		return "unmatched conditional"
	case ModeError:
		return "mode error"
	case RegisterOutOfRange:
		return "register out of range"
	case TypeMismatch:
		return "type mismatch"
	case UnmatchedGroup:
		return "unmatched group"
	case ResourceExhausted:
		return "resource exhausted"
	case ArgumentMismatch:
		return "argument mismatch"
	case InvalidPrefix:
		return "invalid prefix"
	case SyntaxError:
		return "syntax error"
	}
	return "unknown error"
}

// Error is a fatal engine error. It records where the engine was when
// processing stopped.
type Error struct {
	Kind  ErrorKind
	Token token.Token
	Mode  Mode
	// Depth is the number of open groups.
	Depth int
	Line  int
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	at := ""
	if e.Token != (token.Token{}) {
		at = "at " + describe(e.Token) + " "
	}
	return fmt.Sprintf("line %d: %s: %s (%sin %s mode, group level %d)", e.Line, e.Kind, e.Msg, at, e.Mode, e.Depth)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of an engine error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// fail builds an *Error from the engine's current state.
func (e *Engine) fail(kind ErrorKind, t token.Token, format string, args ...any) error {
	err := &Error{
		Kind:  kind,
		Token: t,
		Mode:  e.mode(),
		Depth: e.tab.Depth(),
		Msg:   fmt.Sprintf(format, args...),
	}
	if e.scan != nil {
		err.Line = e.scan.Line()
	}
	tracer().Errorf("%v", err)
	return err
}

// describe names a token in messages, e.g. "\foo" or "character {".
func describe(t token.Token) string {
	if t.IsCS() {
		return t.String()
	}
	return "character " + string(t.Rune)
}
