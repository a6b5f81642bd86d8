// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"errors"
	"io"

	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/scanner"
	"nickandperla.net/texfront/internal/token"
)

// source is a pending token list on the input stack. A frozen source
// holds one token that must not be expanded (\noexpand).
type source struct {
	toks   token.List
	pos    int
	frozen bool
}

// cmd is a token together with its meaning at the time it was read.
type cmd struct {
	tok    token.Token
	def    expr.Def
	frozen bool
}

// next returns the next token without expansion, or io.EOF. Exhausted
// sources are popped eagerly, so a macro whose last token is a recursive
// call does not grow the input stack.
func (e *Engine) next() (token.Token, bool, error) {
	for n := len(e.inputs); n > 0; n = len(e.inputs) {
		s := e.inputs[n-1]
		if s.pos >= len(s.toks) {
			e.inputs = e.inputs[:n-1]
			continue
		}
		t := s.toks[s.pos]
		s.pos++
		if s.pos == len(s.toks) {
			e.inputs = e.inputs[:n-1]
		}
		e.last = t
		return t, s.frozen, nil
	}
	if e.scan == nil {
		return token.Token{}, false, io.EOF
	}
	t, err := e.scan.Next()
	if err != nil {
		var inv *scanner.InvalidCharError
		if errors.As(err, &inv) {
			lerr := e.fail(LexError, token.NewChar(inv.Char, token.Invalid), "text line contains an invalid character")
			lerr.(*Error).Err = err
			return token.Token{}, false, lerr
		}
		return token.Token{}, false, err
	}
	e.last = t
	return t, false, nil
}

// nextNonBlank returns the next unexpanded token that is not a space.
func (e *Engine) nextNonBlank() (token.Token, error) {
	for {
		t, _, err := e.next()
		if err != nil || !t.IsSpace() {
			return t, err
		}
	}
}

// back pushes a single token so that it is read next.
func (e *Engine) back(t token.Token, frozen bool) {
	e.inputs = append(e.inputs, &source{toks: token.List{t}, frozen: frozen})
}

func (e *Engine) backCmd(c cmd) {
	e.back(c.tok, c.frozen)
}

// backList pushes tokens read ahead, so that they are read again.
func (e *Engine) backList(l token.List) {
	if len(l) > 0 {
		e.inputs = append(e.inputs, &source{toks: l})
	}
}

// push inserts an expansion result, enforcing the input depth limit.
func (e *Engine) push(l token.List, t token.Token) error {
	if len(l) == 0 {
		return nil
	}
	if e.maxDepth > 0 && len(e.inputs) >= e.maxDepth {
		return e.fail(ResourceExhausted, t, "input stack size=%d exceeded", e.maxDepth)
	}
	e.inputs = append(e.inputs, &source{toks: l})
	return nil
}

func meaningKey(t token.Token) eqtb.Key {
	if t.IsCS() {
		return eqtb.Key{Space: eqtb.Meaning, Name: t.Name}
	}
	// active characters live beside control sequences, tagged by N
	return eqtb.Key{Space: eqtb.Meaning, Name: string(t.Rune), N: 1}
}

// meaning returns the current definition of t. Plain characters mean
// themselves.
func (e *Engine) meaning(t token.Token) expr.Def {
	if t.IsCS() || t.IsActive() {
		return e.tab.Get(meaningKey(t)).(expr.Def)
	}
	return expr.CharLet{Tok: t}
}

// getX returns the next unexpandable command, expanding as it goes.
func (e *Engine) getX() (cmd, error) {
	for {
		t, frozen, err := e.next()
		if err != nil {
			return cmd{}, err
		}
		if frozen {
			return cmd{tok: t, def: relax, frozen: true}, nil
		}
		d := e.meaning(t)
		if _, ok := d.(expr.Undefined); ok {
			return cmd{}, e.fail(UndefinedControlSequence, t, "undefined control sequence %s", t)
		}
		if !d.Expandable() {
			return cmd{tok: t, def: d}, nil
		}
		if err := e.expand(t, d); err != nil {
			return cmd{}, err
		}
	}
}

// getXNonBlank is getX skipping spaces.
func (e *Engine) getXNonBlank() (cmd, error) {
	for {
		c, err := e.getX()
		if err != nil || !isSpace(c) {
			return c, err
		}
	}
}

// getXNonBlankNonRelax skips spaces and \relax, as TeX does before a
// left brace or after a prefix.
func (e *Engine) getXNonBlankNonRelax() (cmd, error) {
	for {
		c, err := e.getX()
		if err != nil {
			return c, err
		}
		if !isSpace(c) && !isOp(c, expr.OpRelax) {
			return c, nil
		}
	}
}

func isSpace(c cmd) bool {
	cl, ok := c.def.(expr.CharLet)
	return ok && cl.Tok.IsSpace()
}

func isOp(c cmd, op expr.Op) bool {
	p, ok := c.def.(expr.Primitive)
	return ok && p.Op == op
}

// charOf returns the character a command stands for, explicit or
// implicit, and whether it is one.
func charOf(c cmd) (token.Token, bool) {
	if c.frozen {
		return token.Token{}, false
	}
	cl, ok := c.def.(expr.CharLet)
	return cl.Tok, ok
}

// isOther reports whether c is the character r with category Other.
func isOther(c cmd, r rune) bool {
	t, ok := charOf(c)
	return ok && !c.tok.IsCS() && t.Is(token.Other) && t.Rune == r
}
