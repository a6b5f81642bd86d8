// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"io"
	"math"
	"strings"

	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/token"
)

// prefixed collects \global, \long and \outer prefixes and performs the
// assignment that follows them.
func (e *Engine) prefixed(c cmd) error {
	var global, long bool
	for {
		p, ok := c.def.(expr.Primitive)
		if !ok || !p.Op.IsPrefix() {
			break
		}
		switch p.Op {
		case expr.OpGlobal:
			global = true
		case expr.OpLong, expr.OpOuter:
			long = long || p.Op == expr.OpLong
		}
		prefix := c.tok
		var err error
		if c, err = e.getXNonBlankNonRelax(); err == io.EOF {
			return e.fail(InvalidPrefix, prefix, "%s at end of input", prefix)
		} else if err != nil {
			return err
		}
		if !assignment(c) && !isPrefix(c) {
			return e.fail(InvalidPrefix, c.tok, "you can't use a prefix with %s", describe(c.tok))
		}
	}
	if long && !isDef(c) {
		return e.fail(InvalidPrefix, c.tok, "you can't use \\long with %s", describe(c.tok))
	}
	return e.assign(c, global, long)
}

func assignment(c cmd) bool {
	switch d := c.def.(type) {
	case expr.FontDef, expr.RegisterDef:
		return true
	case expr.Primitive:
		return d.Op.IsAssignment()
	}
	return false
}

func isPrefix(c cmd) bool {
	p, ok := c.def.(expr.Primitive)
	return ok && p.Op.IsPrefix()
}

func isDef(c cmd) bool {
	p, ok := c.def.(expr.Primitive)
	if !ok {
		return false
	}
	switch p.Op {
	case expr.OpDef, expr.OpGdef, expr.OpEdef, expr.OpXdef:
		return true
	}
	return false
}

// assign performs one assignment command.
func (e *Engine) assign(c cmd, global, long bool) error {
	switch d := c.def.(type) {
	case expr.FontDef:
		e.set(eqtb.Key{Space: eqtb.Font}, d.Font, global)
		return nil
	case expr.RegisterDef:
		return e.assignValue(c, eqtb.Key{Space: d.Space, N: d.N}, global)
	}

	p := c.def.(expr.Primitive)
	switch p.Op {
	case expr.OpDef, expr.OpGdef, expr.OpEdef, expr.OpXdef:
		if p.Op == expr.OpGdef || p.Op == expr.OpXdef {
			global = true
		}
		t, err := e.getRToken(c.tok)
		if err != nil {
			return err
		}
		m, err := e.scanMacro(t, p.Op == expr.OpEdef || p.Op == expr.OpXdef)
		if err != nil {
			return err
		}
		m.Long = long
		e.set(meaningKey(t), m, global)
		return nil

	case expr.OpLet:
		t, err := e.getRToken(c.tok)
		if err != nil {
			return err
		}
		u, err := e.nextNonBlank()
		if err == nil && u.Is(token.Other) && u.Rune == '=' {
			u, _, err = e.next()
			if err == nil && u.IsSpace() {
				u, _, err = e.next()
			}
		}
		if err != nil {
			return e.eofError(err, c.tok)
		}
		e.set(meaningKey(t), e.meaning(u), global)
		return nil

	case expr.OpFutureLet:
		t, err := e.getRToken(c.tok)
		if err != nil {
			return err
		}
		first, ff, err := e.next()
		if err != nil {
			return e.eofError(err, c.tok)
		}
		second, sf, err := e.next()
		if err != nil {
			return e.eofError(err, c.tok)
		}
		e.back(second, sf)
		e.back(first, ff)
		e.set(meaningKey(t), e.meaning(second), global)
		return nil

	case expr.OpChardef, expr.OpCountdef, expr.OpDimendef, expr.OpSkipdef:
		t, err := e.getRToken(c.tok)
		if err != nil {
			return err
		}
		e.set(meaningKey(t), relax, global)
		if err := e.scanOptionalEquals(); err != nil {
			return err
		}
		var d expr.Def
		if p.Op == expr.OpChardef {
			r, err := e.scanCharNum(c.tok)
			if err != nil {
				return err
			}
			d = expr.CharDef{Code: r}
		} else {
			n, err := e.scanRegisterNum(c.tok)
			if err != nil {
				return err
			}
			sp := map[expr.Op]eqtb.Space{expr.OpCountdef: eqtb.Count, expr.OpDimendef: eqtb.Dimen, expr.OpSkipdef: eqtb.Skip}[p.Op]
			d = expr.RegisterDef{Space: sp, N: n}
		}
		e.set(meaningKey(t), d, global)
		return nil

	case expr.OpCount, expr.OpDimen, expr.OpSkip:
		k, err := e.scanRegisterKey(c.tok, p.Op)
		if err != nil {
			return err
		}
		return e.assignValue(c, k, global)

	case expr.OpIntParam, expr.OpDimenParam, expr.OpGlueParam:
		return e.assignValue(c, paramKey(p), global)

	case expr.OpPrevDepth:
		if !e.mode().Vertical() {
			return e.fail(ModeError, c.tok, "improper %s", c.tok)
		}
		if err := e.scanOptionalEquals(); err != nil {
			return err
		}
		d, err := e.scanDimen()
		if err != nil {
			return err
		}
		f := e.cur()
		e.emit(Event{Kind: Assignment, Key: eqtb.Key{Space: eqtb.DimenPar, Name: p.Name}, Old: f.prevDepth, New: d})
		f.prevDepth = d
		return nil

	case expr.OpSpaceFactor:
		if !e.mode().Horizontal() {
			return e.fail(ModeError, c.tok, "improper %s", c.tok)
		}
		if err := e.scanOptionalEquals(); err != nil {
			return err
		}
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		if n <= 0 || n > 32767 {
			return e.fail(SyntaxError, c.tok, "bad space factor (%d)", n)
		}
		f := e.cur()
		e.emit(Event{Kind: Assignment, Key: eqtb.Key{Space: eqtb.IntPar, Name: p.Name}, Old: f.spaceFactor, New: n})
		f.spaceFactor = n
		return nil

	case expr.OpAdvance, expr.OpMultiply, expr.OpDivide:
		return e.arithmetic(c, p.Op, global)

	case expr.OpCatcode, expr.OpSfcode:
		r, err := e.scanCharNum(c.tok)
		if err != nil {
			return err
		}
		if err := e.scanOptionalEquals(); err != nil {
			return err
		}
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		if p.Op == expr.OpCatcode {
			if n < 0 || n > int32(token.MaxCategory) {
				return e.fail(SyntaxError, c.tok, "invalid code (%d), should be in the range 0..15", n)
			}
			e.set(eqtb.Key{Space: eqtb.Catcode, N: int(r)}, token.Category(n), global)
			return nil
		}
		if n < 0 || n > 32767 {
			return e.fail(SyntaxError, c.tok, "invalid code (%d), should be in the range 0..32767", n)
		}
		e.set(eqtb.Key{Space: eqtb.SFCode, N: int(r)}, n, global)
		return nil

	case expr.OpSetbox:
		n, err := e.scanRegisterNum(c.tok)
		if err != nil {
			return err
		}
		if err := e.scanOptionalEquals(); err != nil {
			return err
		}
		return e.scanBox(c.tok, boxTarget{setbox: true, reg: n, global: global})

	case expr.OpBoxDimen:
		n, err := e.scanRegisterNum(c.tok)
		if err != nil {
			return err
		}
		if err := e.scanOptionalEquals(); err != nil {
			return err
		}
		d, err := e.scanDimen()
		if err != nil {
			return err
		}
		b := e.boxReg(n)
		if b == nil {
			return nil
		}
		w, h, dp := b.Width, b.Height, b.Depth
		switch p.Name {
		case "wd":
			w = d
		case "ht":
			h = d
		default:
			dp = d
		}
		k := eqtb.Key{Space: eqtb.Box, N: n}
		nb := b.Resized(w, h, dp)
		e.tab.Poke(k, nb)
		e.emit(Event{Kind: Assignment, Key: k, Old: b, New: nb})
		return nil

	case expr.OpFont:
		return e.newFont(c, global)
	}
	return e.fail(SyntaxError, c.tok, "%s is not an assignment", c.tok)
}

// getRToken reads the control sequence or active character being
// defined.
func (e *Engine) getRToken(t token.Token) (token.Token, error) {
	u, err := e.nextNonBlank()
	if err != nil {
		return u, e.eofError(err, t)
	}
	if !u.IsCS() && !u.IsActive() {
		return u, e.fail(SyntaxError, u, "missing control sequence inserted")
	}
	return u, nil
}

// assignValue reads an optional equals sign and a value of k's kind.
func (e *Engine) assignValue(c cmd, k eqtb.Key, global bool) error {
	if err := e.scanOptionalEquals(); err != nil {
		return err
	}
	var v any
	var err error
	switch e.tab.Get(k).(type) {
	case int32:
		v, err = e.scanInt()
	case dimen.Dimen:
		v, err = e.scanDimen()
	case dimen.Glue:
		v, err = e.scanGlue()
	default:
		return e.fail(TypeMismatch, c.tok, "%s is not a numeric quantity", k)
	}
	if err != nil {
		return err
	}
	e.set(k, v, global)
	return nil
}

// registerOf reads the target of \advance, \multiply or \divide.
func (e *Engine) registerOf(c cmd) (eqtb.Key, error) {
	switch d := c.def.(type) {
	case expr.RegisterDef:
		return eqtb.Key{Space: d.Space, N: d.N}, nil
	case expr.Primitive:
		switch d.Op {
		case expr.OpCount, expr.OpDimen, expr.OpSkip:
			return e.scanRegisterKey(c.tok, d.Op)
		case expr.OpIntParam, expr.OpDimenParam, expr.OpGlueParam:
			return paramKey(d), nil
		}
	}
	return eqtb.Key{}, e.fail(TypeMismatch, c.tok, "you can't use %s after an arithmetic command", describe(c.tok))
}

func (e *Engine) arithmetic(c cmd, op expr.Op, global bool) error {
	r, err := e.getXNonBlankNonRelax()
	if err != nil {
		return e.eofError(err, c.tok)
	}
	k, err := e.registerOf(r)
	if err != nil {
		return err
	}
	if _, err := e.scanKeyword("by"); err != nil {
		return err
	}
	overflow := func() error {
		return e.fail(SyntaxError, c.tok, "arithmetic overflow")
	}

	var v any
	cur := e.tab.Get(k)
	if op == expr.OpAdvance {
		switch x := cur.(type) {
		case int32:
			n, err := e.scanInt()
			if err != nil {
				return err
			}
			s := int64(x) + int64(n)
			if s > math.MaxInt32 || s < -math.MaxInt32 {
				return overflow()
			}
			v = int32(s)
		case dimen.Dimen:
			d, err := e.scanDimen()
			if err != nil {
				return err
			}
			s := int64(x) + int64(d)
			if s > int64(dimen.MaxDimen) || s < -int64(dimen.MaxDimen) {
				return overflow()
			}
			v = dimen.Dimen(s)
		case dimen.Glue:
			g, err := e.scanGlue()
			if err != nil {
				return err
			}
			v = addGlue(x, g)
		}
	} else {
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		if op == expr.OpDivide && n == 0 {
			return overflow()
		}
		apply := func(x int64, limit int64) (int64, bool) {
			if op == expr.OpDivide {
				return x / int64(n), true
			}
			p := x * int64(n)
			return p, p <= limit && p >= -limit
		}
		switch x := cur.(type) {
		case int32:
			p, ok := apply(int64(x), math.MaxInt32)
			if !ok {
				return overflow()
			}
			v = int32(p)
		case dimen.Dimen:
			p, ok := apply(int64(x), int64(dimen.MaxDimen))
			if !ok {
				return overflow()
			}
			v = dimen.Dimen(p)
		case dimen.Glue:
			var parts [3]int64
			for i, d := range []dimen.Dimen{x.Width, x.Stretch, x.Shrink} {
				p, ok := apply(int64(d), int64(dimen.MaxDimen))
				if !ok {
					return overflow()
				}
				parts[i] = p
			}
			x.Width, x.Stretch, x.Shrink = dimen.Dimen(parts[0]), dimen.Dimen(parts[1]), dimen.Dimen(parts[2])
			v = x
		}
	}
	e.set(k, v, global)
	return nil
}

// addGlue adds glue b to a; a component of higher order absorbs one of
// lower order.
func addGlue(a, b dimen.Glue) dimen.Glue {
	a.Width += b.Width
	switch {
	case a.StretchOrder == b.StretchOrder:
		a.Stretch += b.Stretch
	case a.StretchOrder < b.StretchOrder && b.Stretch != 0:
		a.Stretch, a.StretchOrder = b.Stretch, b.StretchOrder
	}
	switch {
	case a.ShrinkOrder == b.ShrinkOrder:
		a.Shrink += b.Shrink
	case a.ShrinkOrder < b.ShrinkOrder && b.Shrink != 0:
		a.Shrink, a.ShrinkOrder = b.Shrink, b.ShrinkOrder
	}
	if a.Stretch == 0 {
		a.StretchOrder = dimen.Normal
	}
	if a.Shrink == 0 {
		a.ShrinkOrder = dimen.Normal
	}
	return a
}

// newFont implements \font\cs=name [at <dimen> | scaled <number>].
func (e *Engine) newFont(c cmd, global bool) error {
	t, err := e.getRToken(c.tok)
	if err != nil {
		return err
	}
	e.set(meaningKey(t), relax, global)
	if err := e.scanOptionalEquals(); err != nil {
		return err
	}
	name, err := e.scanFileName(c.tok)
	if err != nil {
		return err
	}
	if r, ok := e.metrics.(font.Resolver); ok && !r.Resolve(name) {
		return e.fail(SyntaxError, t, "font %s=%s not loadable: metric file not found", t, name)
	}
	size := dimen.Pt(10)
	if ok, err := e.scanKeyword("at"); err != nil {
		return err
	} else if ok {
		if size, err = e.scanDimen(); err != nil {
			return err
		}
		if size <= 0 || size >= dimen.Pt(2048) {
			return e.fail(SyntaxError, c.tok, "improper `at' size (%s), replaced by 10pt", size)
		}
	} else if ok, err := e.scanKeyword("scaled"); err != nil {
		return err
	} else if ok {
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		if n <= 0 || n > 32768 {
			return e.fail(SyntaxError, c.tok, "illegal magnification has been changed to 1000 (%d)", n)
		}
		size = xnOverD(size, n, 1000)
	}
	e.set(meaningKey(t), expr.FontDef{Font: font.Font{Name: name, Size: size}}, global)
	return nil
}

// scanFileName reads characters up to a blank or a non-character.
func (e *Engine) scanFileName(t token.Token) (string, error) {
	c, err := e.getXNonBlank()
	var sb strings.Builder
	for err == nil {
		tok, ok := charOf(c)
		if !ok || c.tok.IsCS() || tok.IsSpace() {
			break
		}
		sb.WriteRune(tok.Rune)
		c, err = e.getX()
	}
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == nil && !isSpace(c) {
		e.backCmd(c)
	}
	if sb.Len() == 0 {
		return "", e.fail(SyntaxError, t, "missing font name")
	}
	return sb.String(), nil
}

// scanMacro reads a parameter text and a replacement text. With expand
// set (\edef, \xdef) the replacement text is expanded as it is read.
func (e *Engine) scanMacro(name token.Token, expand bool) (*expr.Macro, error) {
	m := &expr.Macro{}
	n := 0
	braceDelimited := false
	var open token.Token
params:
	for {
		t, _, err := e.next()
		if err != nil {
			return nil, e.defEOF(err, name)
		}
		switch {
		case t.Is(token.BeginGroup):
			open = t
			break params
		case t.Is(token.EndGroup):
			return nil, e.fail(SyntaxError, t, "missing { inserted")
		case t.Is(token.Parameter):
			u, _, err := e.next()
			if err != nil {
				return nil, e.defEOF(err, name)
			}
			if u.Is(token.BeginGroup) {
				braceDelimited = true
				open = u
				m.Params = append(m.Params, expr.Elem{Tok: u})
				break params
			}
			if n == 9 {
				return nil, e.fail(SyntaxError, u, "you already have nine parameters")
			}
			if !u.Is(token.Other) || u.Rune != rune('1'+n) {
				return nil, e.fail(SyntaxError, u, "parameters must be numbered consecutively")
			}
			n++
			m.Params = append(m.Params, expr.Elem{Param: n})
		default:
			m.Params = append(m.Params, expr.Elem{Tok: t})
		}
	}

	level := 1
	for {
		t, frozen, err := e.next()
		if err != nil {
			return nil, e.defEOF(err, name)
		}
		if expand && !frozen {
			d := e.meaning(t)
			if _, ok := d.(expr.Undefined); ok {
				return nil, e.fail(UndefinedControlSequence, t, "undefined control sequence %s", t)
			}
			if p, ok := d.(expr.Primitive); ok && p.Op == expr.OpThe {
				l, err := e.theToks()
				if err != nil {
					return nil, err
				}
				for _, u := range l {
					m.Body = append(m.Body, expr.Elem{Tok: u})
				}
				continue
			}
			if d.Expandable() {
				if err := e.expand(t, d); err != nil {
					return nil, err
				}
				continue
			}
		}
		switch {
		case t.Is(token.BeginGroup):
			level++
		case t.Is(token.EndGroup):
			level--
			if level == 0 {
				if braceDelimited {
					m.Body = append(m.Body, expr.Elem{Tok: open})
				}
				return m, nil
			}
		case t.Is(token.Parameter):
			u, _, err := e.next()
			if err != nil {
				return nil, e.defEOF(err, name)
			}
			if u.Is(token.Parameter) {
				m.Body = append(m.Body, expr.Elem{Tok: u})
				continue
			}
			k := int(u.Rune - '0')
			if !u.Is(token.Other) || k < 1 || k > n {
				return nil, e.fail(SyntaxError, u, "illegal parameter number in definition of %s", name)
			}
			m.Body = append(m.Body, expr.Elem{Param: k})
			continue
		}
		m.Body = append(m.Body, expr.Elem{Tok: t})
	}
}

func (e *Engine) defEOF(err error, name token.Token) error {
	if err == io.EOF {
		return e.fail(RunawayArgument, name, "file ended while scanning definition of %s", name)
	}
	return err
}

// scanToks reads a balanced text after a left brace, expanding it if
// asked, as \message does.
func (e *Engine) scanToks(t token.Token, expand bool) (token.List, error) {
	if err := e.scanLeftBrace(t); err != nil {
		return nil, err
	}
	var out token.List
	level := 1
	for {
		var u token.Token
		if expand {
			c, err := e.getX()
			if err != nil {
				return nil, e.defEOF(err, t)
			}
			u = c.tok
		} else {
			var err error
			if u, _, err = e.next(); err != nil {
				return nil, e.defEOF(err, t)
			}
		}
		switch {
		case u.Is(token.BeginGroup):
			level++
		case u.Is(token.EndGroup):
			level--
			if level == 0 {
				return out, nil
			}
		}
		out = append(out, u)
	}
}
