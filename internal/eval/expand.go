// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"strconv"
	"strings"

	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

// expand performs one expansion step on t, whose meaning d is expandable.
func (e *Engine) expand(t token.Token, d expr.Def) error {
	e.expansions++
	if e.maxExpansions > 0 && e.expansions > e.maxExpansions {
		return e.fail(ResourceExhausted, t, "expansion limit %d exceeded", e.maxExpansions)
	}
	switch d := d.(type) {
	case *expr.Macro:
		return e.macroCall(t, d)
	case expr.Primitive:
		tracer().Debugf("expand %s", t)
		switch {
		case d.Op.IsConditional():
			return e.conditional(t, d.Op)
		case d.Op == expr.OpFi || d.Op == expr.OpElse || d.Op == expr.OpOr:
			return e.condEnd(t, d.Op)
		}
		return e.expandPrimitive(t, d.Op)
	}
	return nil
}

func (e *Engine) expandPrimitive(t token.Token, op expr.Op) error {
	var out token.List
	switch op {
	case expr.OpExpandAfter:
		first, ffrozen, err := e.next()
		if err != nil {
			return e.eofError(err, t)
		}
		second, sfrozen, err := e.next()
		if err != nil {
			return e.eofError(err, t)
		}
		e.emitPrimitive(t, token.List{first, second})
		d := e.meaning(second)
		if !sfrozen && d.Expandable() {
			if err := e.expand(second, d); err != nil {
				return err
			}
		} else {
			e.back(second, sfrozen)
		}
		e.back(first, ffrozen)
		return nil

	case expr.OpNoExpand:
		u, frozen, err := e.next()
		if err != nil {
			return e.eofError(err, t)
		}
		// undefined control sequences count as expandable here
		d := e.meaning(u)
		_, undefined := d.(expr.Undefined)
		e.back(u, frozen || undefined || d.Expandable())
		e.emitPrimitive(t, token.List{u})
		return nil

	case expr.OpCsname:
		var sb strings.Builder
		for {
			c, err := e.getX()
			if err != nil {
				return e.eofError(err, t)
			}
			if isOp(c, expr.OpEndcsname) {
				break
			}
			if c.tok.IsCS() || c.frozen {
				return e.fail(SyntaxError, c.tok, "missing \\endcsname inserted")
			}
			sb.WriteRune(c.tok.Rune)
		}
		cs := token.NewCS(sb.String())
		if _, ok := e.meaning(cs).(expr.Undefined); ok {
			e.set(meaningKey(cs), relax, false)
		}
		e.back(cs, false)
		e.emitPrimitive(t, token.List{cs})
		return nil

	case expr.OpString:
		u, _, err := e.next()
		if err != nil {
			return e.eofError(err, t)
		}
		out = token.FromString(e.printToken(u))

	case expr.OpNumber:
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		out = token.FromString(strconv.Itoa(int(n)))

	case expr.OpRomannumeral:
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		out = token.FromString(roman(int(n)))

	case expr.OpThe:
		l, err := e.theToks()
		if err != nil {
			return err
		}
		out = l

	case expr.OpMeaning:
		u, frozen, err := e.next()
		if err != nil {
			return e.eofError(err, t)
		}
		m := e.meaning(u)
		if frozen {
			m = relax
		}
		out = token.FromString(m.String())

	case expr.OpJobname:
		out = token.FromString(e.jobName)
	}
	e.emitPrimitive(t, out)
	return e.push(out, t)
}

func (e *Engine) emitPrimitive(t token.Token, result token.List) {
	e.emit(Event{Kind: PrimitiveExpanded, Token: t, Name: t.String(), Result: result})
}

// printToken renders a token the way \string does, honoring \escapechar.
func (e *Engine) printToken(t token.Token) string {
	if !t.IsCS() {
		return string(t.Rune)
	}
	if esc := e.intParam("escapechar"); esc >= 0 && esc <= 0x10FFFF {
		return string(rune(esc)) + t.Name
	}
	return t.Name
}

// roman renders n in lowercase roman numerals; n <= 0 yields nothing.
func roman(n int) string {
	var sb strings.Builder
	for n >= 1000 {
		sb.WriteByte('m')
		n -= 1000
	}
	digits := []struct {
		v int
		s string
	}{
		{900, "cm"}, {500, "d"}, {400, "cd"}, {100, "c"},
		{90, "xc"}, {50, "l"}, {40, "xl"}, {10, "x"},
		{9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
	}
	for _, d := range digits {
		for n >= d.v {
			sb.WriteString(d.s)
			n -= d.v
		}
	}
	return sb.String()
}
