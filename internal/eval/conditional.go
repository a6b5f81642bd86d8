// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"io"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

// limit is what may legally end the innermost conditional.
type limit int

const (
	inTest    limit = iota + 1 // the condition is still being evaluated
	fiOnly                     // in the false branch: only \fi
	elseOrFi                   // in the true branch: \else or \fi
	orElseFi                   // in an \ifcase case: \or, \else or \fi
)

type cond struct {
	limit limit
	tok   token.Token
	line  int
}

// opLimit orders \fi, \else and \or against the limits: a terminator is
// legal if its rank does not exceed the current limit.
func opLimit(op expr.Op) limit {
	switch op {
	case expr.OpFi:
		return fiOnly
	case expr.OpElse:
		return elseOrFi
	}
	return orElseFi
}

// conditional evaluates an \if-type primitive and positions the input at
// the start of the selected branch.
func (e *Engine) conditional(t token.Token, op expr.Op) error {
	c := cond{limit: inTest, tok: t}
	if e.scan != nil {
		c.line = e.scan.Line()
	}
	e.conds = append(e.conds, c)
	idx := len(e.conds) - 1

	if op == expr.OpIfCase {
		n, err := e.scanInt()
		if err != nil {
			return err
		}
		e.emit(Event{Kind: PrimitiveExpanded, Token: t, Name: t.String(), Case: n})
		for n != 0 {
			term, err := e.passText(t)
			if err != nil {
				return err
			}
			if len(e.conds)-1 != idx {
				if term == expr.OpFi {
					e.conds = e.conds[:len(e.conds)-1]
				}
				continue
			}
			switch term {
			case expr.OpOr:
				n--
			case expr.OpElse:
				e.conds[idx].limit = fiOnly
				return nil
			default:
				e.conds = e.conds[:idx]
				return nil
			}
		}
		e.conds[idx].limit = orElseFi
		return nil
	}

	b, err := e.test(t, op)
	if err != nil {
		return err
	}
	tracer().Debugf("%s: %v", t, b)
	e.emit(Event{Kind: PrimitiveExpanded, Token: t, Name: t.String(), Cond: b})
	if b {
		e.conds[idx].limit = elseOrFi
		return nil
	}
	for {
		term, err := e.passText(t)
		if err != nil {
			return err
		}
		if len(e.conds)-1 != idx {
			if term == expr.OpFi {
				e.conds = e.conds[:len(e.conds)-1]
			}
			continue
		}
		switch term {
		case expr.OpFi:
			e.conds = e.conds[:idx]
			return nil
		case expr.OpElse:
			e.conds[idx].limit = fiOnly
			return nil
		default:
			return e.fail(UnmatchedConditional, t, "extra \\or")
		}
	}
}

// passText skips tokens without expanding them until an \else, \or or
// \fi at nesting level zero, and returns which one it found.
func (e *Engine) passText(t token.Token) (expr.Op, error) {
	level := 0
	for {
		u, _, err := e.next()
		if err == io.EOF {
			return 0, e.fail(UnmatchedConditional, t, "incomplete %s; all text was ignored after line %d", t, e.conds[len(e.conds)-1].line)
		}
		if err != nil {
			return 0, err
		}
		p, ok := e.meaning(u).(expr.Primitive)
		if !ok {
			continue
		}
		switch {
		case p.Op.IsConditional():
			level++
		case p.Op == expr.OpFi:
			if level == 0 {
				return p.Op, nil
			}
			level--
		case p.Op == expr.OpElse || p.Op == expr.OpOr:
			if level == 0 {
				return p.Op, nil
			}
		}
	}
}

// condEnd handles \fi, \else or \or met during expansion.
func (e *Engine) condEnd(t token.Token, op expr.Op) error {
	if len(e.conds) == 0 {
		return e.fail(UnmatchedConditional, t, "extra %s", t)
	}
	top := &e.conds[len(e.conds)-1]
	if opLimit(op) > top.limit {
		if top.limit == inTest {
			// the condition is incomplete: let a \relax end it first
			e.back(t, false)
			e.back(token.NewCS("relax"), true)
			e.emitPrimitive(t, token.List{token.NewCS("relax"), t})
			return nil
		}
		return e.fail(UnmatchedConditional, t, "extra %s", t)
	}
	for op != expr.OpFi {
		var err error
		if op, err = e.passText(t); err != nil {
			return err
		}
	}
	e.conds = e.conds[:len(e.conds)-1]
	e.emitPrimitive(t, nil)
	return nil
}

// test evaluates the condition of op.
func (e *Engine) test(t token.Token, op expr.Op) (bool, error) {
	switch op {
	case expr.OpIfTrue:
		return true, nil
	case expr.OpIfFalse:
		return false, nil

	case expr.OpIfChar, expr.OpIfCat:
		a, err := e.getX()
		if err != nil {
			return false, e.eofError(err, t)
		}
		b, err := e.getX()
		if err != nil {
			return false, e.eofError(err, t)
		}
		ca, ka := charCode(a)
		cb, kb := charCode(b)
		if op == expr.OpIfChar {
			return ca == cb, nil
		}
		return ka == kb, nil

	case expr.OpIfNum:
		a, err := e.scanInt()
		if err != nil {
			return false, err
		}
		rel, err := e.scanRelation(t)
		if err != nil {
			return false, err
		}
		b, err := e.scanInt()
		if err != nil {
			return false, err
		}
		return compare(int64(a), int64(b), rel), nil

	case expr.OpIfDim:
		a, err := e.scanDimen()
		if err != nil {
			return false, err
		}
		rel, err := e.scanRelation(t)
		if err != nil {
			return false, err
		}
		b, err := e.scanDimen()
		if err != nil {
			return false, err
		}
		return compare(int64(a), int64(b), rel), nil

	case expr.OpIfOdd:
		n, err := e.scanInt()
		if err != nil {
			return false, err
		}
		return n%2 != 0, nil

	case expr.OpIfX:
		a, af, err := e.next()
		if err != nil {
			return false, e.eofError(err, t)
		}
		b, bf, err := e.next()
		if err != nil {
			return false, e.eofError(err, t)
		}
		da, db := e.meaning(a), e.meaning(b)
		if af {
			da = relax
		}
		if bf {
			db = relax
		}
		return expr.Equal(da, db), nil

	case expr.OpIfVMode:
		return e.mode().Vertical(), nil
	case expr.OpIfHMode:
		return e.mode().Horizontal(), nil
	case expr.OpIfInner:
		m := e.mode()
		return m == InternalVertical || m == RestrictedHorizontal, nil

	case expr.OpIfVoid, expr.OpIfHBox, expr.OpIfVBox:
		n, err := e.scanRegisterNum(t)
		if err != nil {
			return false, err
		}
		b := e.boxReg(n)
		switch op {
		case expr.OpIfVoid:
			return b == nil, nil
		case expr.OpIfHBox:
			return b != nil && b.Kind == box.HList, nil
		}
		return b != nil && b.Kind == box.VList, nil
	}
	return false, nil
}

// charCode returns the character code and category \if and \ifcat
// compare. Control sequences that are not implicit characters compare
// as code 256, category 16.
func charCode(c cmd) (rune, int) {
	if c.frozen && c.tok.IsActive() {
		return c.tok.Rune, int(token.Active)
	}
	if t, ok := charOf(c); ok {
		return t.Rune, int(t.Cat)
	}
	return 256, 16
}

func (e *Engine) scanRelation(t token.Token) (rune, error) {
	c, err := e.getXNonBlank()
	if err != nil {
		return 0, e.eofError(err, t)
	}
	for _, r := range "<=>" {
		if isOther(c, r) {
			return r, nil
		}
	}
	return 0, e.fail(SyntaxError, c.tok, "missing = inserted for %s", t)
}

func compare(a, b int64, rel rune) bool {
	switch rel {
	case '<':
		return a < b
	case '>':
		return a > b
	}
	return a == b
}
