// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"io"
	"strconv"
	"unicode/utf8"

	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

// level is the kind of an internal quantity.
type level int

const (
	intLevel level = iota
	dimenLevel
	glueLevel
)

// value is an internal quantity. Dimensions are held in n, in sp.
type value struct {
	level level
	n     int32
	glue  dimen.Glue
}

func valueOf(v any) value {
	switch v := v.(type) {
	case int32:
		return value{level: intLevel, n: v}
	case dimen.Dimen:
		return value{level: dimenLevel, n: int32(v)}
	case dimen.Glue:
		return value{level: glueLevel, glue: v}
	}
	return value{}
}

// internalLevel reports whether c fetches an internal quantity, and of
// which kind, without reading anything.
func internalLevel(c cmd) (level, bool) {
	switch d := c.def.(type) {
	case expr.CharDef:
		return intLevel, true
	case expr.RegisterDef:
		switch d.Space {
		case eqtb.Dimen:
			return dimenLevel, true
		case eqtb.Skip:
			return glueLevel, true
		}
		return intLevel, true
	case expr.Primitive:
		switch d.Op {
		case expr.OpCount, expr.OpIntParam, expr.OpSpaceFactor, expr.OpCatcode, expr.OpSfcode:
			return intLevel, true
		case expr.OpDimen, expr.OpDimenParam, expr.OpPrevDepth, expr.OpBoxDimen:
			return dimenLevel, true
		case expr.OpSkip, expr.OpGlueParam:
			return glueLevel, true
		}
	}
	return 0, false
}

// scanInternal reads the rest of an internal quantity started by c.
func (e *Engine) scanInternal(c cmd) (value, error) {
	switch d := c.def.(type) {
	case expr.CharDef:
		return value{n: d.Code}, nil
	case expr.RegisterDef:
		return valueOf(e.tab.Get(eqtb.Key{Space: d.Space, N: d.N})), nil
	case expr.Primitive:
		switch d.Op {
		case expr.OpCount, expr.OpDimen, expr.OpSkip:
			k, err := e.scanRegisterKey(c.tok, d.Op)
			if err != nil {
				return value{}, err
			}
			return valueOf(e.tab.Get(k)), nil
		case expr.OpIntParam, expr.OpDimenParam, expr.OpGlueParam:
			return valueOf(e.tab.Get(paramKey(d))), nil
		case expr.OpSpaceFactor:
			if !e.mode().Horizontal() {
				return value{}, e.fail(ModeError, c.tok, "improper %s", c.tok)
			}
			return value{n: e.cur().spaceFactor}, nil
		case expr.OpPrevDepth:
			if !e.mode().Vertical() {
				return value{}, e.fail(ModeError, c.tok, "improper %s", c.tok)
			}
			return value{level: dimenLevel, n: int32(e.cur().prevDepth)}, nil
		case expr.OpCatcode:
			n, err := e.scanCharNum(c.tok)
			if err != nil {
				return value{}, err
			}
			return value{n: int32(e.Category(n))}, nil
		case expr.OpSfcode:
			n, err := e.scanCharNum(c.tok)
			if err != nil {
				return value{}, err
			}
			return valueOf(e.tab.Get(eqtb.Key{Space: eqtb.SFCode, N: int(n)})), nil
		case expr.OpBoxDimen:
			n, err := e.scanRegisterNum(c.tok)
			if err != nil {
				return value{}, err
			}
			v := value{level: dimenLevel}
			if b := e.boxReg(n); b != nil {
				switch d.Name {
				case "wd":
					v.n = int32(b.Width)
				case "ht":
					v.n = int32(b.Height)
				default:
					v.n = int32(b.Depth)
				}
			}
			return v, nil
		}
	}
	return value{}, e.fail(TypeMismatch, c.tok, "you can't use %s here", describe(c.tok))
}

func paramKey(p expr.Primitive) eqtb.Key {
	switch p.Op {
	case expr.OpIntParam:
		return eqtb.Key{Space: eqtb.IntPar, Name: p.Name}
	case expr.OpDimenParam:
		return eqtb.Key{Space: eqtb.DimenPar, Name: p.Name}
	}
	return eqtb.Key{Space: eqtb.GluePar, Name: p.Name}
}

// scanRegisterKey reads the register number following \count, \dimen
// or \skip.
func (e *Engine) scanRegisterKey(t token.Token, op expr.Op) (eqtb.Key, error) {
	n, err := e.scanRegisterNum(t)
	if err != nil {
		return eqtb.Key{}, err
	}
	sp := eqtb.Count
	switch op {
	case expr.OpDimen:
		sp = eqtb.Dimen
	case expr.OpSkip:
		sp = eqtb.Skip
	}
	return eqtb.Key{Space: sp, N: n}, nil
}

func (e *Engine) missingNumber(err error) error {
	if err == io.EOF {
		return e.fail(SyntaxError, e.last, "missing number, treated as zero")
	}
	return err
}

// notNumber reports c where a number was required.
func (e *Engine) notNumber(c cmd) error {
	switch d := c.def.(type) {
	case expr.FontDef:
		return e.fail(TypeMismatch, c.tok, "a font is not a number")
	case expr.Primitive:
		switch d.Op {
		case expr.OpBox, expr.OpCopy, expr.OpHbox, expr.OpVbox, expr.OpSetbox, expr.OpFont:
			return e.fail(TypeMismatch, c.tok, "you can't use %s where a number is required", c.tok)
		}
	}
	return e.fail(SyntaxError, c.tok, "missing number, treated as zero")
}

// scanSigns skips blanks and signs and returns the first other command.
func (e *Engine) scanSigns() (cmd, bool, error) {
	neg := false
	for {
		c, err := e.getX()
		if err != nil {
			return cmd{}, false, e.missingNumber(err)
		}
		switch {
		case isSpace(c), isOther(c, '+'):
		case isOther(c, '-'):
			neg = !neg
		default:
			return c, neg, nil
		}
	}
}

func (e *Engine) scanInt() (int32, error) {
	c, neg, err := e.scanSigns()
	if err != nil {
		return 0, err
	}
	n, err := e.scanIntAfter(c)
	if neg {
		n = -n
	}
	return n, err
}

// scanIntAfter reads an unsigned integer whose first command is c.
func (e *Engine) scanIntAfter(c cmd) (int32, error) {
	if isOther(c, '`') {
		t, _, err := e.next()
		if err != nil {
			return 0, e.missingNumber(err)
		}
		var code rune
		switch {
		case !t.IsCS():
			code = t.Rune
		case utf8.RuneCountInString(t.Name) == 1:
			code, _ = utf8.DecodeRuneInString(t.Name)
		default:
			return 0, e.fail(SyntaxError, t, "improper alphabetic constant")
		}
		return int32(code), e.skipOptionalSpace()
	}
	if lvl, ok := internalLevel(c); ok {
		v, err := e.scanInternal(c)
		if lvl == glueLevel {
			return int32(v.glue.Width), err
		}
		return v.n, err
	}

	radix := int64(10)
	var err error
	switch {
	case isOther(c, '\''):
		radix = 8
		c, err = e.getX()
	case isOther(c, '"'):
		radix = 16
		c, err = e.getX()
	}
	var acc int64
	digits := 0
	for err == nil {
		d, ok := digitValue(c, radix)
		if !ok {
			break
		}
		acc = acc*radix + d
		digits++
		if acc > 1<<31-1 {
			return 0, e.fail(SyntaxError, c.tok, "number too big")
		}
		c, err = e.getX()
	}
	if err != nil && err != io.EOF {
		return 0, err
	}
	if digits == 0 {
		if err == io.EOF {
			return 0, e.missingNumber(err)
		}
		return 0, e.notNumber(c)
	}
	if err == nil && !isSpace(c) {
		e.backCmd(c)
	}
	return int32(acc), nil
}

func digitValue(c cmd, radix int64) (int64, bool) {
	if c.frozen || c.tok.IsCS() {
		return 0, false
	}
	r := c.tok.Rune
	switch {
	case c.tok.Is(token.Other) && r >= '0' && r <= '9':
		if v := int64(r - '0'); v < radix {
			return v, true
		}
	case radix == 16 && (c.tok.Is(token.Other) || c.tok.Is(token.Letter)) && r >= 'A' && r <= 'F':
		return int64(r-'A') + 10, true
	}
	return 0, false
}

// scanDecimal reads digits with an optional decimal point or comma,
// starting at c.
func (e *Engine) scanDecimal(c cmd) (whole, frac int32, err error) {
	var acc int64
	digits := 0
	for err == nil {
		d, ok := digitValue(c, 10)
		if !ok {
			break
		}
		acc = acc*10 + d
		digits++
		if acc > 1<<31-1 {
			return 0, 0, e.fail(SyntaxError, c.tok, "number too big")
		}
		c, err = e.getX()
	}
	if err == nil && (isOther(c, '.') || isOther(c, ',')) {
		var ds []int
		for {
			c, err = e.getX()
			if err != nil {
				break
			}
			d, ok := digitValue(c, 10)
			if !ok {
				break
			}
			ds = append(ds, int(d))
		}
		frac = dimen.RoundDecimals(ds)
		digits++
	}
	if err != nil && err != io.EOF {
		return 0, 0, err
	}
	if digits == 0 {
		if err == io.EOF {
			return 0, 0, e.missingNumber(err)
		}
		return 0, 0, e.notNumber(c)
	}
	if err == nil && !isSpace(c) {
		e.backCmd(c)
	}
	return int32(acc), frac, nil
}

func (e *Engine) scanDimen() (dimen.Dimen, error) {
	d, _, err := e.scanDimenOrder(false)
	return d, err
}

// scanDimenOrder reads a dimension; with fil set, infinite units are
// accepted and their order returned.
func (e *Engine) scanDimenOrder(fil bool) (dimen.Dimen, dimen.Order, error) {
	c, neg, err := e.scanSigns()
	if err != nil {
		return 0, 0, err
	}
	return e.scanDimenAfter(c, neg, fil)
}

func (e *Engine) scanDimenAfter(c cmd, neg, fil bool) (dimen.Dimen, dimen.Order, error) {
	var whole, frac int32
	var err error
	if lvl, ok := internalLevel(c); ok {
		v, err := e.scanInternal(c)
		if err != nil {
			return 0, 0, err
		}
		if lvl != intLevel {
			d := dimen.Dimen(v.n)
			if lvl == glueLevel {
				d = v.glue.Width
			}
			if neg {
				d = -d
			}
			return d, dimen.Normal, nil
		}
		whole = v.n
	} else if isOther(c, '`') || isOther(c, '\'') || isOther(c, '"') {
		whole, err = e.scanIntAfter(c)
	} else {
		whole, frac, err = e.scanDecimal(c)
	}
	if err != nil {
		return 0, 0, err
	}
	if whole < 0 {
		neg = !neg
		whole = -whole
	}
	d, order, err := e.scanUnits(whole, frac, fil)
	if neg {
		d = -d
	}
	return d, order, err
}

var physicalUnits = []string{"in", "pc", "cm", "mm", "bp", "dd", "cc"}

// scanUnits reads the unit of measure after a number.
func (e *Engine) scanUnits(whole, frac int32, fil bool) (dimen.Dimen, dimen.Order, error) {
	if fil {
		ok, err := e.scanKeyword("fil")
		if err != nil {
			return 0, 0, err
		}
		if ok {
			order := dimen.Fil
			for {
				ok, err := e.scanKeyword("l")
				if err != nil {
					return 0, 0, err
				}
				if !ok {
					break
				}
				if order == dimen.Filll {
					return 0, 0, e.fail(SyntaxError, e.last, "illegal unit of measure (replaced by filll)")
				}
				order++
			}
			d, err := e.attach(whole, frac)
			if err != nil {
				return 0, 0, err
			}
			return d, order, e.skipOptionalSpace()
		}
	}

	c, err := e.getXNonBlank()
	if err != nil && err != io.EOF {
		return 0, 0, err
	}
	if err == nil {
		if lvl, ok := internalLevel(c); ok && lvl != intLevel {
			v, err := e.scanInternal(c)
			if err != nil {
				return 0, 0, err
			}
			u := dimen.Dimen(v.n)
			if lvl == glueLevel {
				u = v.glue.Width
			}
			d, ok := dimen.ScaleBy(u, whole, frac)
			if !ok {
				return 0, 0, e.fail(SyntaxError, c.tok, "dimension too large")
			}
			return d, dimen.Normal, nil
		}
		e.backCmd(c)
	}

	for _, kw := range []string{"em", "ex"} {
		ok, err := e.scanKeyword(kw)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			continue
		}
		f := e.curFont()
		u := f.Size
		if kw == "ex" {
			u = f.Size * 43 / 100
			if _, h, _, ok := e.metrics.Metrics(f, 'x'); ok {
				u = h
			}
		}
		d, ok := dimen.ScaleBy(u, whole, frac)
		if !ok {
			return 0, 0, e.fail(SyntaxError, e.last, "dimension too large")
		}
		return d, dimen.Normal, e.skipOptionalSpace()
	}

	if _, err := e.scanKeyword("true"); err != nil {
		return 0, 0, err
	}
	var d dimen.Dimen
	if ok, err := e.scanKeyword("pt"); err != nil {
		return 0, 0, err
	} else if ok {
		if d, err = e.attach(whole, frac); err != nil {
			return 0, 0, err
		}
		return d, dimen.Normal, e.skipOptionalSpace()
	}
	for _, kw := range physicalUnits {
		ok, err := e.scanKeyword(kw)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			d, ok := dimen.Scale(whole, frac, dimen.Units[kw])
			if !ok {
				return 0, 0, e.fail(SyntaxError, e.last, "dimension too large")
			}
			return d, dimen.Normal, e.skipOptionalSpace()
		}
	}
	if ok, err := e.scanKeyword("sp"); err != nil {
		return 0, 0, err
	} else if ok {
		if dimen.Dimen(whole) > dimen.MaxDimen {
			return 0, 0, e.fail(SyntaxError, e.last, "dimension too large")
		}
		return dimen.Dimen(whole), dimen.Normal, e.skipOptionalSpace()
	}
	return 0, 0, e.fail(SyntaxError, e.last, "illegal unit of measure")
}

func (e *Engine) attach(whole, frac int32) (dimen.Dimen, error) {
	if whole >= 1<<14 {
		return 0, e.fail(SyntaxError, e.last, "dimension too large")
	}
	return dimen.Dimen(whole)*dimen.Unity + dimen.Dimen(frac), nil
}

// scanGlue reads a glue specification.
func (e *Engine) scanGlue() (dimen.Glue, error) {
	c, neg, err := e.scanSigns()
	if err != nil {
		return dimen.Glue{}, err
	}
	if lvl, ok := internalLevel(c); ok && lvl == glueLevel {
		v, err := e.scanInternal(c)
		g := v.glue
		if neg {
			g.Width, g.Stretch, g.Shrink = -g.Width, -g.Stretch, -g.Shrink
		}
		return g, err
	}
	w, _, err := e.scanDimenAfter(c, neg, false)
	if err != nil {
		return dimen.Glue{}, err
	}
	g := dimen.Glue{Width: w}
	if ok, err := e.scanKeyword("plus"); err != nil {
		return g, err
	} else if ok {
		if g.Stretch, g.StretchOrder, err = e.scanDimenOrder(true); err != nil {
			return g, err
		}
	}
	if ok, err := e.scanKeyword("minus"); err != nil {
		return g, err
	} else if ok {
		if g.Shrink, g.ShrinkOrder, err = e.scanDimenOrder(true); err != nil {
			return g, err
		}
	}
	return g, nil
}

// scanKeyword matches kw (lowercase) case-insensitively against the
// expanded input. On a mismatch everything read after leading blanks is
// put back.
func (e *Engine) scanKeyword(kw string) (bool, error) {
	var matched token.List
	for i := 0; i < len(kw); {
		c, err := e.getX()
		if err == io.EOF {
			e.backList(matched)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !c.frozen && !c.tok.IsCS() && !c.tok.IsActive() {
			r := c.tok.Rune
			if r == rune(kw[i]) || r == rune(kw[i])-'a'+'A' {
				matched = append(matched, c.tok)
				i++
				continue
			}
		}
		if isSpace(c) && len(matched) == 0 {
			continue
		}
		e.backCmd(c)
		e.backList(matched)
		return false, nil
	}
	return true, nil
}

func (e *Engine) skipOptionalSpace() error {
	c, err := e.getX()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if !isSpace(c) {
		e.backCmd(c)
	}
	return nil
}

func (e *Engine) scanOptionalEquals() error {
	c, err := e.getXNonBlank()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if !isOther(c, '=') {
		e.backCmd(c)
	}
	return nil
}

// scanRegisterNum reads a register number for the command t.
func (e *Engine) scanRegisterNum(t token.Token) (int, error) {
	n, err := e.scanInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, e.fail(RegisterOutOfRange, t, "bad register code (%d)", n)
	}
	return int(n), nil
}

func (e *Engine) scanCharNum(t token.Token) (rune, error) {
	n, err := e.scanInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > utf8.MaxRune {
		return 0, e.fail(SyntaxError, t, "bad character code (%d)", n)
	}
	return rune(n), nil
}

func (e *Engine) scanLeftBrace(t token.Token) error {
	c, err := e.getXNonBlankNonRelax()
	if err == io.EOF {
		return e.fail(SyntaxError, t, "missing { inserted")
	}
	if err != nil {
		return err
	}
	if tok, ok := charOf(c); !ok || !tok.Is(token.BeginGroup) {
		return e.fail(SyntaxError, c.tok, "missing { inserted")
	}
	return nil
}

// theToks implements \the: the printed value of an internal quantity.
func (e *Engine) theToks() (token.List, error) {
	c, err := e.getX()
	if err != nil {
		return nil, e.missingNumber(err)
	}
	if _, ok := c.def.(expr.FontDef); ok {
		return token.List{c.tok}, nil
	}
	lvl, ok := internalLevel(c)
	if !ok {
		return nil, e.fail(TypeMismatch, c.tok, "you can't use %s after \\the", describe(c.tok))
	}
	v, err := e.scanInternal(c)
	if err != nil {
		return nil, err
	}
	switch lvl {
	case intLevel:
		return token.FromString(strconv.Itoa(int(v.n))), nil
	case dimenLevel:
		return token.FromString(dimen.Dimen(v.n).String()), nil
	}
	return token.FromString(v.glue.String()), nil
}
