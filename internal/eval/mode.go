// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"io"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/token"
)

// Mode is the box-construction context.
type Mode int

const (
	OuterVertical Mode = iota
	InternalVertical
	UnrestrictedHorizontal
	RestrictedHorizontal
)

func (m Mode) String() string {
	switch m {
	case OuterVertical:
		return "vertical"
	case InternalVertical:
		return "internal vertical"
	case UnrestrictedHorizontal:
		return "horizontal"
	case RestrictedHorizontal:
		return "restricted horizontal"
	}
	return "unknown"
}

// Vertical reports whether m builds a vertical list.
func (m Mode) Vertical() bool { return m == OuterVertical || m == InternalVertical }

// Horizontal reports whether m builds a horizontal list.
func (m Mode) Horizontal() bool { return !m.Vertical() }

// ignoreDepth as the previous depth suppresses interline glue.
const ignoreDepth = -1000 * dimen.Unity

// frame is one level of the mode stack.
type frame struct {
	mode        Mode
	list        []box.Item
	prevDepth   dimen.Dimen
	spaceFactor int32
}

func (e *Engine) cur() *frame {
	return e.nest[len(e.nest)-1]
}

func (e *Engine) mode() Mode {
	if len(e.nest) == 0 {
		return OuterVertical
	}
	return e.cur().mode
}

func (e *Engine) pushNest(m Mode) {
	from := e.mode()
	f := &frame{mode: m, prevDepth: ignoreDepth, spaceFactor: 1000}
	e.nest = append(e.nest, f)
	e.emit(Event{Kind: ModeChange, From: from, To: m})
}

func (e *Engine) popNest() *frame {
	f := e.cur()
	e.nest = e.nest[:len(e.nest)-1]
	e.emit(Event{Kind: ModeChange, From: f.mode, To: e.mode()})
	return f
}

func (e *Engine) appendItem(it box.Item) {
	f := e.cur()
	f.list = append(f.list, it)
}

// run is main control: it executes commands until the input ends or
// \end is seen.
func (e *Engine) run() error {
	for !e.done {
		c, err := e.getX()
		if err == io.EOF {
			return e.finish()
		}
		if err != nil {
			return err
		}
		if err := e.dispatch(c); err != nil {
			return err
		}
	}
	return nil
}

// finish checks that input ended cleanly and closes an open paragraph.
func (e *Engine) finish() error {
	if n := len(e.conds); n > 0 {
		c := e.conds[n-1]
		return e.fail(UnmatchedConditional, c.tok, "end of input inside %s from line %d", c.tok, c.line)
	}
	if e.tab.Depth() > 0 {
		return e.fail(UnmatchedGroup, token.Token{}, "end of input inside a group at level %d", e.tab.Depth())
	}
	if e.mode() == UnrestrictedHorizontal {
		return e.endParagraph()
	}
	return nil
}

func (e *Engine) dispatch(c cmd) error {
	e.emit(Event{Kind: TokenConsumed, Token: c.tok})
	switch d := c.def.(type) {
	case expr.CharLet:
		return e.charCmd(c, d.Tok)
	case expr.CharDef:
		return e.typeset(d.Code)
	case expr.FontDef, expr.RegisterDef:
		return e.prefixed(c)
	case expr.Primitive:
		if d.Op.IsPrefix() || d.Op.IsAssignment() {
			return e.prefixed(c)
		}
		return e.primitive(c, d)
	}
	return e.fail(UndefinedControlSequence, c.tok, "undefined control sequence %s", c.tok)
}

func (e *Engine) charCmd(c cmd, t token.Token) error {
	m := e.mode()
	switch t.Cat {
	case token.Letter, token.Other:
		return e.typeset(t.Rune)
	case token.Space:
		if m.Horizontal() {
			e.appendSpace()
		}
		return nil
	case token.BeginGroup:
		e.tab.Open(&group{kind: simpleGroup, tok: c.tok})
		return nil
	case token.EndGroup:
		return e.handleRightBrace(c)
	case token.MathShift:
		return e.fail(ModeError, c.tok, "math mode is not supported")
	case token.AlignTab:
		return e.fail(ModeError, c.tok, "misplaced alignment tab character %c", t.Rune)
	case token.Superscript, token.Subscript:
		return e.fail(ModeError, c.tok, "missing $ inserted")
	case token.Parameter:
		return e.fail(ModeError, c.tok, "you can't use macro parameter character %c in %s mode", t.Rune, m)
	}
	return nil
}

// typeset appends character code r, starting a paragraph if needed.
func (e *Engine) typeset(r rune) error {
	if e.mode().Vertical() {
		if err := e.newParagraph(true); err != nil {
			return err
		}
	}
	e.appendChar(r)
	return nil
}

// horizontalCmd starts a paragraph when c arrives in vertical mode, and
// reports whether c must be read again.
func (e *Engine) horizontalCmd(c cmd) (bool, error) {
	if !e.mode().Vertical() {
		return false, nil
	}
	e.backCmd(c)
	return true, e.newParagraph(true)
}

// verticalCmd ends the paragraph when c arrives in unrestricted
// horizontal mode, and reports whether c must be read again.
func (e *Engine) verticalCmd(c cmd) (bool, error) {
	switch e.mode() {
	case UnrestrictedHorizontal:
		e.backCmd(c)
		return true, e.endParagraph()
	case RestrictedHorizontal:
		return false, e.fail(ModeError, c.tok, "you can't use %s in %s mode", c.tok, RestrictedHorizontal)
	}
	return false, nil
}

func (e *Engine) primitive(c cmd, p expr.Primitive) error {
	switch p.Op {
	case expr.OpRelax:
		return nil

	case expr.OpPar:
		if e.mode() == UnrestrictedHorizontal {
			return e.endParagraph()
		}
		return nil

	case expr.OpEndcsname:
		return e.fail(SyntaxError, c.tok, "extra %s", c.tok)

	case expr.OpBeginGroup:
		e.tab.Open(&group{kind: semiSimpleGroup, tok: c.tok})
		return nil

	case expr.OpEndGroup:
		g, _ := e.tab.Top().(*group)
		if g == nil || g.kind != semiSimpleGroup {
			return e.fail(UnmatchedGroup, c.tok, "extra %s", c.tok)
		}
		_, err := e.tab.Close()
		return err

	case expr.OpHskip, expr.OpHglue:
		if again, err := e.horizontalCmd(c); again || err != nil {
			return err
		}
		return e.appendGlue(p)

	case expr.OpVskip, expr.OpVglue:
		if again, err := e.verticalCmd(c); again || err != nil {
			return err
		}
		return e.appendGlue(p)

	case expr.OpKern:
		d, err := e.scanDimen()
		if err != nil {
			return err
		}
		e.appendItem(box.Kern{Width: d})
		return nil

	case expr.OpHrule:
		if again, err := e.verticalCmd(c); again || err != nil {
			return err
		}
		r, err := e.scanRuleSpec(p.Op)
		if err != nil {
			return err
		}
		e.appendItem(r)
		e.cur().prevDepth = ignoreDepth
		return nil

	case expr.OpVrule:
		if again, err := e.horizontalCmd(c); again || err != nil {
			return err
		}
		r, err := e.scanRuleSpec(p.Op)
		if err != nil {
			return err
		}
		e.appendItem(r)
		e.cur().spaceFactor = 1000
		return nil

	case expr.OpHbox, expr.OpVbox, expr.OpBox, expr.OpCopy:
		return e.beginBox(c, boxTarget{})

	case expr.OpMoveLeft, expr.OpMoveRight, expr.OpRaise, expr.OpLower:
		vertical := p.Op == expr.OpMoveLeft || p.Op == expr.OpMoveRight
		if e.mode().Vertical() != vertical {
			return e.fail(ModeError, c.tok, "you can't use %s in %s mode", c.tok, e.mode())
		}
		d, err := e.scanDimen()
		if err != nil {
			return err
		}
		if p.Op == expr.OpMoveLeft || p.Op == expr.OpRaise {
			d = -d
		}
		return e.scanBox(c.tok, boxTarget{shift: d})

	case expr.OpIndent, expr.OpNoindent:
		if e.mode().Vertical() {
			return e.newParagraph(p.Op == expr.OpIndent)
		}
		if p.Op == expr.OpIndent {
			e.appendItem(&box.Box{Kind: box.HList, Width: e.dimenParam("parindent")})
			e.cur().spaceFactor = 1000
		}
		return nil

	case expr.OpChar:
		r, err := e.scanCharNum(c.tok)
		if err != nil {
			return err
		}
		return e.typeset(r)

	case expr.OpIgnoreSpaces:
		for {
			c, err := e.getX()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if !isSpace(c) {
				e.backCmd(c)
				return nil
			}
		}

	case expr.OpMessage:
		l, err := e.scanToks(c.tok, true)
		if err != nil {
			return err
		}
		text := l.String()
		tracer().Infof("%s", text)
		e.emit(Event{Kind: Message, Token: c.tok, Text: text})
		return nil

	case expr.OpEnd:
		switch e.mode() {
		case InternalVertical, RestrictedHorizontal:
			return e.fail(ModeError, c.tok, "you can't use %s in %s mode", c.tok, e.mode())
		case UnrestrictedHorizontal:
			if len(e.nest) > 2 {
				return e.fail(ModeError, c.tok, "you can't use %s inside a box", c.tok)
			}
			e.backCmd(c)
			return e.endParagraph()
		}
		if err := e.finish(); err != nil {
			return err
		}
		e.done = true
		return nil
	}
	return e.fail(SyntaxError, c.tok, "%s cannot be used here", c.tok)
}

// appendGlue scans the glue of \hskip/\vskip or takes that of \hfil and
// friends.
func (e *Engine) appendGlue(p expr.Primitive) error {
	var g dimen.Glue
	if p.Op == expr.OpHskip || p.Op == expr.OpVskip {
		var err error
		if g, err = e.scanGlue(); err != nil {
			return err
		}
	} else {
		g = fillGlue[p.Name[1:]]
	}
	e.appendItem(box.Glue{Spec: g, Kind: box.Explicit})
	return nil
}

func (e *Engine) scanRuleSpec(op expr.Op) (box.Rule, error) {
	r := box.Rule{Width: box.Running, Height: dimen.Unity * 2 / 5, Depth: 0}
	if op == expr.OpVrule {
		r = box.Rule{Width: dimen.Unity * 2 / 5, Height: box.Running, Depth: box.Running}
	}
	for {
		matched := false
		for _, kw := range []string{"width", "height", "depth"} {
			ok, err := e.scanKeyword(kw)
			if err != nil {
				return r, err
			}
			if !ok {
				continue
			}
			d, err := e.scanDimen()
			if err != nil {
				return r, err
			}
			switch kw {
			case "width":
				r.Width = d
			case "height":
				r.Height = d
			default:
				r.Depth = d
			}
			matched = true
		}
		if !matched {
			return r, nil
		}
	}
}

// newParagraph enters unrestricted horizontal mode from a vertical mode.
func (e *Engine) newParagraph(indent bool) error {
	f := e.cur()
	if f.mode == OuterVertical || len(f.list) > 0 {
		f.list = append(f.list, box.Glue{Spec: e.glueParam("parskip"), Kind: box.Parskip})
	}
	e.pushNest(UnrestrictedHorizontal)
	if indent {
		e.appendItem(&box.Box{Kind: box.HList, Width: e.dimenParam("parindent")})
	}
	return nil
}

// endParagraph packages the current paragraph into one line at its
// natural width and appends it to the enclosing vertical list.
func (e *Engine) endParagraph() error {
	f := e.cur()
	if len(f.list) == 0 {
		e.popNest()
		return nil
	}
	if _, ok := f.list[len(f.list)-1].(box.Glue); ok {
		f.list = f.list[:len(f.list)-1]
	}
	f.list = append(f.list, box.Glue{Spec: e.glueParam("parfillskip"), Kind: box.Parfillskip})
	b, rep := box.HPack(f.list, box.Natural)
	e.packed(b, rep)
	e.popNest()
	e.appendToVList(b)
	return nil
}

// appendToVList adds b to the current vertical list, preceded by
// interline glue computed from the previous depth.
func (e *Engine) appendToVList(b *box.Box) {
	f := e.cur()
	if f.prevDepth > ignoreDepth {
		bs := e.glueParam("baselineskip")
		d := bs.Width - f.prevDepth - b.Height
		if d < e.dimenParam("lineskiplimit") {
			f.list = append(f.list, box.Glue{Spec: e.glueParam("lineskip"), Kind: box.Lineskip})
		} else {
			bs.Width = d
			f.list = append(f.list, box.Glue{Spec: bs, Kind: box.Baselineskip})
		}
	}
	f.list = append(f.list, b)
	f.prevDepth = b.Depth
}

// appendChar adds a character from the current font, updating the space
// factor. Characters the font lacks are reported and dropped.
func (e *Engine) appendChar(r rune) {
	fnt := e.curFont()
	w, h, d, ok := e.metrics.Metrics(fnt, r)
	if !ok {
		tracer().Infof("Missing character: There is no %c in font %s!", r, fnt.Name)
		e.emit(Event{Kind: MissingChar, Token: token.NewChar(r, token.Other), Name: fnt.Name})
		return
	}
	e.appendItem(box.Char{Font: fnt.Name, Code: r, Width: w, Height: h, Depth: d})

	f := e.cur()
	sf := e.sfcode(r)
	switch {
	case sf == 1000:
		f.spaceFactor = 1000
	case sf < 1000:
		if sf > 0 {
			f.spaceFactor = sf
		}
	case f.spaceFactor < 1000:
		f.spaceFactor = 1000
	default:
		f.spaceFactor = sf
	}
}

// appendSpace adds interword glue, adjusted by the space factor.
func (e *Engine) appendSpace() {
	f := e.cur()
	if xs := e.glueParam("xspaceskip"); f.spaceFactor >= 2000 && !xs.IsZero() {
		e.appendItem(box.Glue{Spec: xs, Kind: box.Interword})
		return
	}
	g := e.glueParam("spaceskip")
	if g.IsZero() {
		g = e.fontSpace()
	}
	if sf := f.spaceFactor; sf != 1000 {
		g.Stretch = xnOverD(g.Stretch, sf, 1000)
		g.Shrink = xnOverD(g.Shrink, 1000, sf)
	}
	e.appendItem(box.Glue{Spec: g, Kind: box.Interword})
}

func xnOverD(x dimen.Dimen, n, d int32) dimen.Dimen {
	q, _ := dimen.XnOverD(int32(x), n, d)
	return dimen.Dimen(q)
}

func (e *Engine) fontSpace() dimen.Glue {
	if s, ok := e.metrics.(font.Spacer); ok {
		if g, ok := s.SpaceGlue(e.curFont()); ok {
			return g
		}
	}
	return font.DefaultSpace
}

func (e *Engine) sfcode(r rune) int32 {
	return e.tab.Get(eqtb.Key{Space: eqtb.SFCode, N: int(r)}).(int32)
}
