// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"io"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

type groupKind int

const (
	simpleGroup     groupKind = iota // { }
	semiSimpleGroup                  // \begingroup \endgroup
	boxGroup                         // \hbox{ } and \vbox{ }
)

// group is the save-stack frame info of an open group.
type group struct {
	kind groupKind
	tok  token.Token
	// box groups only
	op     expr.Op
	spec   box.Spec
	target boxTarget
}

// boxTarget says what happens to a finished box: it is appended to the
// current list, shifted, or assigned to a register.
type boxTarget struct {
	setbox bool
	reg    int
	global bool
	shift  dimen.Dimen
}

// scanBox reads the box that must follow t.
func (e *Engine) scanBox(t token.Token, to boxTarget) error {
	c, err := e.getXNonBlankNonRelax()
	if err == io.EOF {
		return e.fail(SyntaxError, t, "a <box> was supposed to be here")
	}
	if err != nil {
		return err
	}
	if p, ok := c.def.(expr.Primitive); ok {
		switch p.Op {
		case expr.OpHbox, expr.OpVbox, expr.OpBox, expr.OpCopy:
			return e.beginBox(c, to)
		}
	}
	return e.fail(SyntaxError, c.tok, "a <box> was supposed to be here")
}

// beginBox starts the box construction c, or fetches a register.
func (e *Engine) beginBox(c cmd, to boxTarget) error {
	p := c.def.(expr.Primitive)
	switch p.Op {
	case expr.OpBox, expr.OpCopy:
		n, err := e.scanRegisterNum(c.tok)
		if err != nil {
			return err
		}
		b := e.boxReg(n)
		if p.Op == expr.OpBox && b != nil {
			k := eqtb.Key{Space: eqtb.Box, N: n}
			e.tab.Poke(k, (*box.Box)(nil))
			e.emit(Event{Kind: Assignment, Key: k, Old: b, New: (*box.Box)(nil)})
		}
		return e.boxEnd(to, b)
	}

	var spec box.Spec
	if ok, err := e.scanKeyword("to"); err != nil {
		return err
	} else if ok {
		spec.Exactly = true
		if spec.Size, err = e.scanDimen(); err != nil {
			return err
		}
	} else if ok, err := e.scanKeyword("spread"); err != nil {
		return err
	} else if ok {
		if spec.Size, err = e.scanDimen(); err != nil {
			return err
		}
	}
	if err := e.scanLeftBrace(c.tok); err != nil {
		return err
	}
	e.tab.Open(&group{kind: boxGroup, tok: c.tok, op: p.Op, spec: spec, target: to})
	if p.Op == expr.OpVbox {
		e.pushNest(InternalVertical)
	} else {
		e.pushNest(RestrictedHorizontal)
	}
	return nil
}

// handleRightBrace closes the group a } ends.
func (e *Engine) handleRightBrace(c cmd) error {
	g, _ := e.tab.Top().(*group)
	if g == nil {
		return e.fail(UnmatchedGroup, c.tok, "too many }'s")
	}
	switch g.kind {
	case simpleGroup:
		_, err := e.tab.Close()
		return err
	case semiSimpleGroup:
		return e.fail(UnmatchedGroup, c.tok, "extra }, or forgotten \\endgroup")
	}

	if e.mode() == UnrestrictedHorizontal {
		if err := e.endParagraph(); err != nil {
			return err
		}
	}
	if _, err := e.tab.Close(); err != nil {
		return err
	}
	f := e.popNest()
	var b *box.Box
	var rep box.Report
	if g.op == expr.OpVbox {
		b, rep = box.VPack(f.list, g.spec)
	} else {
		b, rep = box.HPack(f.list, g.spec)
	}
	e.packed(b, rep)
	return e.boxEnd(g.target, b)
}

// boxEnd delivers a finished (possibly void) box to its target.
func (e *Engine) boxEnd(to boxTarget, b *box.Box) error {
	if to.setbox {
		e.set(eqtb.Key{Space: eqtb.Box, N: to.reg}, b, to.global)
		return nil
	}
	if b == nil {
		return nil
	}
	if to.shift != 0 {
		b = b.Shifted(to.shift)
	}
	if e.mode().Vertical() {
		e.appendToVList(b)
		return nil
	}
	e.appendItem(b)
	e.cur().spaceFactor = 1000
	return nil
}

// packed reports a packaged box, logging badness the way TeX warns about
// it.
func (e *Engine) packed(b *box.Box, rep box.Report) {
	kind := "\\hbox"
	bad, fuzz := e.intParam("hbadness"), e.dimenParam("hfuzz")
	if b.Kind == box.VList {
		kind = "\\vbox"
		bad, fuzz = e.intParam("vbadness"), e.dimenParam("vfuzz")
	}
	switch rep.Status {
	case box.Underfull, box.Loose:
		if rep.Badness > int(bad) {
			tracer().Infof("%s %s (badness %d)", titleStatus(rep.Status), kind, rep.Badness)
		}
	case box.Overfull:
		if rep.Excess > fuzz || bad < 100 {
			tracer().Infof("Overfull %s (%s too wide)", kind, rep.Excess)
		}
	case box.Tight:
		if rep.Badness > int(bad) {
			tracer().Infof("Tight %s (badness %d)", kind, rep.Badness)
		}
	}
	e.emit(Event{Kind: BoxPacked, Box: b, Report: rep})
}

func titleStatus(s box.Status) string {
	if s == box.Loose {
		return "Loose"
	}
	return "Underfull"
}
