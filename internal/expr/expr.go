// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines the meanings a control sequence or active
// character can have: a closed set of definition variants.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/token"
)

// Def is the interface all definition variants implement.
type Def interface {
	// String returns the meaning as \meaning prints it.
	String() string
	// Expandable reports whether the expansion engine rewrites the token.
	Expandable() bool
}

// Undefined is the meaning of a name that was never defined.
type Undefined struct{}

func (Undefined) String() string   { return "undefined" }
func (Undefined) Expandable() bool { return false }

// Elem is one element of a parameter pattern or replacement text: a
// literal token, or (Param > 0) a numbered placeholder.
type Elem struct {
	Tok   token.Token
	Param int
}

// Macro is a user-defined rewrite rule.
type Macro struct {
	Params []Elem
	Body   []Elem
	Long   bool
}

func (m *Macro) String() string {
	var sb strings.Builder
	if m.Long {
		sb.WriteString("\\long ")
	}
	sb.WriteString("macro:")
	writeElems(&sb, m.Params)
	sb.WriteString("->")
	writeElems(&sb, m.Body)
	return sb.String()
}

func (*Macro) Expandable() bool { return true }

// Arity returns the number of placeholders in the pattern.
func (m *Macro) Arity() int {
	n := 0
	for _, e := range m.Params {
		if e.Param > 0 {
			n++
		}
	}
	return n
}

func writeElems(sb *strings.Builder, elems []Elem) {
	for i, e := range elems {
		if e.Param > 0 {
			sb.WriteString("#" + strconv.Itoa(e.Param))
			continue
		}
		if e.Tok.Is(token.Parameter) {
			sb.WriteString("##")
			continue
		}
		sb.WriteString(e.Tok.String())
		if e.Tok.IsCS() && token.IsLetterName(e.Tok.Name) && i+1 < len(elems) {
			sb.WriteByte(' ')
		}
	}
}

// Primitive is a built-in operation identified by Op.
type Primitive struct {
	Name string
	Op   Op
}

func (p Primitive) String() string   { return "\\" + p.Name }
func (p Primitive) Expandable() bool { return p.Op < firstUnexpandable }

// CharDef is a \chardef shorthand: it typesets a character and reads as
// an integer.
type CharDef struct {
	Code int32
}

func (c CharDef) String() string { return fmt.Sprintf("\\char\"%X", c.Code) }
func (CharDef) Expandable() bool { return false }

// RegisterDef is a \countdef, \dimendef or \skipdef shorthand.
type RegisterDef struct {
	Space eqtb.Space
	N     int
}

func (r RegisterDef) String() string {
	return "\\" + map[eqtb.Space]string{eqtb.Count: "count", eqtb.Dimen: "dimen", eqtb.Skip: "skip"}[r.Space] + strconv.Itoa(r.N)
}
func (RegisterDef) Expandable() bool { return false }

// CharLet is the meaning of a name \let to a character token: it acts
// as that character.
type CharLet struct {
	Tok token.Token
}

func (c CharLet) String() string { return c.Tok.Describe() }
func (CharLet) Expandable() bool { return false }

// FontDef selects a font.
type FontDef struct {
	Font font.Font
}

func (f FontDef) String() string { return "select font " + f.Font.Name }
func (FontDef) Expandable() bool { return false }

// Equal reports whether two meanings are the same, as \ifx decides it.
func Equal(a, b Def) bool {
	switch a := a.(type) {
	case *Macro:
		b, ok := b.(*Macro)
		if !ok {
			return false
		}
		return a == b || a.Long == b.Long && elemsEqual(a.Params, b.Params) && elemsEqual(a.Body, b.Body)
	default:
		return a == b
	}
}

func elemsEqual(a, b []Elem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
