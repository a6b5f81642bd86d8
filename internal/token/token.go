// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines category codes and the token value produced by the
// scanner and consumed by the expansion engine.
package token

import (
	"fmt"
	"strings"
)

// Category is a character's lexical category (catcode).
type Category uint8

const (
	Escape      Category = iota // 0  \
	BeginGroup                  // 1  {
	EndGroup                    // 2  }
	MathShift                   // 3  $
	AlignTab                    // 4  &
	EndOfLine                   // 5  ^^M
	Parameter                   // 6  #
	Superscript                 // 7  ^
	Subscript                   // 8  _
	Ignored                     // 9  ^^@
	Space                       // 10 ␣
	Letter                      // 11 A..Z a..z
	Other                       // 12 everything else
	Active                      // 13 ~
	Comment                     // 14 %
	Invalid                     // 15 ^^?
)

// MaxCategory is the largest valid category code.
const MaxCategory = Invalid

func (c Category) String() string {
	switch c {
	case Escape:
		return "escape"
	case BeginGroup:
		return "begin-group"
	case EndGroup:
		return "end-group"
	case MathShift:
		return "math-shift"
	case AlignTab:
		return "alignment-tab"
	case EndOfLine:
		return "end-of-line"
	case Parameter:
		return "parameter"
	case Superscript:
		return "superscript"
	case Subscript:
		return "subscript"
	case Ignored:
		return "ignored"
	case Space:
		return "space"
	case Letter:
		return "letter"
	case Other:
		return "other"
	case Active:
		return "active"
	case Comment:
		return "comment"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Kind distinguishes character tokens from control sequences.
type Kind uint8

const (
	Char Kind = iota
	ControlSequence
)

// Token is an immutable lexical unit. Two tokens are equal (==) iff their
// kind and payload match: for characters the category and code point, for
// control sequences the name.
type Token struct {
	Kind Kind
	Cat  Category
	Rune rune
	Name string
}

// NewChar returns a character token.
func NewChar(r rune, cat Category) Token {
	return Token{Kind: Char, Cat: cat, Rune: r}
}

// NewCS returns a control-sequence token.
func NewCS(name string) Token {
	return Token{Kind: ControlSequence, Name: name}
}

// SpaceToken is the token the scanner emits for collapsed blanks.
var SpaceToken = NewChar(' ', Space)

// IsCS reports whether t is a control sequence.
func (t Token) IsCS() bool { return t.Kind == ControlSequence }

// IsActive reports whether t is an active character.
func (t Token) IsActive() bool { return t.Kind == Char && t.Cat == Active }

// Is reports whether t is a character token of the given category.
func (t Token) Is(cat Category) bool { return t.Kind == Char && t.Cat == cat }

// IsSpace reports whether t is a space-category character.
func (t Token) IsSpace() bool { return t.Is(Space) }

// IsLetterName reports whether a control-sequence name consists of letters
// only, which decides whether \string and friends need a trailing space.
func IsLetterName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func (t Token) String() string {
	if t.Kind == ControlSequence {
		return "\\" + t.Name
	}
	if t.Cat == Space {
		return " "
	}
	return string(t.Rune)
}

// Describe returns TeX's description of a token's meaning as a plain
// character, e.g. "the letter a".
func (t Token) Describe() string {
	if t.Kind == ControlSequence {
		return "\\" + t.Name
	}
	switch t.Cat {
	case BeginGroup:
		return "begin-group character " + string(t.Rune)
	case EndGroup:
		return "end-group character " + string(t.Rune)
	case MathShift:
		return "math shift character " + string(t.Rune)
	case AlignTab:
		return "alignment tab character " + string(t.Rune)
	case Parameter:
		return "macro parameter character " + string(t.Rune)
	case Superscript:
		return "superscript character " + string(t.Rune)
	case Subscript:
		return "subscript character " + string(t.Rune)
	case Space:
		return "blank space " + string(t.Rune)
	case Letter:
		return "the letter " + string(t.Rune)
	case Active:
		return "active character " + string(t.Rune)
	default:
		return "the character " + string(t.Rune)
	}
}

// List is a token sequence.
type List []Token

// String renders a list the way TeX shows token lists: control sequences
// with a following space when the next token would otherwise merge.
func (l List) String() string {
	var sb strings.Builder
	for i, t := range l {
		sb.WriteString(t.String())
		if t.Kind == ControlSequence && IsLetterName(t.Name) && i+1 < len(l) {
			next := l[i+1]
			if next.Kind == Char && next.Cat == Letter {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// FromString converts text into character tokens, mapping ' ' to space
// tokens and everything else to category Other, the way \string and
// \the produce their results.
func FromString(s string) List {
	l := make(List, 0, len(s))
	for _, r := range s {
		if r == ' ' {
			l = append(l, SpaceToken)
		} else {
			l = append(l, NewChar(r, Other))
		}
	}
	return l
}
