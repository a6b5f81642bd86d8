// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package box defines list items and box nodes, and packages item lists
// into boxes with their glue set.
package box

import (
	"nickandperla.net/texfront/internal/dimen"
)

// Running marks a rule dimension taken from the enclosing box.
const Running dimen.Dimen = -1 << 30

// Item is an element of a horizontal or vertical list.
type Item interface {
	item()
}

// Char is a character with the metrics of its font.
type Char struct {
	Font   string
	Code   rune
	Width  dimen.Dimen
	Height dimen.Dimen
	Depth  dimen.Dimen
}

// GlueKind records where a glue item came from.
type GlueKind uint8

const (
	Explicit GlueKind = iota
	Interword
	Baselineskip
	Lineskip
	Parskip
	Parfillskip
)

func (k GlueKind) String() string {
	switch k {
	case Interword:
		return "interword"
	case Baselineskip:
		return "baselineskip"
	case Lineskip:
		return "lineskip"
	case Parskip:
		return "parskip"
	case Parfillskip:
		return "parfillskip"
	}
	return ""
}

// Glue is a stretchable space.
type Glue struct {
	Spec dimen.Glue
	Kind GlueKind
}

// Kern is rigid space.
type Kern struct {
	Width dimen.Dimen
}

// Rule is a solid rectangle; any dimension may be Running.
type Rule struct {
	Width  dimen.Dimen
	Height dimen.Dimen
	Depth  dimen.Dimen
}

func (Char) item() {}
func (Glue) item() {}
func (Kern) item() {}
func (Rule) item() {}
func (*Box) item() {}

// Kind is the orientation of a box's list.
type Kind uint8

const (
	HList Kind = iota
	VList
)

// Sign says whether a box's glue is stretched, shrunk or left natural.
type Sign uint8

const (
	Unset Sign = iota
	Stretching
	Shrinking
)

// Box is a packaged list. Boxes are immutable once built; derived boxes
// (shifted, re-dimensioned) are fresh values sharing the list.
type Box struct {
	Kind   Kind
	Width  dimen.Dimen
	Height dimen.Dimen
	Depth  dimen.Dimen
	// Shift moves the box down (in a horizontal list) or right (in a
	// vertical list).
	Shift dimen.Dimen
	List  []Item

	GlueSign  Sign
	GlueOrder dimen.Order
	GlueSet   float64
}

// Shifted returns a copy of b moved by s.
func (b *Box) Shifted(s dimen.Dimen) *Box {
	c := *b
	c.Shift = s
	return &c
}

// Resized returns a copy of b with new dimensions.
func (b *Box) Resized(w, h, d dimen.Dimen) *Box {
	c := *b
	c.Width, c.Height, c.Depth = w, h, d
	return &c
}

// GlueSize returns the width a glue item takes inside b.
func (b *Box) GlueSize(g dimen.Glue) dimen.Dimen {
	w := g.Width
	switch b.GlueSign {
	case Stretching:
		if g.StretchOrder == b.GlueOrder {
			w += dimen.Dimen(b.GlueSet * float64(g.Stretch))
		}
	case Shrinking:
		if g.ShrinkOrder == b.GlueOrder {
			w -= dimen.Dimen(b.GlueSet * float64(g.Shrink))
		}
	}
	return w
}
