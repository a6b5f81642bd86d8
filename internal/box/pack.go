// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package box

import "nickandperla.net/texfront/internal/dimen"

// Spec is a packaging target: "to" a size exactly, or "spread" by an
// amount. The zero Spec packs at natural size.
type Spec struct {
	Exactly bool
	Size    dimen.Dimen
}

// Natural packs a list at its natural size.
var Natural = Spec{}

// Status classifies how well a box's glue absorbed the adjustment.
type Status uint8

const (
	Fine Status = iota
	Loose
	Underfull
	Tight
	Overfull
)

func (s Status) String() string {
	switch s {
	case Loose:
		return "loose"
	case Underfull:
		return "underfull"
	case Tight:
		return "tight"
	case Overfull:
		return "overfull"
	}
	return "fine"
}

// Report describes the outcome of packaging.
type Report struct {
	Status  Status
	Badness int
	// Excess is how far an overfull box sticks out.
	Excess dimen.Dimen
}

type totals struct {
	stretch [4]dimen.Dimen
	shrink  [4]dimen.Dimen
}

func (t *totals) add(g dimen.Glue) {
	t.stretch[g.StretchOrder] += g.Stretch
	t.shrink[g.ShrinkOrder] += g.Shrink
}

func highest(v [4]dimen.Dimen) dimen.Order {
	for o := dimen.Filll; o > dimen.Normal; o-- {
		if v[o] != 0 {
			return o
		}
	}
	return dimen.Normal
}

// HPack packages a horizontal list: width is the sum of the items'
// widths, height and depth the maxima over items.
func HPack(list []Item, spec Spec) (*Box, Report) {
	b := &Box{Kind: HList, List: list}
	var w dimen.Dimen
	var t totals
	for _, it := range list {
		switch it := it.(type) {
		case Char:
			w += it.Width
			b.Height = max(b.Height, it.Height)
			b.Depth = max(b.Depth, it.Depth)
		case *Box:
			w += it.Width
			b.Height = max(b.Height, it.Height-it.Shift)
			b.Depth = max(b.Depth, it.Depth+it.Shift)
		case Rule:
			if it.Width != Running {
				w += it.Width
			}
			if it.Height != Running {
				b.Height = max(b.Height, it.Height)
			}
			if it.Depth != Running {
				b.Depth = max(b.Depth, it.Depth)
			}
		case Glue:
			w += it.Spec.Width
			t.add(it.Spec)
		case Kern:
			w += it.Width
		}
	}
	x := spec.Size
	if spec.Exactly {
		x -= w
	}
	b.Width = w + x
	r := setGlue(b, x, &t)
	return b, r
}

// VPack packages a vertical list: width is the maximum over items, height
// the sum of heights and depths except the last item's depth, which
// becomes the box's depth.
func VPack(list []Item, spec Spec) (*Box, Report) {
	b := &Box{Kind: VList, List: list}
	var h, d dimen.Dimen
	var t totals
	for _, it := range list {
		switch it := it.(type) {
		case *Box:
			h += d + it.Height
			d = it.Depth
			b.Width = max(b.Width, it.Width+it.Shift)
		case Char:
			h += d + it.Height
			d = it.Depth
			b.Width = max(b.Width, it.Width)
		case Rule:
			if it.Height != Running {
				h += d + it.Height
			} else {
				h += d
			}
			d = 0
			if it.Depth != Running {
				d = it.Depth
			}
			if it.Width != Running {
				b.Width = max(b.Width, it.Width)
			}
		case Glue:
			h += d + it.Spec.Width
			d = 0
			t.add(it.Spec)
		case Kern:
			h += d + it.Width
			d = 0
		}
	}
	b.Depth = d
	x := spec.Size
	if spec.Exactly {
		x -= h
	}
	b.Height = h + x
	r := setGlue(b, x, &t)
	return b, r
}

// setGlue distributes the adjustment x over the highest order of stretch
// or shrink present. At finite order the glue never stretches or shrinks
// beyond its stated amount; the remainder is reported.
func setGlue(b *Box, x dimen.Dimen, t *totals) Report {
	switch {
	case x > 0:
		o := highest(t.stretch)
		total := t.stretch[o]
		b.GlueOrder = o
		if total == 0 {
			return Report{Status: Underfull, Badness: dimen.InfBad}
		}
		b.GlueSign = Stretching
		if o != dimen.Normal {
			b.GlueSet = float64(x) / float64(total)
			return Report{}
		}
		bad := dimen.Badness(x, total)
		if x > total {
			b.GlueSet = 1
			return Report{Status: Underfull, Badness: bad}
		}
		b.GlueSet = float64(x) / float64(total)
		if bad > 100 {
			return Report{Status: Loose, Badness: bad}
		}
		return Report{Badness: bad}
	case x < 0:
		o := highest(t.shrink)
		total := t.shrink[o]
		b.GlueOrder = o
		if total != 0 {
			b.GlueSign = Shrinking
		}
		if o != dimen.Normal {
			b.GlueSet = float64(-x) / float64(total)
			return Report{}
		}
		if -x > total {
			if total != 0 {
				b.GlueSet = 1
			}
			return Report{Status: Overfull, Badness: dimen.InfBad, Excess: -x - total}
		}
		b.GlueSet = float64(-x) / float64(total)
		bad := dimen.Badness(-x, total)
		if bad > 100 {
			return Report{Status: Tight, Badness: bad}
		}
		return Report{Badness: bad}
	}
	return Report{}
}
