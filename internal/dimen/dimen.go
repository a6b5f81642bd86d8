// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package dimen implements scaled-point arithmetic: dimensions, units and
// glue specifications, rounded and printed exactly as TeX does.
package dimen

import (
	"strconv"
	"strings"
)

// Dimen is a length in scaled points; 65536sp = 1pt.
type Dimen int32

const (
	SP   Dimen = 1
	PT   Dimen = 1 << 16
	Unity      = PT

	// MaxDimen is the largest legal dimension, 16383.99999pt.
	MaxDimen Dimen = 1<<30 - 1
)

// Pt returns a whole number of points.
func Pt(n int) Dimen { return Dimen(n) * PT }

// String prints d in points, e.g. "12.5pt".
func (d Dimen) String() string {
	return FormatScaled(int32(d)) + "pt"
}

// FormatScaled prints a scaled value with the shortest decimal expansion
// that reads back to the same value.
func FormatScaled(s int32) string {
	var sb strings.Builder
	v := int64(s)
	if v < 0 {
		sb.WriteByte('-')
		v = -v
	}
	sb.WriteString(strconv.FormatInt(v/int64(Unity), 10))
	sb.WriteByte('.')
	v = 10*(v%int64(Unity)) + 5
	delta := int64(10)
	for {
		if delta > int64(Unity) {
			v += 0x8000 - 50000 // round the last digit
		}
		sb.WriteByte(byte('0' + v/int64(Unity)))
		v = 10 * (v % int64(Unity))
		delta *= 10
		if v <= delta {
			break
		}
	}
	return sb.String()
}

// Order is the infinity order of a stretch or shrink component.
type Order uint8

const (
	Normal Order = iota
	Fil
	Fill
	Filll
)

func (o Order) String() string {
	switch o {
	case Fil:
		return "fil"
	case Fill:
		return "fill"
	case Filll:
		return "filll"
	}
	return "pt"
}

// Glue is a natural width with independently ordered stretch and shrink.
type Glue struct {
	Width        Dimen
	Stretch      Dimen
	StretchOrder Order
	Shrink       Dimen
	ShrinkOrder  Order
}

// Fixed returns rigid glue of width w.
func Fixed(w Dimen) Glue { return Glue{Width: w} }

// IsZero reports whether g is 0pt with no stretch or shrink.
func (g Glue) IsZero() bool {
	return g.Width == 0 && g.Stretch == 0 && g.Shrink == 0
}

func (g Glue) String() string {
	var sb strings.Builder
	sb.WriteString(g.Width.String())
	if g.Stretch != 0 {
		sb.WriteString(" plus ")
		sb.WriteString(FormatScaled(int32(g.Stretch)))
		sb.WriteString(g.StretchOrder.String())
	}
	if g.Shrink != 0 {
		sb.WriteString(" minus ")
		sb.WriteString(FormatScaled(int32(g.Shrink)))
		sb.WriteString(g.ShrinkOrder.String())
	}
	return sb.String()
}

// Unit is a physical unit as a ratio to points.
type Unit struct {
	Num, Den int32
}

// Units maps TeX's physical unit keywords to their ratios. sp is handled
// separately since it bypasses the fraction.
var Units = map[string]Unit{
	"pt": {1, 1},
	"pc": {12, 1},
	"in": {7227, 100},
	"bp": {7227, 7200},
	"cm": {7227, 254},
	"mm": {7227, 2540},
	"dd": {1238, 1157},
	"cc": {14856, 1157},
}

// RoundDecimals converts up to 17 decimal digits after the point into a
// fraction of Unity.
func RoundDecimals(digits []int) int32 {
	if len(digits) > 17 {
		digits = digits[:17]
	}
	var a int32
	for k := len(digits) - 1; k >= 0; k-- {
		a = (a + int32(digits[k])*(2*int32(Unity))) / 10
	}
	return (a + 1) / 2
}

// Scale combines an integer part and a fraction of Unity under unit u.
// It reports false when the result exceeds MaxDimen.
func Scale(whole, frac int32, u Unit) (Dimen, bool) {
	if u.Num != u.Den {
		v, rem := XnOverD(whole, u.Num, u.Den)
		f := (int64(u.Num)*int64(frac) + int64(Unity)*int64(rem)) / int64(u.Den)
		whole = v + int32(f/int64(Unity))
		frac = int32(f % int64(Unity))
	}
	if whole >= 1<<14 {
		return MaxDimen, false
	}
	return Dimen(whole)*Unity + Dimen(frac), true
}

// ScaleBy multiplies d by whole+frac/Unity, as in "1.5\dimen0".
func ScaleBy(d Dimen, whole, frac int32) (Dimen, bool) {
	neg := d < 0
	v := int64(d)
	if neg {
		v = -v
	}
	r := v*int64(whole) + v*int64(frac)/int64(Unity)
	if r > int64(MaxDimen) {
		return MaxDimen, false
	}
	if neg {
		r = -r
	}
	return Dimen(r), true
}

// XnOverD computes x*n/d with remainder, for 0 <= n,d < 2^16, keeping the
// intermediate product exact.
func XnOverD(x, n, d int32) (int32, int32) {
	neg := x < 0
	if neg {
		x = -x
	}
	p := int64(x) * int64(n)
	q := int32(p / int64(d))
	r := int32(p % int64(d))
	if neg {
		return -q, -r
	}
	return q, r
}

// Badness approximates 100(t/s)^3, capped at 10000.
func Badness(t, s Dimen) int {
	if t == 0 {
		return 0
	}
	if s <= 0 {
		return InfBad
	}
	var r int64
	switch {
	case t <= 7230584:
		r = int64(t) * 297 / int64(s)
	case s >= 1663497:
		r = int64(t) / (int64(s) / 297)
	default:
		r = int64(t)
	}
	if r > 1290 {
		return InfBad
	}
	return int((r*r*r + 0x20000) / 0x40000)
}

// InfBad is the badness of an infinitely bad box.
const InfBad = 10000
