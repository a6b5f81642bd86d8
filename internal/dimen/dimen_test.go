// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package dimen

import "testing"

func TestFormatScaled(t *testing.T) {
	tests := []struct {
		d    Dimen
		want string
	}{
		{0, "0.0pt"},
		{PT, "1.0pt"},
		{Pt(12), "12.0pt"},
		{PT / 2, "0.5pt"},
		{-PT / 4, "-0.25pt"},
		{1, "0.00002pt"},
		{MaxDimen, "16383.99998pt"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("%d: got %q, want %q", int32(tt.d), got, tt.want)
		}
	}
}

func TestRoundDecimals(t *testing.T) {
	if got := RoundDecimals([]int{5}); got != 32768 {
		t.Errorf(".5: got %d", got)
	}
	if got := RoundDecimals([]int{2, 5}); got != 16384 {
		t.Errorf(".25: got %d", got)
	}
	if got := RoundDecimals(nil); got != 0 {
		t.Errorf("empty: got %d", got)
	}
}

func TestScaleUnits(t *testing.T) {
	d, ok := Scale(1, 0, Units["in"])
	if !ok || d != 4736286 {
		t.Errorf("1in: got %d", d)
	}
	d, ok = Scale(1, 0, Units["pc"])
	if !ok || d != Pt(12) {
		t.Errorf("1pc: got %v", d)
	}
	d, ok = Scale(3, RoundDecimals([]int{5}), Units["pt"])
	if !ok || d != Pt(3)+PT/2 {
		t.Errorf("3.5pt: got %v", d)
	}
	if _, ok := Scale(20000, 0, Units["pt"]); ok {
		t.Error("20000pt should overflow")
	}
}

func TestGlueString(t *testing.T) {
	g := Glue{Width: PT, Stretch: 2 * PT, StretchOrder: Fil, Shrink: PT / 2}
	if got := g.String(); got != "1.0pt plus 2.0fil minus 0.5pt" {
		t.Errorf("got %q", got)
	}
	if got := Fixed(Pt(3)).String(); got != "3.0pt" {
		t.Errorf("got %q", got)
	}
}

func TestBadness(t *testing.T) {
	if Badness(0, 0) != 0 {
		t.Error("no adjustment should be perfect")
	}
	if Badness(PT, 0) != InfBad {
		t.Error("no stretch should be infinitely bad")
	}
	if got := Badness(PT, PT); got != 100 {
		t.Errorf("full stretch: got %d, want 100", got)
	}
	if got := Badness(PT, 2*PT); got != 12 {
		t.Errorf("half stretch: got %d, want 12", got)
	}
}
