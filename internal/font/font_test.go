// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package font

import (
	"testing"

	"nickandperla.net/texfront/internal/dimen"
)

var tenpt = Font{Name: "cmr10", Size: dimen.Pt(10)}

func TestFixedMetrics(t *testing.T) {
	var m Metrics = Fixed{}
	w, h, d, ok := m.Metrics(tenpt, 'g')
	if !ok || w != dimen.Pt(5) || h != dimen.Pt(7) || d != dimen.Pt(2) {
		t.Errorf("g: %v %v %v %v", w, h, d, ok)
	}
	if _, _, d, _ := m.Metrics(tenpt, 'a'); d != 0 {
		t.Errorf("a has depth %v", d)
	}
	if _, _, _, ok := m.Metrics(tenpt, '\t'); ok {
		t.Error("control characters should be missing")
	}
	g, _ := Fixed{}.SpaceGlue(tenpt)
	if g.Width.String() != "3.33333pt" {
		t.Errorf("space %v", g)
	}
}

func TestGoFonts(t *testing.T) {
	s, err := NewGoFonts()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Resolve("cmtt10") || !s.Resolve("anything") {
		t.Error("every name should resolve to a Go face")
	}
	wM, hM, _, ok := s.Metrics(tenpt, 'M')
	if !ok {
		t.Fatal("M missing")
	}
	wi, _, _, _ := s.Metrics(tenpt, 'i')
	if wM <= wi {
		t.Errorf("proportional font: M (%v) should be wider than i (%v)", wM, wi)
	}
	if hM <= 0 || hM > dimen.Pt(10) {
		t.Errorf("M height %v", hM)
	}
	if _, _, d, _ := s.Metrics(tenpt, 'p'); d <= 0 {
		t.Errorf("p should descend, depth %v", d)
	}
	mono := Font{Name: "cmtt10", Size: dimen.Pt(10)}
	a, _, _, _ := s.Metrics(mono, 'i')
	b, _, _, _ := s.Metrics(mono, 'M')
	if a != b {
		t.Errorf("mono widths differ: %v vs %v", a, b)
	}
	sp, ok := s.SpaceGlue(tenpt)
	if !ok || sp.Width <= 0 || sp.Stretch <= 0 {
		t.Errorf("space glue %v", sp)
	}
}
