// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package preview

import (
	"image/color"
	"testing"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
)

func TestRenderSize(t *testing.T) {
	b := &box.Box{Kind: box.HList, Width: dimen.Pt(72), Height: dimen.Pt(10), Depth: dimen.Pt(2)}
	// one pixel per point at 72.27 dpi
	img := Render(b, 72.27)
	if got := img.Bounds().Dx(); got != 72+2*margin {
		t.Errorf("width %d", got)
	}
	if got := img.Bounds().Dy(); got != 12+2*margin {
		t.Errorf("height %d", got)
	}
}

func TestRenderRule(t *testing.T) {
	b, _ := box.HPack([]box.Item{
		box.Kern{Width: dimen.Pt(10)},
		box.Rule{Width: dimen.Pt(20), Height: dimen.Pt(20), Depth: 0},
	}, box.Natural)
	img := Render(b, 72.27)

	// the middle of the rule is black, the kern is white
	if got := color.RGBAModel.Convert(img.At(margin+20, margin+10)).(color.RGBA); got.R != 0 || got.A != 0xff {
		t.Errorf("rule pixel %v", got)
	}
	if got := color.RGBAModel.Convert(img.At(margin+5, margin+10)).(color.RGBA); got.R != 0xff {
		t.Errorf("kern pixel %v", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(&box.Box{}, 0)
	if img.Bounds().Empty() {
		t.Error("empty box should still produce an image")
	}
}
