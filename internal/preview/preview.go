// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package preview rasterizes finished boxes for quick inspection: rules
// are filled, characters are drawn as their glyph cells and nested boxes
// as outlines.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
)

// Colors used by Render.
var (
	RuleColor  color.Color = color.Black
	CharColor  color.Color = color.RGBA{0x88, 0x88, 0x88, 0xff}
	FrameColor color.Color = color.RGBA{0x40, 0x80, 0xe0, 0xff}
)

const margin = 2 // pixels around the outer box

type canvas struct {
	img   *image.RGBA
	scale float64 // pixels per sp
}

// Render draws b at the given resolution (pixels per inch) on a white
// background. The reference point of b is at the left edge, on the
// baseline.
func Render(b *box.Box, dpi float64) *image.RGBA {
	if dpi <= 0 {
		dpi = 72.27
	}
	c := &canvas{scale: dpi / 72.27 / float64(dimen.Unity)}
	w := int(math.Ceil(c.px(b.Width))) + 2*margin
	h := int(math.Ceil(c.px(b.Height+b.Depth))) + 2*margin
	c.img = image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	c.box(b, margin, margin+c.px(b.Height))
	return c.img
}

func (c *canvas) px(d dimen.Dimen) float64 {
	return float64(d) * c.scale
}

// box draws b with its reference point at (x, y) in pixels.
func (c *canvas) box(b *box.Box, x, y float64) {
	c.frame(x, y-c.px(b.Height), x+c.px(b.Width), y+c.px(b.Depth))
	if b.Kind == box.HList {
		c.hlist(b, x, y)
	} else {
		c.vlist(b, x, y-c.px(b.Height))
	}
}

func (c *canvas) hlist(b *box.Box, x, y float64) {
	for _, it := range b.List {
		switch it := it.(type) {
		case box.Char:
			c.fill(x, y-c.px(it.Height), x+c.px(it.Width), y+c.px(it.Depth), CharColor)
			x += c.px(it.Width)
		case box.Glue:
			x += c.px(b.GlueSize(it.Spec))
		case box.Kern:
			x += c.px(it.Width)
		case box.Rule:
			ht, dp := it.Height, it.Depth
			if ht == box.Running {
				ht = b.Height
			}
			if dp == box.Running {
				dp = b.Depth
			}
			c.fill(x, y-c.px(ht), x+c.px(it.Width), y+c.px(dp), RuleColor)
			x += c.px(it.Width)
		case *box.Box:
			c.box(it, x, y+c.px(it.Shift))
			x += c.px(it.Width)
		}
	}
}

// vlist draws the list of b starting from the top edge at top.
func (c *canvas) vlist(b *box.Box, x, top float64) {
	y := top
	for _, it := range b.List {
		switch it := it.(type) {
		case box.Glue:
			y += c.px(b.GlueSize(it.Spec))
		case box.Kern:
			y += c.px(it.Width)
		case box.Rule:
			wd := it.Width
			if wd == box.Running {
				wd = b.Width
			}
			h := c.px(it.Height + it.Depth)
			c.fill(x, y, x+c.px(wd), y+h, RuleColor)
			y += h
		case *box.Box:
			y += c.px(it.Height)
			c.box(it, x+c.px(it.Shift), y)
			y += c.px(it.Depth)
		}
	}
}

// frame outlines a rectangle one pixel wide.
func (c *canvas) frame(x0, y0, x1, y1 float64) {
	if x1-x0 < 1 || y1-y0 < 1 {
		return
	}
	c.fill(x0, y0, x1, y0+1, FrameColor)
	c.fill(x0, y1-1, x1, y1, FrameColor)
	c.fill(x0, y0, x0+1, y1, FrameColor)
	c.fill(x1-1, y0, x1, y1, FrameColor)
}

func (c *canvas) fill(x0, y0, x1, y1 float64, col color.Color) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	bounds := c.img.Bounds()
	r := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	r.MoveTo(float32(x0), float32(y0))
	r.LineTo(float32(x1), float32(y0))
	r.LineTo(float32(x1), float32(y1))
	r.LineTo(float32(x0), float32(y1))
	r.ClosePath()
	r.Draw(c.img, bounds, &image.Uniform{col}, image.Point{})
}
