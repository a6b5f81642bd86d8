// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package font

import (
	"fmt"
	"strings"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"nickandperla.net/texfront/internal/dimen"
)

// SFNT reads metrics from TrueType/OpenType outlines. One point of design
// size is treated as one pixel per em.
type SFNT struct {
	mu    sync.Mutex
	faces map[string]*sfnt.Font
	buf   sfnt.Buffer
	// pick maps a TeX-style font name onto a face name.
	pick func(name string) string
}

// NewGoFonts returns a provider over the Go font family. Names are mapped
// by their conventional TeX shapes: "tt" picks mono, "bx" bold, "it", "ti"
// or "sl" italic, everything else regular.
func NewGoFonts() (*SFNT, error) {
	s := &SFNT{faces: make(map[string]*sfnt.Font), pick: goFamily}
	for name, ttf := range map[string][]byte{
		"regular": goregular.TTF,
		"bold":    gobold.TTF,
		"italic":  goitalic.TTF,
		"mono":    gomono.TTF,
	} {
		if err := s.Add(name, ttf); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add parses an outline font and registers it under name.
func (s *SFNT) Add(name string, data []byte) error {
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", name, err)
	}
	s.mu.Lock()
	s.faces[name] = f
	s.mu.Unlock()
	tracer().Debugf("font %s: %d glyphs", name, f.NumGlyphs())
	return nil
}

func goFamily(name string) string {
	switch {
	case strings.Contains(name, "tt"), strings.Contains(name, "mono"):
		return "mono"
	case strings.Contains(name, "bx"), strings.Contains(name, "bold"):
		return "bold"
	case strings.Contains(name, "it"), strings.Contains(name, "ti"), strings.Contains(name, "sl"):
		return "italic"
	}
	return "regular"
}

func (s *SFNT) face(name string) *sfnt.Font {
	if f, ok := s.faces[name]; ok {
		return f
	}
	if s.pick != nil {
		return s.faces[s.pick(name)]
	}
	return nil
}

// Resolve implements Resolver.
func (s *SFNT) Resolve(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.face(name) != nil
}

// Metrics implements Metrics.
func (s *SFNT) Metrics(f Font, code rune) (w, h, d dimen.Dimen, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	face := s.face(f.Name)
	if face == nil {
		return 0, 0, 0, false
	}
	idx, err := face.GlyphIndex(&s.buf, code)
	if err != nil || idx == 0 {
		return 0, 0, 0, false
	}
	bounds, adv, err := face.GlyphBounds(&s.buf, idx, ppem(f.Size), xfont.HintingNone)
	if err != nil {
		return 0, 0, 0, false
	}
	// y grows downwards in sfnt coordinates.
	return fromFixed(adv), max(0, fromFixed(-bounds.Min.Y)), max(0, fromFixed(bounds.Max.Y)), true
}

// SpaceGlue implements Spacer: the advance of U+0020, stretching by half
// and shrinking by a third of it.
func (s *SFNT) SpaceGlue(f Font) (dimen.Glue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	face := s.face(f.Name)
	if face == nil {
		return dimen.Glue{}, false
	}
	idx, err := face.GlyphIndex(&s.buf, ' ')
	if err != nil || idx == 0 {
		return dimen.Glue{}, false
	}
	adv, err := face.GlyphAdvance(&s.buf, idx, ppem(f.Size), xfont.HintingNone)
	if err != nil {
		return dimen.Glue{}, false
	}
	w := fromFixed(adv)
	return dimen.Glue{Width: w, Stretch: w / 2, Shrink: w / 3}, true
}

func ppem(size dimen.Dimen) fixed.Int26_6 {
	return fixed.Int26_6(int64(size) >> 10)
}

func fromFixed(v fixed.Int26_6) dimen.Dimen {
	return dimen.Dimen(int64(v) << 10)
}
