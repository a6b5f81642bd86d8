// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package font defines the font-metric collaborator consulted when
// characters are appended to a horizontal list, with a fixed-pitch
// provider for tests and one backed by real outline fonts.
package font

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/texfront/internal/dimen"
)

func tracer() tracing.Trace {
	return tracing.Select("texfront.font")
}

// Font identifies a loaded font: an external name at a design size.
type Font struct {
	Name string
	Size dimen.Dimen
}

func (f Font) String() string {
	return fmt.Sprintf("%s at %s", f.Name, f.Size)
}

// Metrics answers character-dimension queries. Implementations must be
// pure: the same query always returns the same answer.
type Metrics interface {
	// Metrics returns the width, height and depth of code in f, or ok ==
	// false if the font has no such character.
	Metrics(f Font, code rune) (w, h, d dimen.Dimen, ok bool)
}

// Spacer is implemented by providers that know a font's interword glue.
type Spacer interface {
	SpaceGlue(f Font) (dimen.Glue, bool)
}

// Resolver is implemented by providers that can refuse unknown names
// in \font assignments.
type Resolver interface {
	Resolve(name string) bool
}

// DefaultSpace is the interword glue used when neither \spaceskip nor the
// font supplies one.
var DefaultSpace = dimen.Glue{
	Width:   218453, // 3.33333pt
	Stretch: 109226, // 1.66666pt
	Shrink:  72818,  // 1.11111pt
}

// Fixed is a synthetic monospaced font family: every character is half
// the design size wide and 0.7 of it tall; a few lowercase letters and
// punctuation marks descend by 0.2 of it.
type Fixed struct{}

// Metrics implements Metrics.
func (Fixed) Metrics(f Font, code rune) (w, h, d dimen.Dimen, ok bool) {
	if code < ' ' || code == 0x7f {
		return 0, 0, 0, false
	}
	w = f.Size / 2
	h = f.Size * 7 / 10
	switch code {
	case 'g', 'j', 'p', 'q', 'y', ',', ';', '(', ')':
		d = f.Size / 5
	}
	return w, h, d, true
}

// SpaceGlue implements Spacer.
func (Fixed) SpaceGlue(f Font) (dimen.Glue, bool) {
	return dimen.Glue{Width: f.Size / 3, Stretch: f.Size / 6, Shrink: f.Size / 9}, true
}
