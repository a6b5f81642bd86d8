// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package box

import (
	"fmt"
	"strings"

	"nickandperla.net/texfront/internal/dimen"
)

// Text renders the characters of a box, with interword glue as a single
// space and vertical list entries on separate lines.
func Text(b *Box) string {
	var sb strings.Builder
	writeText(&sb, b)
	return sb.String()
}

func writeText(sb *strings.Builder, b *Box) {
	for i, it := range b.List {
		switch it := it.(type) {
		case Char:
			sb.WriteRune(it.Code)
		case Glue:
			if it.Kind == Interword && b.Kind == HList {
				sb.WriteByte(' ')
			}
		case *Box:
			if b.Kind == VList && i > 0 && sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			writeText(sb, it)
		}
	}
}

// Show dumps a box the way \showbox does: one item per line, nesting
// marked by leading dots.
func Show(b *Box) string {
	var sb strings.Builder
	show(&sb, b, 0)
	return sb.String()
}

func show(sb *strings.Builder, it Item, depth int) {
	sb.WriteString(strings.Repeat(".", depth))
	switch it := it.(type) {
	case *Box:
		kind := "\\hbox"
		if it.Kind == VList {
			kind = "\\vbox"
		}
		fmt.Fprintf(sb, "%s(%s+%s)x%s", kind, scaled(it.Height), scaled(it.Depth), scaled(it.Width))
		if it.GlueSign != Unset && it.GlueSet != 0 {
			sb.WriteString(", glue set ")
			if it.GlueSign == Shrinking {
				sb.WriteString("- ")
			}
			fmt.Fprintf(sb, "%.5g", it.GlueSet)
			if it.GlueOrder != dimen.Normal {
				sb.WriteString(it.GlueOrder.String())
			}
		}
		if it.Shift != 0 {
			fmt.Fprintf(sb, ", shifted %s", scaled(it.Shift))
		}
		sb.WriteByte('\n')
		for _, c := range it.List {
			show(sb, c, depth+1)
		}
		return
	case Char:
		fmt.Fprintf(sb, "\\%s %c", it.Font, it.Code)
	case Glue:
		sb.WriteString("\\glue")
		if it.Kind != Explicit && it.Kind != Interword {
			fmt.Fprintf(sb, "(\\%s)", it.Kind)
		}
		sb.WriteByte(' ')
		sb.WriteString(it.Spec.String())
	case Kern:
		fmt.Fprintf(sb, "\\kern%s", scaled(it.Width))
	case Rule:
		fmt.Fprintf(sb, "\\rule(%s+%s)x%s", ruleDim(it.Height), ruleDim(it.Depth), ruleDim(it.Width))
	}
	sb.WriteByte('\n')
}

func scaled(d dimen.Dimen) string {
	return dimen.FormatScaled(int32(d))
}

func ruleDim(d dimen.Dimen) string {
	if d == Running {
		return "*"
	}
	return scaled(d)
}
