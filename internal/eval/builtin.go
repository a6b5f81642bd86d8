// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

// primitives is the initial contents of the meaning table.
var primitives = []expr.Primitive{
	{Name: "expandafter", Op: expr.OpExpandAfter},
	{Name: "noexpand", Op: expr.OpNoExpand},
	{Name: "csname", Op: expr.OpCsname},
	{Name: "endcsname", Op: expr.OpEndcsname},
	{Name: "string", Op: expr.OpString},
	{Name: "number", Op: expr.OpNumber},
	{Name: "romannumeral", Op: expr.OpRomannumeral},
	{Name: "the", Op: expr.OpThe},
	{Name: "meaning", Op: expr.OpMeaning},
	{Name: "jobname", Op: expr.OpJobname},

	{Name: "if", Op: expr.OpIfChar},
	{Name: "ifcat", Op: expr.OpIfCat},
	{Name: "ifnum", Op: expr.OpIfNum},
	{Name: "ifdim", Op: expr.OpIfDim},
	{Name: "ifodd", Op: expr.OpIfOdd},
	{Name: "ifx", Op: expr.OpIfX},
	{Name: "iftrue", Op: expr.OpIfTrue},
	{Name: "iffalse", Op: expr.OpIfFalse},
	{Name: "ifvmode", Op: expr.OpIfVMode},
	{Name: "ifhmode", Op: expr.OpIfHMode},
	{Name: "ifinner", Op: expr.OpIfInner},
	{Name: "ifvoid", Op: expr.OpIfVoid},
	{Name: "ifhbox", Op: expr.OpIfHBox},
	{Name: "ifvbox", Op: expr.OpIfVBox},
	{Name: "ifcase", Op: expr.OpIfCase},
	{Name: "fi", Op: expr.OpFi},
	{Name: "else", Op: expr.OpElse},
	{Name: "or", Op: expr.OpOr},

	{Name: "relax", Op: expr.OpRelax},
	{Name: "par", Op: expr.OpPar},
	{Name: "def", Op: expr.OpDef},
	{Name: "gdef", Op: expr.OpGdef},
	{Name: "edef", Op: expr.OpEdef},
	{Name: "xdef", Op: expr.OpXdef},
	{Name: "let", Op: expr.OpLet},
	{Name: "futurelet", Op: expr.OpFutureLet},
	{Name: "global", Op: expr.OpGlobal},
	{Name: "long", Op: expr.OpLong},
	{Name: "outer", Op: expr.OpOuter},
	{Name: "chardef", Op: expr.OpChardef},
	{Name: "countdef", Op: expr.OpCountdef},
	{Name: "dimendef", Op: expr.OpDimendef},
	{Name: "skipdef", Op: expr.OpSkipdef},
	{Name: "count", Op: expr.OpCount},
	{Name: "dimen", Op: expr.OpDimen},
	{Name: "skip", Op: expr.OpSkip},

	{Name: "tolerance", Op: expr.OpIntParam},
	{Name: "hbadness", Op: expr.OpIntParam},
	{Name: "vbadness", Op: expr.OpIntParam},
	{Name: "escapechar", Op: expr.OpIntParam},
	{Name: "endlinechar", Op: expr.OpIntParam},
	{Name: "mag", Op: expr.OpIntParam},
	{Name: "parindent", Op: expr.OpDimenParam},
	{Name: "hfuzz", Op: expr.OpDimenParam},
	{Name: "vfuzz", Op: expr.OpDimenParam},
	{Name: "lineskiplimit", Op: expr.OpDimenParam},
	{Name: "baselineskip", Op: expr.OpGlueParam},
	{Name: "lineskip", Op: expr.OpGlueParam},
	{Name: "parskip", Op: expr.OpGlueParam},
	{Name: "parfillskip", Op: expr.OpGlueParam},
	{Name: "spaceskip", Op: expr.OpGlueParam},
	{Name: "xspaceskip", Op: expr.OpGlueParam},
	{Name: "prevdepth", Op: expr.OpPrevDepth},
	{Name: "spacefactor", Op: expr.OpSpaceFactor},

	{Name: "advance", Op: expr.OpAdvance},
	{Name: "multiply", Op: expr.OpMultiply},
	{Name: "divide", Op: expr.OpDivide},
	{Name: "catcode", Op: expr.OpCatcode},
	{Name: "sfcode", Op: expr.OpSfcode},
	{Name: "setbox", Op: expr.OpSetbox},
	{Name: "wd", Op: expr.OpBoxDimen},
	{Name: "ht", Op: expr.OpBoxDimen},
	{Name: "dp", Op: expr.OpBoxDimen},
	{Name: "font", Op: expr.OpFont},

	{Name: "begingroup", Op: expr.OpBeginGroup},
	{Name: "endgroup", Op: expr.OpEndGroup},
	{Name: "hskip", Op: expr.OpHskip},
	{Name: "vskip", Op: expr.OpVskip},
	{Name: "hfil", Op: expr.OpHglue},
	{Name: "hfill", Op: expr.OpHglue},
	{Name: "hss", Op: expr.OpHglue},
	{Name: "hfilneg", Op: expr.OpHglue},
	{Name: "vfil", Op: expr.OpVglue},
	{Name: "vfill", Op: expr.OpVglue},
	{Name: "vss", Op: expr.OpVglue},
	{Name: "vfilneg", Op: expr.OpVglue},
	{Name: "kern", Op: expr.OpKern},
	{Name: "hrule", Op: expr.OpHrule},
	{Name: "vrule", Op: expr.OpVrule},
	{Name: "hbox", Op: expr.OpHbox},
	{Name: "vbox", Op: expr.OpVbox},
	{Name: "box", Op: expr.OpBox},
	{Name: "copy", Op: expr.OpCopy},
	{Name: "moveleft", Op: expr.OpMoveLeft},
	{Name: "moveright", Op: expr.OpMoveRight},
	{Name: "raise", Op: expr.OpRaise},
	{Name: "lower", Op: expr.OpLower},
	{Name: "indent", Op: expr.OpIndent},
	{Name: "noindent", Op: expr.OpNoindent},
	{Name: "char", Op: expr.OpChar},
	{Name: "ignorespaces", Op: expr.OpIgnoreSpaces},
	{Name: "message", Op: expr.OpMessage},
	{Name: "end", Op: expr.OpEnd},
}

var primitiveByName = func() map[string]expr.Primitive {
	m := make(map[string]expr.Primitive, len(primitives))
	for _, p := range primitives {
		m[p.Name] = p
	}
	return m
}()

var relax = primitiveByName["relax"]

var intParams = map[string]int32{
	"tolerance":   200,
	"hbadness":    1000,
	"vbadness":    1000,
	"escapechar":  '\\',
	"endlinechar": '\r',
	"mag":         1000,
}

var dimenParams = map[string]dimen.Dimen{}

var glueParams = map[string]dimen.Glue{
	"parfillskip": {Stretch: dimen.Unity, StretchOrder: dimen.Fil},
}

// fillGlue is the glue of \hfil and friends.
var fillGlue = map[string]dimen.Glue{
	"fil":    {Stretch: dimen.Unity, StretchOrder: dimen.Fil},
	"fill":   {Stretch: dimen.Unity, StretchOrder: dimen.Fill},
	"ss":     {Stretch: dimen.Unity, StretchOrder: dimen.Fil, Shrink: dimen.Unity, ShrinkOrder: dimen.Fil},
	"filneg": {Stretch: -dimen.Unity, StretchOrder: dimen.Fil},
}

func initialCatcode(r rune) token.Category {
	switch {
	case r == '\\':
		return token.Escape
	case r == '{':
		return token.BeginGroup
	case r == '}':
		return token.EndGroup
	case r == '$':
		return token.MathShift
	case r == '&':
		return token.AlignTab
	case r == '\r':
		return token.EndOfLine
	case r == '#':
		return token.Parameter
	case r == '^':
		return token.Superscript
	case r == '_':
		return token.Subscript
	case r == 0:
		return token.Ignored
	case r == ' ' || r == '\t':
		return token.Space
	case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		return token.Letter
	case r == '~':
		return token.Active
	case r == '%':
		return token.Comment
	case r == 0x7f:
		return token.Invalid
	}
	return token.Other
}
