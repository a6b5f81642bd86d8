// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package expr

// Op identifies a primitive's behavior. Ops below firstUnexpandable are
// handled by the expansion engine, the rest by main control.
type Op int

const (
	OpExpandAfter Op = iota
	OpNoExpand
	OpCsname
	OpString
	OpNumber
	OpRomannumeral
	OpThe
	OpMeaning
	OpJobname

	// Conditionals
	OpIfChar
	OpIfCat
	OpIfNum
	OpIfDim
	OpIfOdd
	OpIfX
	OpIfTrue
	OpIfFalse
	OpIfVMode
	OpIfHMode
	OpIfInner
	OpIfVoid
	OpIfHBox
	OpIfVBox
	OpIfCase
	OpFi
	OpElse
	OpOr

	firstUnexpandable

	OpRelax
	OpPar
	OpEndcsname
	OpDef
	OpGdef
	OpEdef
	OpXdef
	OpLet
	OpFutureLet
	OpGlobal
	OpLong
	OpOuter
	OpChardef
	OpCountdef
	OpDimendef
	OpSkipdef
	OpCount
	OpDimen
	OpSkip
	OpIntParam
	OpDimenParam
	OpGlueParam
	OpPrevDepth
	OpSpaceFactor
	OpAdvance
	OpMultiply
	OpDivide
	OpCatcode
	OpSfcode
	OpSetbox
	OpBoxDimen
	OpFont
	OpBeginGroup
	OpEndGroup
	OpHskip
	OpVskip
	OpHglue
	OpVglue
	OpKern
	OpHrule
	OpVrule
	OpHbox
	OpVbox
	OpBox
	OpCopy
	OpMoveLeft
	OpMoveRight
	OpRaise
	OpLower
	OpIndent
	OpNoindent
	OpChar
	OpIgnoreSpaces
	OpMessage
	OpEnd
)

// IsConditional reports whether op opens a conditional.
func (op Op) IsConditional() bool {
	return op >= OpIfChar && op <= OpIfCase
}

// IsPrefix reports whether op is an assignment prefix.
func (op Op) IsPrefix() bool {
	return op == OpGlobal || op == OpLong || op == OpOuter
}

// IsAssignment reports whether op performs an assignment and therefore
// accepts \global.
func (op Op) IsAssignment() bool {
	switch op {
	case OpDef, OpGdef, OpEdef, OpXdef, OpLet, OpFutureLet,
		OpChardef, OpCountdef, OpDimendef, OpSkipdef,
		OpCount, OpDimen, OpSkip, OpIntParam, OpDimenParam, OpGlueParam, OpPrevDepth, OpSpaceFactor,
		OpAdvance, OpMultiply, OpDivide, OpCatcode, OpSfcode, OpSetbox, OpBoxDimen, OpFont:
		return true
	}
	return false
}
