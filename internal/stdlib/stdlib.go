// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package stdlib holds the default format source.
package stdlib

import _ "embed"

// Plain is the plain-like prelude: common spacing macros, parameters,
// space factor codes and the \loop construction.
//
//go:embed plain.tex
var Plain string
