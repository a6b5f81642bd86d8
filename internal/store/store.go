// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store provides persistence for formats: snapshots of the global
// equivalences an engine has accumulated, reloadable into a fresh engine.
package store

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/crypto/sha3"

	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/token"
)

func tracer() tracing.Trace {
	return tracing.Select("texfront.store")
}

// FormatVersion is the snapshot layout version written by Encode.
const FormatVersion = 1

// Entry kinds.
const (
	KindMacro    = "macro"
	KindPrim     = "primitive"
	KindCharDef  = "chardef"
	KindRegister = "register"
	KindCharLet  = "charlet"
	KindFontDef  = "fontdef"
	KindInt      = "int"
	KindDimen    = "dimen"
	KindGlue     = "glue"
	KindCatcode  = "catcode"
	KindFont     = "font"
)

// Entry is one global equivalence.
type Entry struct {
	Key      eqtb.Key          `json:"key"`
	Kind     string            `json:"kind"`
	Int      int64             `json:"int,omitempty"`
	Glue     *dimen.Glue       `json:"glue,omitempty"`
	Macro    *expr.Macro       `json:"macro,omitempty"`
	Token    *token.Token      `json:"token,omitempty"`
	Font     *font.Font        `json:"font,omitempty"`
	Register *expr.RegisterDef `json:"register,omitempty"`
	Prim     string            `json:"prim,omitempty"`
}

// Snapshot is a dumped format.
type Snapshot struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Store is the interface for format persistence.
type Store interface {
	// Get retrieves a snapshot by name. Returns nil if not found.
	Get(name string) (*Snapshot, error)
	// Put stores a snapshot by name, overwriting if it exists.
	Put(name string, s *Snapshot) error
	// Delete removes a snapshot by name.
	Delete(name string) error
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single stored version of a format.
type VersionEntry struct {
	Version int
	Digest  string
	Entries int
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	GetHistory(name string, limit int) ([]VersionEntry, error)
}

// ErrDigestMismatch is returned when stored data does not hash to its
// recorded digest.
var ErrDigestMismatch = errors.New("store: format digest mismatch")

// Encode serializes a snapshot and returns its sha3-256 digest.
func Encode(s *Snapshot) ([]byte, string, error) {
	if s.Version == 0 {
		s.Version = FormatVersion
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, "", fmt.Errorf("encode format: %w", err)
	}
	return data, Digest(data), nil
}

// Decode parses data after checking it against digest.
func Decode(data []byte, digest string) (*Snapshot, error) {
	if got := Digest(data); got != digest {
		tracer().Errorf("digest %s, recorded %s", got, digest)
		return nil, ErrDigestMismatch
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode format: %w", err)
	}
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d (expected %d)", s.Version, FormatVersion)
	}
	return &s, nil
}

// Digest returns the hex sha3-256 of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
