// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

func sampleSnapshot(n int64) *Snapshot {
	return &Snapshot{Entries: []Entry{
		{
			Key:  eqtb.Key{Space: eqtb.Meaning, Name: "hello"},
			Kind: KindMacro,
			Macro: &expr.Macro{
				Params: []expr.Elem{{Param: 1}},
				Body:   []expr.Elem{{Tok: token.NewChar('[', token.Other)}, {Param: 1}, {Tok: token.NewChar(']', token.Other)}},
			},
		},
		{Key: eqtb.Key{Space: eqtb.Count, N: 3}, Kind: KindInt, Int: n},
		{Key: eqtb.Key{Space: eqtb.GluePar, Name: "parskip"}, Kind: KindGlue, Glue: &dimen.Glue{Stretch: dimen.PT}},
	}}
}

func TestEncodeDecode(t *testing.T) {
	data, digest, err := Encode(sampleSnapshot(7))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Decode(data, digest)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Entries[0].Macro.String(); got != "macro:#1->[#1]" {
		t.Errorf("macro round trip: %q", got)
	}
	data[len(data)-2] ^= 1
	if _, err := Decode(data, digest); !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("tampered data: got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	if err := s.Put("plain", sampleSnapshot(1)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get("plain")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Entries[1].Int != 1 {
		t.Fatalf("expected count3=1, got %+v", got)
	}

	if err := s.Delete("plain"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = s.Get("plain")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestMemoryVersioning(t *testing.T) {
	s := NewMemory()
	s.Put("X", sampleSnapshot(1))
	s.Put("X", sampleSnapshot(2))
	s.Put("X", sampleSnapshot(2)) // unchanged: no new version

	entries, err := s.GetHistory("X", 0)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Version != 2 || entries[1].Version != 1 {
		t.Errorf("expected newest first, got %+v", entries)
	}
	if entries[0].Entries != 3 {
		t.Errorf("entry count %d", entries[0].Entries)
	}

	entries, _ = s.GetHistory("X", 1)
	if len(entries) != 1 || entries[0].Version != 2 {
		t.Errorf("limit 1: %+v", entries)
	}
	if entries, _ := s.GetHistory("nope", 0); entries != nil {
		t.Errorf("expected nil for nonexistent, got %v", entries)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	if err := s.Put("plain", sampleSnapshot(5)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get("plain")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Entries[1].Int != 5 {
		t.Errorf("expected 5, got %d", got.Entries[1].Int)
	}

	// Close and reopen to verify persistence
	s.Close()
	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s2.Close()

	got, err = s2.Get("plain")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got == nil || got.Entries[0].Macro.Arity() != 1 {
		t.Errorf("macro lost after reopen: %+v", got)
	}
	if v, _ := s2.GetMetadata("schema_version"); v != SchemaVersion {
		t.Errorf("schema version %q", v)
	}
	missing, err := s2.Get("nope")
	if err != nil || missing != nil {
		t.Errorf("missing format: %v %v", missing, err)
	}
}

func TestSQLiteVersioning(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "ver.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	s.Put("X", sampleSnapshot(1))
	s.Put("X", sampleSnapshot(2))
	s.Put("X", sampleSnapshot(2))

	entries, err := s.GetHistory("X", 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(entries) != 2 || entries[0].Version != 2 || entries[1].Version != 1 {
		t.Fatalf("history %+v", entries)
	}
	if entries[0].Digest == entries[1].Digest {
		t.Error("versions should differ in digest")
	}

	s.Delete("X")
	entries, _ = s.GetHistory("X", 0)
	if entries != nil {
		t.Errorf("expected nil after delete, got %v", entries)
	}
}

func TestSQLiteRejectsTamperedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tamper.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Put("X", sampleSnapshot(1))

	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec("UPDATE formats SET digest = 'bogus' WHERE name = 'X'"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("X"); !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("expected digest mismatch, got %v", err)
	}
}
