// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package texfront

import (
	"os"
	"path/filepath"
	"testing"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eval"
	"nickandperla.net/texfront/internal/store"
)

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPreludeLoaded(t *testing.T) {
	r := newRuntime(t)
	e := r.Engine()
	for _, name := range []string{"quad", "space", "loop", "bye", "bgroup"} {
		if e.Meaning(name) == "undefined" {
			t.Errorf("\\%s not defined by the prelude", name)
		}
	}

	boxes, err := r.ProcessString("Hello, World!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boxes) != 1 || box.Text(boxes[0]) != "Hello, World!" {
		t.Fatalf("got %d boxes", len(boxes))
	}
	// the paragraph starts with a 20pt indent
	if ind := boxes[0].List[0].(*box.Box); ind.Width != dimen.Pt(20) {
		t.Errorf("indent %v", ind.Width)
	}
}

func TestPreludeLoop(t *testing.T) {
	r := newRuntime(t)
	_, err := r.ProcessString(`\count1=0 \loop\advance\count1 by1 \ifnum\count1<5 \repeat`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Engine().Count(1); got != 5 {
		t.Errorf("count1=%d, want 5", got)
	}
}

func TestNoPrelude(t *testing.T) {
	r := newRuntime(t, WithNoPrelude())
	_, err := r.ProcessString(`\quad`)
	if KindOf(err) != eval.UndefinedControlSequence {
		t.Errorf("expected undefined control sequence, got %v", err)
	}
}

func TestCustomPrelude(t *testing.T) {
	r := newRuntime(t, WithPrelude(`\def\hi{hello}`))
	boxes, err := r.ProcessString(`\hi`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := box.Text(boxes[0]); got != "hello" {
		t.Errorf("got '%s'", got)
	}
	if r.Engine().Meaning("quad") != "undefined" {
		t.Error("a custom prelude replaces the plain one")
	}
}

func TestBadPrelude(t *testing.T) {
	if _, err := New(WithPrelude(`\undefinedthing`)); err == nil {
		t.Error("expected prelude error")
	}
}

func TestFormatsRoundTrip(t *testing.T) {
	s := store.NewMemory()
	r1 := newRuntime(t, WithStore(s), WithNoPrelude())
	if _, err := r1.ProcessString(`\def\x{y}\count5=9 `); err != nil {
		t.Fatal(err)
	}
	if err := r1.DumpFormat("mine"); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if _, err := r1.ProcessString(`\def\x{z}`); err != nil {
		t.Fatal(err)
	}
	if err := r1.DumpFormat("mine"); err != nil {
		t.Fatalf("dump: %v", err)
	}

	hist, err := r1.FormatHistory("mine", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[0].Version != 2 {
		t.Errorf("history %+v", hist)
	}

	r2 := newRuntime(t, WithStore(s), WithNoPrelude())
	if err := r2.LoadFormat("mine"); err != nil {
		t.Fatalf("load: %v", err)
	}
	boxes, err := r2.ProcessString(`\x`)
	if err != nil {
		t.Fatal(err)
	}
	if box.Text(boxes[0]) != "z" || r2.Engine().Count(5) != 9 {
		t.Errorf("format not restored")
	}
	if err := r2.LoadFormat("missing"); err == nil {
		t.Error("expected error for a missing format")
	}
}

func TestSQLiteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.db")
	r := newRuntime(t, WithSQLiteStore(path))
	if err := r.DumpFormat("plain"); err != nil {
		t.Fatalf("dump: %v", err)
	}

	r2 := newRuntime(t, WithSQLiteStore(path), WithNoPrelude())
	if err := r2.LoadFormat("plain"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if r2.Engine().Meaning("quad") != r.Engine().Meaning("quad") {
		t.Errorf("\\quad: %s", r2.Engine().Meaning("quad"))
	}
}

func TestNoStore(t *testing.T) {
	r := newRuntime(t, WithNoPrelude())
	if err := r.DumpFormat("x"); err != ErrNoStore {
		t.Errorf("got %v", err)
	}
	if _, err := r.FormatHistory("x", 0); err != ErrNoStore {
		t.Errorf("got %v", err)
	}
}

func TestTraceHookOption(t *testing.T) {
	var n int
	r := newRuntime(t, WithNoPrelude(), WithTraceHook(func(ev Event) {
		if ev.Kind == eval.BoxPacked {
			n++
		}
	}))
	if _, err := r.ProcessString(`\hbox{a}\hbox{b}`); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("saw %d packed boxes", n)
	}
}

func TestGoFonts(t *testing.T) {
	r := newRuntime(t, WithGoFonts())
	boxes, err := r.ProcessString(`Hi`)
	if err != nil {
		t.Fatal(err)
	}
	c := boxes[0].List[1].(box.Char)
	if c.Code != 'H' || c.Width <= 0 || c.Height <= 0 {
		t.Errorf("char %+v", c)
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.tex")
	if err := os.WriteFile(path, []byte("\\def\\a{A}\n\\a\\a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newRuntime(t, WithNoPrelude(), WithJobName(JobName(path)))
	boxes, err := r.ProcessFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if box.Text(boxes[0]) != "AA" {
		t.Errorf("got '%s'", box.Text(boxes[0]))
	}
	boxes, err = r.ProcessString(`\jobname`)
	if err != nil {
		t.Fatal(err)
	}
	if box.Text(boxes[0]) != "doc" {
		t.Errorf("jobname '%s'", box.Text(boxes[0]))
	}
}
