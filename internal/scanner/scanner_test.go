// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package scanner

import (
	"errors"
	"io"
	"testing"

	"nickandperla.net/texfront/internal/token"
)

// initexCats is the category table INITEX starts with.
type initexCats map[rune]token.Category

func (c initexCats) Category(r rune) token.Category {
	if cat, ok := c[r]; ok {
		return cat
	}
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return token.Letter
	case r == '\\':
		return token.Escape
	case r == '%':
		return token.Comment
	case r == ' ':
		return token.Space
	case r == '\r':
		return token.EndOfLine
	case r == 0:
		return token.Ignored
	case r == 127:
		return token.Invalid
	}
	return token.Other
}

func (c initexCats) EndLineChar() rune { return '\r' }

func plainCats() initexCats {
	return initexCats{
		'{': token.BeginGroup,
		'}': token.EndGroup,
		'#': token.Parameter,
		'^': token.Superscript,
		'~': token.Active,
	}
}

func scanAll(t *testing.T, input string, cats Categorizer) token.List {
	t.Helper()
	s := NewFromString(input, cats)
	var out token.List
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("scan %q: %v", input, err)
		}
		out = append(out, tok)
	}
}

func TestControlSequenceNames(t *testing.T) {
	got := scanAll(t, `\foo\bar1\%x`, plainCats())
	want := token.List{
		token.NewCS("foo"),
		token.NewCS("bar"),
		token.NewChar('1', token.Other),
		token.NewCS("%"),
		token.NewChar('x', token.Letter),
		token.SpaceToken,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestSpacesCollapse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"runs collapse", "a   b", "a b "},
		{"leading blanks skipped", "   a", "a "},
		{"blank after word cs", `\relax   a`, `\relax a `},
		{"control space skips blanks", `\  a`, `\ a `},
		{"trailing blanks stripped", "a   \nb", "a b "},
		{"comment eats newline", "a%comment\nb", "ab "},
	}
	for _, tt := range tests {
		got := scanAll(t, tt.input, plainCats()).String()
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEmptyLineIsPar(t *testing.T) {
	got := scanAll(t, "a\n\nb", plainCats())
	want := token.List{
		token.NewChar('a', token.Letter),
		token.SpaceToken,
		token.NewCS("par"),
		token.NewChar('b', token.Letter),
		token.SpaceToken,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTrigraphs(t *testing.T) {
	got := scanAll(t, `^^41^^5a^^?`, initexCats{'^': token.Superscript, 127: token.Other})
	if got.String() != "AZ\x7f " {
		t.Errorf("got %q", got.String())
	}
	got = scanAll(t, `\^^66oo`, plainCats())
	if len(got) == 0 || got[0] != token.NewCS("foo") {
		t.Errorf("trigraph inside name: got %v", got)
	}
}

func TestGroupingAndActive(t *testing.T) {
	got := scanAll(t, "{~}", plainCats())
	if got[0].Cat != token.BeginGroup || got[1].Cat != token.Active || got[2].Cat != token.EndGroup {
		t.Errorf("got %#v", got)
	}
}

func TestInvalidChar(t *testing.T) {
	s := NewFromString("a\x7f", plainCats())
	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}
	_, err := s.Next()
	var ic *InvalidCharError
	if !errors.As(err, &ic) {
		t.Fatalf("expected InvalidCharError, got %v", err)
	}
	if ic.Char != 0x7f || ic.Line != 1 {
		t.Errorf("got %+v", ic)
	}
}

func TestLiveCategoryChanges(t *testing.T) {
	cats := plainCats()
	s := NewFromString("@a@", cats)
	tok, _ := s.Next()
	if tok.Cat != token.Other {
		t.Fatalf("@ should start as other, got %v", tok.Cat)
	}
	cats['@'] = token.Letter
	s.Next()
	tok, _ = s.Next()
	if tok.Cat != token.Letter {
		t.Errorf("@ should now be a letter, got %v", tok.Cat)
	}
}

func TestLineNumbers(t *testing.T) {
	s := NewFromString("a\nb\nc", plainCats())
	for want := 1; want <= 3; want++ {
		if _, err := s.Next(); err != nil {
			t.Fatal(err)
		}
		if s.Line() != want {
			t.Errorf("line: got %d, want %d", s.Line(), want)
		}
		s.Next() // end-of-line space
	}
}
