// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"errors"
	"strings"
	"testing"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/token"
)

func process(t *testing.T, e *Engine, src string) []*box.Box {
	t.Helper()
	boxes, err := e.ProcessString(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return boxes
}

func text(t *testing.T, src string) string {
	t.Helper()
	s, err := render(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

// render processes src in a fresh engine and joins the text of the
// resulting boxes.
func render(src string) (string, error) {
	boxes, err := New().ProcessString(src)
	var parts []string
	for _, b := range boxes {
		parts = append(parts, box.Text(b))
	}
	return strings.Join(parts, "\n"), err
}

func TestHelloWorld(t *testing.T) {
	boxes := process(t, New(), "Hello, World!")
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	b := boxes[0]
	if b.Kind != box.HList {
		t.Errorf("expected an hbox, got %v", b.Kind)
	}
	if got := box.Text(b); got != "Hello, World!" {
		t.Errorf("expected 'Hello, World!', got '%s'", got)
	}
	// 12 characters at 5pt, one space of 10pt/3
	want := 12*dimen.Pt(5) + dimen.Pt(10)/3
	if b.Width != want {
		t.Errorf("width %v, want %v", b.Width, want)
	}
}

func TestHelloMacro(t *testing.T) {
	boxes := process(t, New(), `\def\hello#1{Hello, #1!}\hello{World}\par`)
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	if got := box.Text(boxes[0]); got != "Hello, World!" {
		t.Errorf("expected 'Hello, World!', got '%s'", got)
	}

	list := boxes[0].List
	var interword int
	for i, it := range list {
		g, ok := it.(box.Glue)
		if !ok || g.Kind != box.Interword {
			continue
		}
		interword++
		if c, ok := list[i-1].(box.Char); !ok || c.Code != ',' {
			t.Errorf("interword glue after %v", list[i-1])
		}
	}
	if interword != 1 {
		t.Errorf("%d interword glue items, want 1", interword)
	}
	if last := list[len(list)-1].(box.Glue); last.Kind != box.Parfillskip {
		t.Errorf("last item %v", last.Kind)
	}
}

func TestGroupScope(t *testing.T) {
	e := New()
	process(t, e, `\count1=5 {\count1=7 \dimen2=3pt}`)
	if got := e.Count(1); got != 5 {
		t.Errorf("local assignment leaked: count1=%d", got)
	}
	if got := e.Dimen(2); got != 0 {
		t.Errorf("dimen2=%v, want 0pt", got)
	}

	process(t, e, `{\global\count1=7 }`)
	if got := e.Count(1); got != 7 {
		t.Errorf("global assignment lost: count1=%d", got)
	}

	// a global assignment inside a group survives later local ones
	process(t, e, `{\count1=1 \global\count1=2 \count1=3 }`)
	if got := e.Count(1); got != 2 {
		t.Errorf("count1=%d, want 2", got)
	}
	if e.Depth() != 0 {
		t.Errorf("depth %d after balanced input", e.Depth())
	}
}

func TestBeginGroupEndGroup(t *testing.T) {
	e := New()
	process(t, e, `\begingroup\def\x{in}\endgroup`)
	if got := e.Meaning("x"); got != "undefined" {
		t.Errorf("\\x should be undefined, got %s", got)
	}
	_, err := e.ProcessString(`\begingroup }`)
	if KindOf(err) != UnmatchedGroup {
		t.Errorf("expected unmatched group, got %v", err)
	}
}

func TestMacros(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undelimited", `\def\foo#1{[#1]}\foo{bar}`, "[bar]"},
		{"single token", `\def\foo#1#2{#2#1}\foo ab`, "ba"},
		{"delimited", `\def\a#1,{X#1Y}\a{p,q},`, "Xp,qY"},
		{"delimited keeps inner braces", `\def\a#1.{#1}\a{x}{y}.`, "xy"},
		{"literal prefix", `\def\a.#1{#1}\a.z`, "z"},
		{"nested", `\def\b#1{(#1)}\def\a#1{\b{#1#1}}\a x`, "(xx)"},
		{"edef", `\def\b{B}\edef\a{\b\b}\def\b{C}\a`, "BB"},
		{"csname", `\expandafter\def\csname foo\endcsname{F}\foo`, "F"},
		{"expandafter", `\def\a{x}\def\b#1{[#1]}\expandafter\b\a`, "[x]"},
		{"let", `\def\a{A}\let\b=\a\def\a{Z}\b`, "A"},
		{"hash hash", `\def\a{\def\b##1{<##1>}}\a\b q`, "<q>"},
		{"brace delimited", `\def\a#1#{[#1]}\a x{y}`, "[x]y"},
	}
	for _, tt := range tests {
		got, err := render(tt.src)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected '%s', got '%s'", tt.name, tt.want, got)
		}
	}
}

func TestMeanings(t *testing.T) {
	e := New()
	process(t, e, `\def\b{B}\edef\a{\b\noexpand\b}\long\def\c#1{#1}\chardef\d=65 \countdef\n=7`)
	tests := map[string]string{
		"a":     `macro:->B\b`,
		"c":     `\long macro:#1->#1`,
		"d":     `\char"41`,
		"relax": `\relax`,
		"nope":  "undefined",
	}
	for name, want := range tests {
		if got := e.Meaning(name); got != want {
			t.Errorf("\\%s: expected '%s', got '%s'", name, want, got)
		}
	}
	if got := text(t, `\edef\a{\meaning\relax}\a`); got != `\relax` {
		t.Errorf("\\meaning: got '%s'", got)
	}
}

func TestConditionals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"nested false", `\iffalse\iftrue X\fi Y\else Z\fi`, "Z"},
		{"true branch", `\iftrue A\else B\fi`, "A"},
		{"ifnum", `\ifnum 3<5 yes\else no\fi`, "yes"},
		{"ifdim", `\ifdim 1in>72pt big\fi`, "big"},
		{"ifodd", `\ifodd 7 odd\fi`, "odd"},
		{"ifx macros", `\def\a{x}\def\b{x}\ifx\a\b same\else diff\fi`, "same"},
		{"ifx chars", `\ifx aa same\fi`, "same"},
		{"if expands", `\def\a{q}\if\a q eq\fi`, "eq"},
		{"ifcat", `\ifcat ab letters\fi`, "letters"},
		{"ifcase", `\ifcase 2 a\or b\or c\else d\fi`, "c"},
		{"ifcase else", `\ifcase 9 a\or b\else d\fi`, "d"},
		{"ifcase zero", `\ifcase 0 a\or b\fi`, "a"},
		{"ifvmode", `\ifvmode V\else H\fi`, "V"},
		{"ifhmode", `x\ifhmode H\fi`, "xH"},
		{"ifvoid", `\ifvoid 3 void\fi`, "void"},
		{"ifhbox", `\setbox1=\hbox{}\ifhbox1 h\fi`, "h"},
		{"noexpand undefined", `\expandafter\ifx\noexpand\undefined\relax R\else N\fi`, "R"},
	}
	for _, tt := range tests {
		got, err := render(tt.src)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected '%s', got '%s'", tt.name, tt.want, got)
		}
	}
}

func TestRegistersAndArithmetic(t *testing.T) {
	e := New()
	process(t, e, `\count1=5 \advance\count1 by 3 \multiply\count1 2 \count2=-17 \divide\count2 by 4 `)
	if got := e.Count(1); got != 16 {
		t.Errorf("count1=%d, want 16", got)
	}
	if got := e.Count(2); got != -4 {
		t.Errorf("count2=%d, want -4", got)
	}

	process(t, e, `\dimen0=1.5pt \dimen1=\dimen0 \advance\dimen1 by 2pt \skip2=1pt plus 2fil minus 3pt`)
	if got := e.Dimen(0); got != 98304 {
		t.Errorf("dimen0=%d sp, want 98304", got)
	}
	if got := e.Dimen(1); got != 229376 {
		t.Errorf("dimen1=%v", got)
	}
	g := e.Skip(2)
	if g.Width != dimen.Pt(1) || g.Stretch != dimen.Pt(2) || g.StretchOrder != dimen.Fil || g.Shrink != dimen.Pt(3) {
		t.Errorf("skip2=%v", g)
	}

	process(t, e, `\countdef\n=9 \n=42 \advance\n by\count1 `)
	if got := e.Count(9); got != 58 {
		t.Errorf("count9=%d, want 58", got)
	}
	if got := text(t, `\count3="1F \number\count3`); got != "31" {
		t.Errorf("hex constant: got '%s'", got)
	}
	if got := text(t, "\\count3=`A \\the\\count3"); got != "65" {
		t.Errorf("alphabetic constant: got '%s'", got)
	}
	if got := text(t, `\romannumeral 1984`); got != "mcmlxxxiv" {
		t.Errorf("roman: got '%s'", got)
	}
	if got := text(t, `\dimen0=2.5pt \the\dimen0`); got != "2.5pt" {
		t.Errorf("\\the dimen: got '%s'", got)
	}
}

func TestBoxes(t *testing.T) {
	e := New()
	process(t, e, `\setbox1=\hbox{\vrule width4pt height6pt depth0pt\vrule width6pt height2pt depth1pt}`)
	b := e.Box(1)
	if b == nil {
		t.Fatal("box1 is void")
	}
	if b.Width != dimen.Pt(10) || b.Height != dimen.Pt(6) || b.Depth != dimen.Pt(1) {
		t.Errorf("got %vx%v+%v, want 10pt x 6pt+1pt", b.Width, b.Height, b.Depth)
	}

	process(t, e, `\wd1=3pt`)
	if got := e.Box(1).Width; got != dimen.Pt(3) {
		t.Errorf("\\wd1=%v after assignment", got)
	}

	boxes := process(t, e, `\box1`)
	if len(boxes) != 1 || e.Box(1) != nil {
		t.Errorf("\\box should move the register to the list and void it")
	}

	process(t, e, `\setbox2=\hbox to 20pt{\hfil x\hfil}`)
	b = e.Box(2)
	if b.Width != dimen.Pt(20) || b.GlueSign != box.Stretching || b.GlueOrder != dimen.Fil {
		t.Errorf("hbox to: width %v sign %v order %v", b.Width, b.GlueSign, b.GlueOrder)
	}

	process(t, e, `\setbox3=\vbox{\hrule height 2pt\kern3pt\hbox{\vrule width1pt height4pt depth2pt}}`)
	b = e.Box(3)
	if b.Kind != box.VList || b.Height != dimen.Pt(9) || b.Depth != dimen.Pt(2) {
		t.Errorf("vbox: %v+%v", b.Height, b.Depth)
	}
}

func TestParagraphs(t *testing.T) {
	e := New()
	boxes := process(t, e, "First paragraph.\n\nSecond one.\\par")
	if len(boxes) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(boxes))
	}
	if box.Text(boxes[0]) != "First paragraph." || box.Text(boxes[1]) != "Second one." {
		t.Errorf("got '%s' / '%s'", box.Text(boxes[0]), box.Text(boxes[1]))
	}
	var kinds []box.GlueKind
	for _, it := range e.List() {
		if g, ok := it.(box.Glue); ok {
			kinds = append(kinds, g.Kind)
		}
	}
	want := []box.GlueKind{box.Parskip, box.Parskip, box.Lineskip}
	if len(kinds) != len(want) {
		t.Fatalf("glue kinds %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("glue %d: %v, want %v", i, kinds[i], want[i])
		}
	}

	// the paragraph ends with \parfillskip, not with the trailing space
	last := boxes[0].List[len(boxes[0].List)-1].(box.Glue)
	if last.Kind != box.Parfillskip {
		t.Errorf("last item %v", last.Kind)
	}
}

func TestBaselineskip(t *testing.T) {
	e := New()
	process(t, e, `\baselineskip=12pt \hbox{\vrule height7pt depth2pt}\hbox{\vrule height7pt depth2pt}`)
	var glue []box.Glue
	for _, it := range e.List() {
		if g, ok := it.(box.Glue); ok {
			glue = append(glue, g)
		}
	}
	if len(glue) != 1 || glue[0].Kind != box.Baselineskip || glue[0].Spec.Width != dimen.Pt(3) {
		t.Errorf("interline glue %v", glue)
	}
}

func TestSpaceFactor(t *testing.T) {
	e := New()
	boxes := process(t, e, `\sfcode`+"`"+`.=3000 \xspaceskip=9pt a. b`)
	var spaces []dimen.Dimen
	for _, it := range boxes[0].List {
		if g, ok := it.(box.Glue); ok && g.Kind == box.Interword {
			spaces = append(spaces, g.Spec.Width)
		}
	}
	if len(spaces) != 1 || spaces[0] != dimen.Pt(9) {
		t.Errorf("spaces %v, want [9pt]", spaces)
	}
}

func TestFonts(t *testing.T) {
	e := New()
	boxes := process(t, e, `\font\big=cmr10 at 20pt \big M`)
	c := boxes[0].List[len(boxes[0].List)-2].(box.Char)
	if c.Font != "cmr10" || c.Width != dimen.Pt(10) {
		t.Errorf("char %+v", c)
	}
	if got := e.Meaning("big"); got != "select font cmr10" {
		t.Errorf("meaning %s", got)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		src  string
		kind ErrorKind
	}{
		{`\undefined`, UndefinedControlSequence},
		{"a\x7f", LexError},
		{`\def\a#1{}\a`, RunawayArgument},
		{`\def\a#1{}\a{x`, RunawayArgument},
		{`\def\a#1{}\a{x\par}`, RunawayArgument},
		{`\iftrue x`, UnmatchedConditional},
		{`\iffalse x`, UnmatchedConditional},
		{`\fi`, UnmatchedConditional},
		{`\iffalse\else\else\fi`, UnmatchedConditional},
		{`\hbox{\vskip 1pt}`, ModeError},
		{`$x$`, ModeError},
		{`\hbox{\end}`, ModeError},
		{`\spacefactor=1000`, ModeError},
		{`\count256=1`, RegisterOutOfRange},
		{`\box-1`, RegisterOutOfRange},
		{`\count1=\hbox{}`, TypeMismatch},
		{`}`, UnmatchedGroup},
		{`{`, UnmatchedGroup},
		{`\endgroup`, UnmatchedGroup},
		{`\def\a{\a\a}\a`, ResourceExhausted},
		{`\def\a.{}\a,`, ArgumentMismatch},
		{`\global\hbox{}`, InvalidPrefix},
		{`\long\count1=1`, InvalidPrefix},
		{`\def5{}`, SyntaxError},
		{`\count1=5 \divide\count1 by 0`, SyntaxError},
		{`\dimen0=20000pt`, SyntaxError},
	}
	for _, tt := range tests {
		_, err := New().ProcessString(tt.src)
		if got := KindOf(err); got != tt.kind {
			t.Errorf("%s: expected %v, got %v (%v)", tt.src, tt.kind, got, err)
		}
	}
}

func TestErrorContext(t *testing.T) {
	_, err := New().ProcessString("{\n\\hbox{\\oops}")
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.Line != 2 || terr.Mode != RestrictedHorizontal || terr.Depth != 2 {
		t.Errorf("line %d mode %v depth %d", terr.Line, terr.Mode, terr.Depth)
	}
	if !strings.Contains(err.Error(), `\oops`) {
		t.Errorf("message should name the token: %v", err)
	}

	// range errors name the command that read the number
	for src, cs := range map[string]string{
		`\count300=1`:        "count",
		`\setbox256=\hbox{}`: "setbox",
		`\chardef\c=-1`:      "chardef",
		`\catcode-5=11`:      "catcode",
	} {
		_, err := New().ProcessString(src)
		if !errors.As(err, &terr) {
			t.Errorf("%s: expected *Error, got %v", src, err)
			continue
		}
		if terr.Token != token.NewCS(cs) {
			t.Errorf("%s: error token %v, want \\%s", src, terr.Token, cs)
		}
	}
}

func TestTailRecursionWithinLimit(t *testing.T) {
	e := New(WithMaxExpansions(10000))
	_, err := e.ProcessString(`\count1=0 \def\loop{\advance\count1 by 1 \ifnum\count1<500 \expandafter\loop\fi}\loop`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Count(1) != 500 {
		t.Errorf("count1=%d, want 500", e.Count(1))
	}

	e = New(WithMaxExpansions(1000))
	_, err = e.ProcessString(`\def\a{\a}\a`)
	if KindOf(err) != ResourceExhausted {
		t.Errorf("expected resource exhausted, got %v", err)
	}
}

func TestEndStopsInput(t *testing.T) {
	boxes := process(t, New(), `A\end B`)
	if len(boxes) != 1 || box.Text(boxes[0]) != "A" {
		t.Errorf("got %d boxes", len(boxes))
	}
}

func TestTraceHook(t *testing.T) {
	var events []Event
	e := New(WithHook(func(ev Event) { events = append(events, ev) }))
	process(t, e, `\def\a#1{#1}{\count1=2 }\a x`)

	var expanded, restored, changed bool
	for _, ev := range events {
		switch ev.Kind {
		case MacroExpanded:
			if ev.Name == `\a` && len(ev.Args) == 1 && ev.Args[0].String() == "x" {
				expanded = true
			}
		case Restore:
			if ev.Key == (eqtb.Key{Space: eqtb.Count, N: 1}) && ev.New == int32(0) {
				restored = true
			}
		case ModeChange:
			if ev.From == OuterVertical && ev.To == UnrestrictedHorizontal {
				changed = true
			}
		}
	}
	if !expanded || !restored || !changed {
		t.Errorf("expanded=%v restored=%v mode change=%v", expanded, restored, changed)
	}
}

func TestTracePrimitiveExpansion(t *testing.T) {
	var prims []Event
	e := New(WithHook(func(ev Event) {
		if ev.Kind == PrimitiveExpanded {
			prims = append(prims, ev)
		}
	}))
	process(t, e, `\ifnum1<2 \expandafter\relax\fi\number 12\relax`)

	var names []string
	for _, ev := range prims {
		names = append(names, ev.Name)
	}
	want := []string{`\ifnum`, `\expandafter`, `\fi`, `\number`}
	if strings.Join(names, " ") != strings.Join(want, " ") {
		t.Fatalf("primitive expansions %v, want %v", names, want)
	}
	if !prims[0].Cond {
		t.Error("\\ifnum 1<2 should report true")
	}
	if got := prims[1].Result.String(); got != `\relax\fi` {
		t.Errorf("\\expandafter result '%s'", got)
	}
	if got := prims[3].Result.String(); got != "12" {
		t.Errorf("\\number result '%s'", got)
	}

	prims = nil
	process(t, e, `\ifcase 2 a\or b\or c\fi`)
	if len(prims) == 0 || prims[0].Name != `\ifcase` || prims[0].Case != 2 {
		t.Errorf("\\ifcase event %+v", prims)
	}
}

func TestMessage(t *testing.T) {
	var msg string
	e := New(WithHook(func(ev Event) {
		if ev.Kind == Message {
			msg = ev.Text
		}
	}))
	process(t, e, `\count1=3 \message{count is \the\count1}`)
	if msg != "count is 3" {
		t.Errorf("message '%s'", msg)
	}
}

func TestDumpLoad(t *testing.T) {
	e := New()
	process(t, e, `\def\hello#1{[#1]}\count3=7 \let\x=\relax \chardef\c=66 \catcode`+"`"+`\!=11 \skip0=1pt plus 1fil`)
	snap, err := e.Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, ent := range snap.Entries {
		if ent.Key.Space == eqtb.Meaning && ent.Key.Name == "relax" {
			t.Errorf("builtin \\relax should not be dumped")
		}
	}

	f := New()
	if err := f.Load(snap); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Count(3) != 7 || f.Skip(0).StretchOrder != dimen.Fil {
		t.Errorf("registers not restored")
	}
	for _, name := range []string{"hello", "x", "c"} {
		if f.Meaning(name) != e.Meaning(name) {
			t.Errorf("\\%s: %s != %s", name, f.Meaning(name), e.Meaning(name))
		}
	}
	if got := box.Text(process(t, f, `\hello{z}\c`)[0]); got != "[z]B" {
		t.Errorf("got '%s'", got)
	}
	if f.Category('!') != 11 {
		t.Errorf("catcode of ! not restored")
	}
}

func TestProcessKeepsDefinitions(t *testing.T) {
	e := New()
	process(t, e, `\def\greet{hi}`)
	if got := box.Text(process(t, e, `\greet`)[0]); got != "hi" {
		t.Errorf("got '%s'", got)
	}
}
