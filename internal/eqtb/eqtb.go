// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eqtb implements the equivalence table: one current value per
// scoped key, made reversible at group boundaries by a save stack.
//
// Local assignments log the previous value in the innermost open frame
// the first time a key is touched there. Global assignments write through
// and bump the key's generation; restore entries logged under an older
// generation are discarded when their frame closes, so a global value
// survives every enclosing group.
package eqtb

import (
	"errors"
	"strconv"
)

// Space partitions the key space.
type Space uint8

const (
	Meaning  Space = iota // control-sequence and active-character meanings
	Catcode               // category overrides, by character code
	SFCode                // space factor codes, by character code
	Count                 // \count registers
	Dimen                 // \dimen registers
	Skip                  // \skip registers
	Box                   // \box registers
	IntPar                // integer parameters, by name
	DimenPar              // dimen parameters, by name
	GluePar               // glue parameters, by name
	Font                  // the current font
)

func (s Space) String() string {
	switch s {
	case Meaning:
		return "meaning"
	case Catcode:
		return "catcode"
	case SFCode:
		return "sfcode"
	case Count:
		return "count"
	case Dimen:
		return "dimen"
	case Skip:
		return "skip"
	case Box:
		return "box"
	case IntPar:
		return "intpar"
	case DimenPar:
		return "dimenpar"
	case GluePar:
		return "gluepar"
	case Font:
		return "font"
	}
	return "unknown"
}

// Key addresses one scoped quantity. Registers and catcodes use N,
// meanings and parameters use Name.
type Key struct {
	Space Space
	Name  string
	N     int
}

func (k Key) String() string {
	switch k.Space {
	case Meaning, IntPar, DimenPar, GluePar:
		return "\\" + k.Name
	case Font:
		return "current font"
	}
	return "\\" + k.Space.String() + strconv.Itoa(k.N)
}

// ErrNoGroup is returned when closing a group at the bottom level.
var ErrNoGroup = errors.New("eqtb: no open group")

type entry struct {
	key  Key
	prev any
	had  bool
	gen  uint64
}

type frame struct {
	info    any
	entries []entry
	logged  map[Key]uint64
}

// Table is the equivalence table together with its save stack.
// It is owned by a single engine and is not safe for concurrent use.
type Table struct {
	values map[Key]any
	gens   map[Key]uint64
	frames []*frame
	def    func(Key) any

	// OnRestore, when set, observes each value put back on group exit.
	OnRestore func(k Key, v any)
}

// New creates a table. def supplies the value of keys never assigned.
func New(def func(Key) any) *Table {
	return &Table{
		values: make(map[Key]any),
		gens:   make(map[Key]uint64),
		def:    def,
	}
}

// Get returns the current value of k.
func (t *Table) Get(k Key) any {
	if v, ok := t.values[k]; ok {
		return v
	}
	if t.def != nil {
		return t.def(k)
	}
	return nil
}

// Assign writes v to k and returns the value it replaced.
func (t *Table) Assign(k Key, v any, global bool) any {
	old := t.Get(k)
	if global {
		t.values[k] = v
		t.gens[k]++
		return old
	}
	if n := len(t.frames); n > 0 {
		f := t.frames[n-1]
		gen := t.gens[k]
		if g, ok := f.logged[k]; !ok || g != gen {
			prev, had := t.values[k]
			f.entries = append(f.entries, entry{key: k, prev: prev, had: had, gen: gen})
			f.logged[k] = gen
		}
	}
	t.values[k] = v
	return old
}

// Poke writes v to k without logging a restore entry and without
// touching the generation, as TeX does when \box empties a register.
func (t *Table) Poke(k Key, v any) {
	t.values[k] = v
}

// Open pushes a save frame. info is handed back by Close.
func (t *Table) Open(info any) {
	t.frames = append(t.frames, &frame{info: info, logged: make(map[Key]uint64)})
}

// Close pops the innermost frame, restoring every entry whose generation
// is still current, in reverse order of logging.
func (t *Table) Close() (any, error) {
	n := len(t.frames)
	if n == 0 {
		return nil, ErrNoGroup
	}
	f := t.frames[n-1]
	t.frames = t.frames[:n-1]
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if t.gens[e.key] != e.gen {
			continue
		}
		if e.had {
			t.values[e.key] = e.prev
		} else {
			delete(t.values, e.key)
		}
		if t.OnRestore != nil {
			t.OnRestore(e.key, t.Get(e.key))
		}
	}
	return f.info, nil
}

// Depth returns the number of open frames.
func (t *Table) Depth() int {
	return len(t.frames)
}

// Top returns the info of the innermost frame, or nil at the bottom level.
func (t *Table) Top() any {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1].info
}

// Each calls fn for every explicitly assigned key. Iteration order is
// unspecified.
func (t *Table) Each(fn func(Key, any)) {
	for k, v := range t.values {
		fn(k, v)
	}
}
