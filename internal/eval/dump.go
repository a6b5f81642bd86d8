// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"errors"
	"fmt"
	"sort"

	"nickandperla.net/texfront/internal/dimen"
	"nickandperla.net/texfront/internal/eqtb"
	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/font"
	"nickandperla.net/texfront/internal/store"
	"nickandperla.net/texfront/internal/token"
)

// ErrGroupOpen is returned by Dump while a group is open.
var ErrGroupOpen = errors.New("eval: cannot dump a format inside a group")

// Dump snapshots every explicitly assigned equivalence. Primitives still
// bound to their own names and box registers are left out.
func (e *Engine) Dump() (*store.Snapshot, error) {
	if e.tab.Depth() > 0 {
		return nil, ErrGroupOpen
	}
	snap := &store.Snapshot{Version: store.FormatVersion}
	e.tab.Each(func(k eqtb.Key, v any) {
		if k.Space == eqtb.Box {
			return
		}
		ent := store.Entry{Key: k}
		switch v := v.(type) {
		case *expr.Macro:
			ent.Kind, ent.Macro = store.KindMacro, v
		case expr.Primitive:
			if k.Space == eqtb.Meaning && k.Name == v.Name {
				return
			}
			ent.Kind, ent.Prim = store.KindPrim, v.Name
		case expr.CharDef:
			ent.Kind, ent.Int = store.KindCharDef, int64(v.Code)
		case expr.RegisterDef:
			ent.Kind, ent.Register = store.KindRegister, &v
		case expr.CharLet:
			ent.Kind, ent.Token = store.KindCharLet, &v.Tok
		case expr.FontDef:
			ent.Kind, ent.Font = store.KindFontDef, &v.Font
		case expr.Undefined:
			return
		case int32:
			ent.Kind, ent.Int = store.KindInt, int64(v)
		case dimen.Dimen:
			ent.Kind, ent.Int = store.KindDimen, int64(v)
		case dimen.Glue:
			ent.Kind, ent.Glue = store.KindGlue, &v
		case token.Category:
			ent.Kind, ent.Int = store.KindCatcode, int64(v)
		case font.Font:
			ent.Kind, ent.Font = store.KindFont, &v
		default:
			tracer().Errorf("dump: skipping %s of type %T", k, v)
			return
		}
		snap.Entries = append(snap.Entries, ent)
	})
	sort.Slice(snap.Entries, func(i, j int) bool {
		a, b := snap.Entries[i].Key, snap.Entries[j].Key
		if a.Space != b.Space {
			return a.Space < b.Space
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.N < b.N
	})
	return snap, nil
}

// Load assigns every entry of a snapshot globally.
func (e *Engine) Load(s *store.Snapshot) error {
	if e.tab.Depth() > 0 {
		return ErrGroupOpen
	}
	for _, ent := range s.Entries {
		v, err := entryValue(ent)
		if err != nil {
			return err
		}
		e.tab.Assign(ent.Key, v, true)
	}
	tracer().Infof("loaded %d equivalences", len(s.Entries))
	return nil
}

func entryValue(ent store.Entry) (any, error) {
	missing := func() error {
		return fmt.Errorf("format entry %s: %s without payload", ent.Key, ent.Kind)
	}
	switch ent.Kind {
	case store.KindMacro:
		if ent.Macro == nil {
			return nil, missing()
		}
		return ent.Macro, nil
	case store.KindPrim:
		p, ok := primitiveByName[ent.Prim]
		if !ok {
			return nil, fmt.Errorf("format entry %s: unknown primitive %q", ent.Key, ent.Prim)
		}
		return p, nil
	case store.KindCharDef:
		return expr.CharDef{Code: rune(ent.Int)}, nil
	case store.KindRegister:
		if ent.Register == nil {
			return nil, missing()
		}
		return *ent.Register, nil
	case store.KindCharLet:
		if ent.Token == nil {
			return nil, missing()
		}
		return expr.CharLet{Tok: *ent.Token}, nil
	case store.KindFontDef:
		if ent.Font == nil {
			return nil, missing()
		}
		return expr.FontDef{Font: *ent.Font}, nil
	case store.KindInt:
		return int32(ent.Int), nil
	case store.KindDimen:
		return dimen.Dimen(ent.Int), nil
	case store.KindGlue:
		if ent.Glue == nil {
			return nil, missing()
		}
		return *ent.Glue, nil
	case store.KindCatcode:
		return token.Category(ent.Int), nil
	case store.KindFont:
		if ent.Font == nil {
			return nil, missing()
		}
		return *ent.Font, nil
	}
	return nil, fmt.Errorf("format entry %s: unknown kind %q", ent.Key, ent.Kind)
}
