// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"io"

	"nickandperla.net/texfront/internal/expr"
	"nickandperla.net/texfront/internal/token"
)

var parToken = token.NewCS("par")

// eofError converts end of input met while t still needed tokens into a
// runaway error; other errors pass through.
func (e *Engine) eofError(err error, t token.Token) error {
	if err == io.EOF {
		return e.fail(RunawayArgument, t, "file ended while scanning use of %s", t)
	}
	return err
}

// macroCall matches m's parameter text against the input and pushes the
// replacement text with the arguments substituted.
func (e *Engine) macroCall(t token.Token, m *expr.Macro) error {
	args := make([]token.List, 0, m.Arity())
	ps := m.Params
	for i := 0; i < len(ps); {
		if ps[i].Param == 0 {
			u, _, err := e.next()
			if err != nil {
				return e.eofError(err, t)
			}
			if u != ps[i].Tok {
				return e.fail(ArgumentMismatch, t, "use of %s doesn't match its definition", t)
			}
			i++
			continue
		}
		j := i + 1
		for j < len(ps) && ps[j].Param == 0 {
			j++
		}
		var delim token.List
		for _, el := range ps[i+1 : j] {
			delim = append(delim, el.Tok)
		}
		var arg token.List
		var err error
		if len(delim) == 0 {
			arg, err = e.undelimited(t, m.Long)
		} else {
			arg, err = e.delimited(t, delim, m.Long)
		}
		if err != nil {
			return err
		}
		args = append(args, arg)
		i = j
	}

	e.emit(Event{Kind: MacroExpanded, Token: t, Name: t.String(), Args: args})
	tracer().Debugf("%s%v", t, args)

	var out token.List
	for _, el := range m.Body {
		if el.Param > 0 {
			out = append(out, args[el.Param-1]...)
		} else {
			out = append(out, el.Tok)
		}
	}
	return e.push(out, t)
}

// undelimited reads one token or one balanced group, stripping the
// group's braces. Leading spaces are skipped.
func (e *Engine) undelimited(t token.Token, long bool) (token.List, error) {
	u, err := e.nextNonBlank()
	if err != nil {
		return nil, e.eofError(err, t)
	}
	switch {
	case u.Is(token.EndGroup):
		return nil, e.fail(UnmatchedGroup, u, "argument of %s has an extra }", t)
	case u == parToken && !long:
		return nil, e.fail(RunawayArgument, t, "paragraph ended before %s was complete", t)
	case !u.Is(token.BeginGroup):
		return token.List{u}, nil
	}
	var arg token.List
	level := 1
	for {
		u, _, err := e.next()
		if err != nil {
			return nil, e.eofError(err, t)
		}
		switch {
		case u == parToken && !long:
			return nil, e.fail(RunawayArgument, t, "paragraph ended before %s was complete", t)
		case u.Is(token.BeginGroup):
			level++
		case u.Is(token.EndGroup):
			level--
			if level == 0 {
				return arg, nil
			}
		}
		arg = append(arg, u)
	}
}

// delimited reads tokens up to the first occurrence of delim at brace
// level zero. The delimiter is consumed. An argument that is exactly one
// group loses its outer braces.
func (e *Engine) delimited(t token.Token, delim token.List, long bool) (token.List, error) {
	var arg token.List
	var levels []int
	level := 0
	for {
		u, _, err := e.next()
		if err != nil {
			return nil, e.eofError(err, t)
		}
		if u == parToken && !long {
			return nil, e.fail(RunawayArgument, t, "paragraph ended before %s was complete", t)
		}
		arg = append(arg, u)
		levels = append(levels, level)
		if level == 0 && endsWith(arg, levels, delim) {
			arg = arg[:len(arg)-len(delim)]
			levels = levels[:len(levels)-len(delim)]
			break
		}
		switch {
		case u.Is(token.BeginGroup):
			level++
		case u.Is(token.EndGroup):
			if level == 0 {
				return nil, e.fail(UnmatchedGroup, u, "argument of %s has an extra }", t)
			}
			level--
			levels[len(levels)-1] = level
		}
	}
	if n := len(arg); n >= 2 && arg[0].Is(token.BeginGroup) && arg[n-1].Is(token.EndGroup) {
		inner := true
		for _, l := range levels[1 : n-1] {
			if l == 0 {
				inner = false
				break
			}
		}
		if inner {
			arg = arg[1 : n-1]
		}
	}
	return arg, nil
}

// endsWith reports whether arg ends with delim, every delimiter token
// having been read at level zero.
func endsWith(arg token.List, levels []int, delim token.List) bool {
	n, k := len(arg), len(delim)
	if n < k {
		return false
	}
	for i := 0; i < k; i++ {
		if arg[n-k+i] != delim[i] || levels[n-k+i] != 0 {
			return false
		}
	}
	return true
}
