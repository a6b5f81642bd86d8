// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner turns characters into tokens under a live category table.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/texfront/internal/token"
)

// Categorizer supplies the category table. It is consulted for every
// character read, so category changes take effect on the very next
// character.
type Categorizer interface {
	Category(r rune) token.Category
	// EndLineChar is appended to every input line; negative means none.
	EndLineChar() rune
}

type state int

const (
	newLine state = iota
	midLine
	skipBlanks
)

// InvalidCharError reports a character of category Invalid.
type InvalidCharError struct {
	Line int
	Char rune
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("line %d: text line contains an invalid character (U+%04X)", e.Line, e.Char)
}

// Scanner tokenizes input line by line.
type Scanner struct {
	reader *bufio.Reader
	cats   Categorizer
	buf    []rune
	pos    int
	line   int // Current line number (1-based)
	state  state
	done   bool
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader, cats Categorizer) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		cats:   cats,
		state:  newLine,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string, cats Categorizer) *Scanner {
	return New(strings.NewReader(s), cats)
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next token. At end of input it returns io.EOF.
func (s *Scanner) Next() (token.Token, error) {
	for {
		if s.pos >= len(s.buf) {
			ok, err := s.nextLine()
			if err != nil {
				return token.Token{}, err
			}
			if !ok {
				return token.Token{}, io.EOF
			}
			continue
		}
		s.decode(s.pos)
		r := s.buf[s.pos]
		s.pos++
		cat := s.cats.Category(r)
		switch cat {
		case token.Escape:
			return s.controlSequence(), nil
		case token.EndOfLine:
			s.pos = len(s.buf)
			prior := s.state
			s.state = newLine
			switch prior {
			case newLine:
				return token.NewCS("par"), nil
			case midLine:
				return token.SpaceToken, nil
			}
		case token.Space:
			if s.state == midLine {
				s.state = skipBlanks
				return token.SpaceToken, nil
			}
		case token.Ignored:
		case token.Comment:
			s.pos = len(s.buf)
		case token.Invalid:
			return token.Token{}, &InvalidCharError{Line: s.line, Char: r}
		default:
			s.state = midLine
			return token.NewChar(r, cat), nil
		}
	}
}

// nextLine loads the next input line, strips trailing blanks and appends
// the end-of-line character.
func (s *Scanner) nextLine() (bool, error) {
	if s.done {
		return false, nil
	}
	text, err := s.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if err == io.EOF {
		s.done = true
		if text == "" {
			return false, nil
		}
	}
	text = strings.TrimRight(text, " \r\n")
	s.buf = append(s.buf[:0], []rune(text)...)
	if c := s.cats.EndLineChar(); c >= 0 {
		s.buf = append(s.buf, c)
	}
	s.pos = 0
	s.line++
	s.state = newLine
	return true, nil
}

// decode collapses a ^^ sequence starting at p into the character it
// denotes, repeatedly, since the result may start another sequence.
func (s *Scanner) decode(p int) {
	for p+2 < len(s.buf) {
		c := s.buf[p]
		if s.cats.Category(c) != token.Superscript || s.buf[p+1] != c {
			return
		}
		c2 := s.buf[p+2]
		if c2 >= 128 {
			return
		}
		if p+3 < len(s.buf) && isHex(c2) && isHex(s.buf[p+3]) {
			s.buf[p] = hexVal(c2)<<4 | hexVal(s.buf[p+3])
			s.buf = append(s.buf[:p+1], s.buf[p+4:]...)
			continue
		}
		if c2 < 64 {
			s.buf[p] = c2 + 64
		} else {
			s.buf[p] = c2 - 64
		}
		s.buf = append(s.buf[:p+1], s.buf[p+3:]...)
	}
}

func (s *Scanner) controlSequence() token.Token {
	if s.pos >= len(s.buf) {
		s.state = midLine
		return token.NewCS("")
	}
	s.decode(s.pos)
	r := s.buf[s.pos]
	cat := s.cats.Category(r)
	if cat != token.Letter {
		s.pos++
		if cat == token.Space {
			s.state = skipBlanks
		} else {
			s.state = midLine
		}
		return token.NewCS(string(r))
	}
	start := s.pos
	for s.pos < len(s.buf) {
		s.decode(s.pos)
		if s.cats.Category(s.buf[s.pos]) != token.Letter {
			break
		}
		s.pos++
	}
	s.state = skipBlanks
	return token.NewCS(string(s.buf[start:s.pos]))
}

func isHex(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f'
}

func hexVal(r rune) rune {
	if r <= '9' {
		return r - '0'
	}
	return r - 'a' + 10
}
