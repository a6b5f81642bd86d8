// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"nickandperla.net/texfront/pkg/texfront"
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "texfront (Ctrl+D to exit)")
	fmt.Fprintln(w, "Each line is processed on its own; definitions persist.")
	fmt.Fprintln(w, "End a line with \\\\ to continue it.")
	fmt.Fprintln(w)
}

func runREPL(runtime *texfront.Runtime, cfg *config, w io.Writer) {
	printBanner(w)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runBasicREPL(runtime, cfg, os.Stdin, w)
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		runBasicREPL(runtime, cfg, os.Stdin, w)
		return
	}
	defer term.Restore(fd, oldState)

	readLines(func(prompt string) (string, bool) {
		fmt.Fprint(w, prompt)
		line, eof := readLineRaw(os.Stdin, w)
		return line, !eof
	}, func(input string) {
		// raw mode needs explicit carriage returns
		var buf bytes.Buffer
		evalLine(runtime, cfg, input, &buf)
		fmt.Fprint(w, strings.ReplaceAll(buf.String(), "\n", "\r\n"))
	})
	fmt.Fprint(w, "\r\n")
}

// runBasicREPL handles input that is not a TTY.
func runBasicREPL(runtime *texfront.Runtime, cfg *config, r io.Reader, w io.Writer) {
	reader := bufio.NewReader(r)
	readLines(func(prompt string) (string, bool) {
		fmt.Fprint(w, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}
		return strings.TrimRight(line, "\r\n"), true
	}, func(input string) {
		evalLine(runtime, cfg, input, w)
	})
	fmt.Fprintln(w)
}

// readLines joins continued lines and hands complete input to process.
// A line ending in a doubled backslash continues on the next one; a
// single trailing backslash is a TeX control symbol.
func readLines(read func(prompt string) (string, bool), process func(string)) {
	var multiline strings.Builder
	inMultiline := false
	for {
		prompt := "* "
		if inMultiline {
			prompt = ". "
		}
		line, ok := read(prompt)
		if !ok {
			return
		}
		if strings.HasSuffix(line, `\\`) {
			multiline.WriteString(strings.TrimSuffix(line, `\\`))
			multiline.WriteString("\n")
			inMultiline = true
			continue
		}
		input := line
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		process(input)
	}
}

func evalLine(runtime *texfront.Runtime, cfg *config, input string, w io.Writer) {
	boxes, err := runtime.ProcessString(input)
	printBoxes(w, boxes, cfg.show)
	if err != nil {
		fmt.Fprintf(w, "! %v\n", err)
	}
}

// readLineRaw reads a line in raw mode with basic cursor editing.
// Returns the line and whether EOF was encountered.
func readLineRaw(in *os.File, w io.Writer) (string, bool) {
	var line []rune
	cursor := 0
	buf := make([]byte, 1)

	redrawFromCursor := func() {
		fmt.Fprint(w, "\x1b[K")
		fmt.Fprint(w, string(line[cursor:]))
		if cursor < len(line) {
			fmt.Fprintf(w, "\x1b[%dD", len(line)-cursor)
		}
	}
	insert := func(r rune) {
		line = append(line[:cursor], append([]rune{r}, line[cursor:]...)...)
		cursor++
		fmt.Fprint(w, string(r))
		if cursor < len(line) {
			redrawFromCursor()
		}
	}
	readByte := func() (byte, bool) {
		n, err := in.Read(buf)
		if err != nil || n == 0 {
			return 0, false
		}
		return buf[0], true
	}

	for {
		b, ok := readByte()
		if !ok {
			return string(line), true
		}

		switch b {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redrawFromCursor()
			}

		case 0x03: // Ctrl+C
			fmt.Fprint(w, "^C\r\n")
			return "", false

		case 0x0d, 0x0a:
			fmt.Fprint(w, "\r\n")
			return string(line), false

		case 0x7f, 0x08:
			if cursor > 0 {
				cursor--
				line = append(line[:cursor], line[cursor+1:]...)
				fmt.Fprint(w, "\b")
				redrawFromCursor()
			}

		case 0x1b: // ESC [ A/B/C/D or ESC [ 3 ~
			if c, ok := readByte(); !ok || c != '[' {
				continue
			}
			c, ok := readByte()
			if !ok {
				continue
			}
			switch c {
			case 'C':
				if cursor < len(line) {
					cursor++
					fmt.Fprint(w, "\x1b[C")
				}
			case 'D':
				if cursor > 0 {
					cursor--
					fmt.Fprint(w, "\x1b[D")
				}
			case '3':
				if t, ok := readByte(); ok && t == '~' && cursor < len(line) {
					line = append(line[:cursor], line[cursor+1:]...)
					redrawFromCursor()
				}
			}

		case 0x01: // Ctrl+A
			if cursor > 0 {
				fmt.Fprintf(w, "\x1b[%dD", cursor)
				cursor = 0
			}

		case 0x05: // Ctrl+E
			if cursor < len(line) {
				fmt.Fprintf(w, "\x1b[%dC", len(line)-cursor)
				cursor = len(line)
			}

		case 0x0b: // Ctrl+K
			if cursor < len(line) {
				line = line[:cursor]
				fmt.Fprint(w, "\x1b[K")
			}

		case 0x15: // Ctrl+U
			if cursor > 0 {
				fmt.Fprintf(w, "\x1b[%dD", cursor)
				line = line[cursor:]
				cursor = 0
				redrawFromCursor()
			}

		default:
			if b >= 0x20 && b < 0x7f {
				insert(rune(b))
			} else if b >= 0x80 {
				utf := []byte{b}
				more := 0
				switch {
				case b&0xE0 == 0xC0:
					more = 1
				case b&0xF0 == 0xE0:
					more = 2
				case b&0xF8 == 0xF0:
					more = 3
				}
				for i := 0; i < more; i++ {
					c, ok := readByte()
					if !ok {
						break
					}
					utf = append(utf, c)
				}
				insert([]rune(string(utf))[0])
			}
		}
	}
}
