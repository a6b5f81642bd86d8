// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Command texfront is the TeX front end CLI.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"

	"nickandperla.net/texfront/internal/box"
	"nickandperla.net/texfront/internal/eval"
	"nickandperla.net/texfront/internal/preview"
	"nickandperla.net/texfront/pkg/texfront"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	evalStr   string
	file      string
	dbPath    string
	format    string
	dump      string
	history   string
	noPrelude bool
	trace     bool
	goFonts   bool
	pngPath   string
	dpi       float64
	show      bool
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("texfront", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.evalStr, "e", "", "Process TeX string")
	fs.StringVar(&cfg.file, "f", "", "Process TeX file")
	fs.StringVar(&cfg.dbPath, "db", "texfront.db", "SQLite format database path")
	fs.StringVar(&cfg.format, "fmt", "", "Load a dumped format instead of the prelude")
	fs.StringVar(&cfg.dump, "dump", "", "Dump the definitions as a format after the run")
	fs.StringVar(&cfg.history, "history", "", "List the stored versions of a format and exit")
	fs.BoolVar(&cfg.noPrelude, "no-prelude", false, "Disable the plain prelude")
	fs.BoolVar(&cfg.trace, "trace", false, "Print engine events to stderr")
	fs.BoolVar(&cfg.goFonts, "gofonts", false, "Use Go font metrics")
	fs.StringVar(&cfg.pngPath, "png", "", "Write a preview image of the output")
	fs.Float64Var(&cfg.dpi, "dpi", 144, "Preview resolution")
	fs.BoolVar(&cfg.show, "show", false, "Print the full box structure")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *config) options(stderr io.Writer) []texfront.Option {
	var opts []texfront.Option
	if cfg.format != "" || cfg.dump != "" || cfg.history != "" {
		opts = append(opts, texfront.WithSQLiteStore(cfg.dbPath))
	}
	if cfg.noPrelude || cfg.format != "" {
		opts = append(opts, texfront.WithNoPrelude())
	}
	if cfg.trace {
		opts = append(opts, texfront.WithTraceHook(func(ev texfront.Event) {
			fmt.Fprintln(stderr, formatEvent(ev))
		}))
	}
	if cfg.goFonts {
		opts = append(opts, texfront.WithGoFonts())
	}
	if cfg.file != "" {
		opts = append(opts, texfront.WithJobName(texfront.JobName(cfg.file)))
	}
	return opts
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	runtime, err := texfront.New(cfg.options(stderr)...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer runtime.Close()

	if cfg.history != "" {
		hist, err := runtime.FormatHistory(cfg.history, 0)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		for _, v := range hist {
			digest := v.Digest
			if len(digest) > 12 {
				digest = digest[:12]
			}
			fmt.Fprintf(stdout, "%d\t%s\t%s\t%d entries\n", v.Version, v.Ts, digest, v.Entries)
		}
		return 0
	}

	if cfg.format != "" {
		if err := runtime.LoadFormat(cfg.format); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	var out []*box.Box
	process := func(boxes []*box.Box, err error) bool {
		out = append(out, boxes...)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return false
		}
		return true
	}

	switch {
	case cfg.file != "" || cfg.evalStr != "":
		// file first, then -e, sharing one equivalence table
		if cfg.file != "" && !process(runtime.ProcessFile(cfg.file)) {
			return 1
		}
		if cfg.evalStr != "" && !process(runtime.ProcessString(cfg.evalStr)) {
			return 1
		}

	case isTerminal(stdin):
		runREPL(runtime, cfg, stdout)
		return cfg.dumpFormat(runtime, stderr)

	default:
		if !process(runtime.Process(stdin)) {
			return 1
		}
	}

	if err := cfg.write(out, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return cfg.dumpFormat(runtime, stderr)
}

func (cfg *config) dumpFormat(runtime *texfront.Runtime, stderr io.Writer) int {
	if cfg.dump == "" {
		return 0
	}
	if err := runtime.DumpFormat(cfg.dump); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// write prints the boxes and renders the preview, if requested.
func (cfg *config) write(boxes []*box.Box, w io.Writer) error {
	printBoxes(w, boxes, cfg.show)
	if cfg.pngPath == "" {
		return nil
	}
	items := make([]box.Item, len(boxes))
	for i, b := range boxes {
		items[i] = b
	}
	page, _ := box.VPack(items, box.Natural)
	f, err := os.Create(cfg.pngPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, preview.Render(page, cfg.dpi)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printBoxes(w io.Writer, boxes []*box.Box, show bool) {
	for _, b := range boxes {
		if show {
			fmt.Fprint(w, box.Show(b))
			continue
		}
		if s := box.Text(b); s != "" {
			fmt.Fprintln(w, s)
		}
	}
}

func formatEvent(ev texfront.Event) string {
	prefix := fmt.Sprintf("{%d} %s", ev.Depth, ev.Kind)
	switch ev.Kind {
	case eval.TokenConsumed:
		return fmt.Sprintf("%s %s", prefix, ev.Token)
	case eval.MacroExpanded:
		return fmt.Sprintf("%s %s (%d args)", prefix, ev.Name, len(ev.Args))
	case eval.PrimitiveExpanded:
		switch {
		case len(ev.Result) > 0:
			return fmt.Sprintf("%s %s -> %s", prefix, ev.Name, ev.Result)
		case ev.Cond:
			return fmt.Sprintf("%s %s true", prefix, ev.Name)
		case ev.Case != 0:
			return fmt.Sprintf("%s %s case %d", prefix, ev.Name, ev.Case)
		}
		return fmt.Sprintf("%s %s", prefix, ev.Name)
	case eval.Assignment, eval.Restore:
		scope := ""
		if ev.Global {
			scope = " global"
		}
		return fmt.Sprintf("%s%s %s=%v", prefix, scope, ev.Key, ev.New)
	case eval.ModeChange:
		return fmt.Sprintf("%s %s -> %s", prefix, ev.From, ev.To)
	case eval.BoxPacked:
		if ev.Report.Status == box.Fine {
			return prefix
		}
		return fmt.Sprintf("%s %s badness %d", prefix, ev.Report.Status, ev.Report.Badness)
	case eval.Message:
		return fmt.Sprintf("%s %s", prefix, ev.Text)
	case eval.MissingChar:
		return fmt.Sprintf("%s %s in %s", prefix, ev.Token, ev.Name)
	}
	return prefix
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
