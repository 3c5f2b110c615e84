// Copyright (c) Graphwise. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/graphwise/ttyg-client/ttyg"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

// consolePrinter implements [ttyg.Printer] with ANSI colors: errors red,
// informational output cyan, confirmations yellow.
type consolePrinter struct {
	w io.Writer
}

var _ ttyg.Printer = (*consolePrinter)(nil)

func newConsolePrinter(w io.Writer) *consolePrinter {
	return &consolePrinter{w: w}
}

func (p *consolePrinter) Plain(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *consolePrinter) Info(format string, args ...any) {
	p.colored(colorCyan, format, args...)
}

func (p *consolePrinter) Success(format string, args ...any) {
	p.colored(colorYellow, format, args...)
}

func (p *consolePrinter) Error(format string, args ...any) {
	p.colored(colorRed, format, args...)
}

func (p *consolePrinter) colored(color, format string, args ...any) {
	fmt.Fprintf(p.w, color+format+colorReset+"\n", args...)
}

// lineReader prompts and reads one line at a time.
type lineReader struct {
	scanner *bufio.Scanner
	out     *consolePrinter
}

func newLineReader(r io.Reader, out *consolePrinter) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(r), out: out}
}

// read prints the prompt and returns the next input line. The second return
// is false on EOF or a read error.
func (l *lineReader) read(prompt string) (string, bool) {
	fmt.Fprint(l.out.w, prompt)
	if !l.scanner.Scan() {
		return "", false
	}
	return l.scanner.Text(), true
}
