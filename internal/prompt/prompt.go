// Package prompt abstracts interactive operator input behind a Prompter
// so stages can be tested with scripted answers. Prompts go to the
// status stream (stderr), keeping stdout for stage progress.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter collects typed answers from the operator.
type Prompter interface {
	// Confirm asks a yes/no question. Empty input selects the default.
	Confirm(question string, def bool) (bool, error)
	// Select presents a numbered list and returns the chosen 0-based
	// index. A non-numeric or out-of-range answer is an error, not a
	// retry.
	Select(title string, options []string) (int, error)
}

// New returns an interactive Prompter: a TUI-backed one when stdin is a
// terminal, otherwise a plain line reader.
func New() Prompter {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return &TUIPrompter{fallback: &LinePrompter{}}
	}
	return &LinePrompter{}
}

// LinePrompter reads answers line by line.
type LinePrompter struct {
	In  io.Reader // defaults to os.Stdin
	Out io.Writer // defaults to os.Stderr

	reader *bufio.Reader
}

func (p *LinePrompter) in() *bufio.Reader {
	if p.reader == nil {
		src := p.In
		if src == nil {
			src = os.Stdin
		}
		p.reader = bufio.NewReader(src)
	}
	return p.reader
}

func (p *LinePrompter) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stderr
}

// Confirm asks a yes/no question.
func (p *LinePrompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out(), "%s [%s]: ", question, hint)

	line, err := readLine(p.in())
	if err != nil {
		return false, err
	}
	return parseYesNo(line, def), nil
}

// Select presents a numbered list and reads a 1-based index.
func (p *LinePrompter) Select(title string, options []string) (int, error) {
	fmt.Fprintf(p.out(), "%s\n", title)
	for i, option := range options {
		fmt.Fprintf(p.out(), "  %d) %s\n", i+1, option)
	}
	fmt.Fprintf(p.out(), "Selection [1-%d]: ", len(options))

	line, err := readLine(p.in())
	if err != nil {
		return 0, err
	}
	return parseSelection(line, len(options))
}

// readLine reads a single line, tolerating a missing trailing newline.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

func parseYesNo(answer string, def bool) bool {
	switch strings.ToLower(answer) {
	case "":
		return def
	case "y", "yes":
		return true
	default:
		return false
	}
}

func parseSelection(answer string, count int) (int, error) {
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q", answer)
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("selection %d out of range 1-%d", n, count)
	}
	return n - 1, nil
}
