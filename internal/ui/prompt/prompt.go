// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Defines the interface for prompting the user for input
type Prompter interface {
	// Asks the user for confirmation by requiring them to type a specific expected value
	Confirm(message string, expectedValue string) (bool, error)
}

// New picks the interactive prompter when both streams are terminals and the line prompter otherwise
func New(in io.Reader, out io.Writer) Prompter {
	if isTerminal(in) && isTerminal(out) {
		return NewTerminalPrompter(in, out)
	}
	return NewStandardPrompter(in, out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Provides a standard implementation of the Prompter interface using specified input/output streams
type StandardPrompter struct {
	reader io.Reader
	writer io.Writer
}

// Creates a new StandardPrompter with the given input and output streams
func NewStandardPrompter(in io.Reader, out io.Writer) *StandardPrompter {
	return &StandardPrompter{
		reader: in,
		writer: out,
	}
}

func (p *StandardPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, fmt.Errorf("expected confirmation value cannot be empty")
	}

	fmt.Fprintln(p.writer, message)
	fmt.Fprintf(p.writer, "Only '%s' will be accepted to approve: ", expectedValue)

	reader := bufio.NewReader(p.reader)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("error reading user input: %w", err)
	}

	return strings.TrimSpace(input) == expectedValue, nil
}
