// Package prompt provides operator confirmation adapters.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/piforge/piforge/internal/ports"
)

// TerminalPrompter asks yes/no questions on the terminal.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter reading from in and writing to out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm prints the question and waits for a y/n answer.
// Anything other than "y" or "yes" is a decline.
func (p *TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", question); err != nil {
		return false, err
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// DeclineAll is the prompter for unattended runs: every question is
// answered "no", so a conflict can never terminate a foreign process
// without an operator present.
type DeclineAll struct{}

// NewDeclineAll creates a DeclineAll prompter.
func NewDeclineAll() *DeclineAll {
	return &DeclineAll{}
}

// Confirm always declines.
func (p *DeclineAll) Confirm(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// Ensure both prompters implement ports.Prompter.
var (
	_ ports.Prompter = (*TerminalPrompter)(nil)
	_ ports.Prompter = (*DeclineAll)(nil)
)
