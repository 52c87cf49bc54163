// Package input provides terminal prompts of the demo: the license pick and the claim confirmation.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// ErrCanceled is returned when the user backs out of a prompt.
var ErrCanceled = errors.New("selection canceled")

// Collector provides interactive input collection.
type Collector interface {
	// AskQuestion presents a question with options and returns the selected option text.
	AskQuestion(ctx context.Context, question string, options []string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string) (bool, error)
}

// TerminalCollector implements Collector using fzf (if available) or numbered selection fallback.
type TerminalCollector struct {
	stdin  *bufio.Reader
	stdout io.Writer
	noFzf  bool
}

// NewTerminalCollector creates a new TerminalCollector with default stdin/stdout.
func NewTerminalCollector() *TerminalCollector {
	return NewCollector(os.Stdin, os.Stdout, false)
}

// NewCollector creates a collector reading from in and writing prompts to out.
// noFzf forces the numbered fallback.
func NewCollector(in io.Reader, out io.Writer, noFzf bool) *TerminalCollector {
	return &TerminalCollector{stdin: bufio.NewReader(in), stdout: out, noFzf: noFzf}
}

// AskQuestion presents options using fzf if available, otherwise falls back to numbered selection.
func (c *TerminalCollector) AskQuestion(ctx context.Context, question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options provided")
	}
	if !c.noFzf && hasFzf() {
		return c.selectWithFzf(ctx, question, options)
	}
	return c.selectWithNumbers(question, options)
}

// Confirm reads y/yes or n/no, empty input counts as yes.
func (c *TerminalCollector) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	_, _ = fmt.Fprintf(c.stdout, "%s [Y/n]: ", question)
	line, err := c.stdin.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return false, fmt.Errorf("read input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid answer: %q", strings.TrimSpace(line))
	}
}

// hasFzf checks if fzf is available in PATH.
func hasFzf() bool {
	_, err := exec.LookPath("fzf")
	return err == nil
}

// selectWithFzf uses fzf for interactive selection.
func (c *TerminalCollector) selectWithFzf(ctx context.Context, question string, options []string) (string, error) {
	cmd := exec.CommandContext(ctx, "fzf", "--prompt", question+": ", "--height", "10", "--layout=reverse") //nolint:gosec // fixed prompt text
	cmd.Stdin = strings.NewReader(strings.Join(options, "\n"))
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		// fzf returns exit code 130 when user presses Escape
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 130 {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("fzf selection failed: %w", err)
	}

	selected := strings.TrimSpace(string(output))
	if selected == "" {
		return "", errors.New("no selection made")
	}
	return selected, nil
}

// selectWithNumbers presents numbered options for selection via stdin.
func (c *TerminalCollector) selectWithNumbers(question string, options []string) (string, error) {
	_, _ = fmt.Fprintln(c.stdout)
	_, _ = fmt.Fprintln(c.stdout, question)
	for i, opt := range options {
		_, _ = fmt.Fprintf(c.stdout, "  %d) %s\n", i+1, opt)
	}
	_, _ = fmt.Fprintf(c.stdout, "Enter number (1-%d): ", len(options))

	line, err := c.stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	line = strings.TrimSpace(line)
	num, err := strconv.Atoi(line)
	if err != nil {
		return "", fmt.Errorf("invalid number: %s", line)
	}
	if num < 1 || num > len(options) {
		return "", fmt.Errorf("selection out of range: %d (must be 1-%d)", num, len(options))
	}
	return options[num-1], nil
}

// LicenseOption is the prompt line of a license, e.g. "commercial: Commercial Use (Earn Revenue)".
func LicenseOption(l catalog.License) string {
	return fmt.Sprintf("%s: %s (%s)", l.ID, l.Title, l.Tag)
}

// AskLicense prompts for one of the catalog licenses.
func AskLicense(ctx context.Context, c Collector) (status.License, error) {
	licenses := catalog.Licenses()
	options := make([]string, 0, len(licenses))
	for _, l := range licenses {
		options = append(options, LicenseOption(l))
	}

	answer, err := c.AskQuestion(ctx, "Choose a license for your IP", options)
	if err != nil {
		return status.LicenseNone, err
	}
	id, _, _ := strings.Cut(answer, ":")
	license, ok := status.ParseLicense(id)
	if !ok {
		return status.LicenseNone, fmt.Errorf("unknown license %q", id)
	}
	return license, nil
}

// AskClaim asks whether to claim the royalties shown.
func AskClaim(ctx context.Context, c Collector, royalties int) (bool, error) {
	return c.Confirm(ctx, "Claim "+catalog.Money(royalties)+" in royalties?")
}
