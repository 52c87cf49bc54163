// Package progress writes the timestamped terminal transcript of a demo run, colored
// by phase, and optionally mirrors it without colors to a log file.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ipkit/royaltydemo/pkg/config"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// palette holds the colors a logger prints with.
type palette struct {
	protecting *color.Color
	earning    *color.Color
	claiming   *color.Color
	done       *color.Color
	warn       *color.Color
	err        *color.Color
	timestamp  *color.Color
	info       *color.Color
}

// defaultPalette is used for colors missing from config.
func defaultPalette() palette {
	return palette{
		protecting: color.New(color.FgBlue),
		earning:    color.New(color.FgGreen),
		claiming:   color.New(color.FgMagenta),
		done:       color.New(color.FgCyan),
		warn:       color.New(color.FgYellow),
		err:        color.New(color.FgRed),
		timestamp:  color.New(color.FgWhite),
		info:       color.New(color.FgHiBlack),
	}
}

// newPalette builds a palette from "r,g,b" config values, keeping defaults for empty or bad ones.
func newPalette(cc config.ColorConfig) palette {
	p := defaultPalette()
	set := func(dst **color.Color, rgb string) {
		if c, ok := parseRGB(rgb); ok {
			*dst = c
		}
	}
	set(&p.protecting, cc.Protecting)
	set(&p.earning, cc.Earning)
	set(&p.claiming, cc.Claiming)
	set(&p.done, cc.Done)
	set(&p.warn, cc.Warn)
	set(&p.err, cc.Error)
	set(&p.timestamp, cc.Timestamp)
	set(&p.info, cc.Info)
	return p
}

// parseRGB parses an "r,g,b" string into a truecolor foreground.
func parseRGB(s string) (*color.Color, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, false
	}
	var rgb [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return nil, false
		}
		rgb[i] = v
	}
	return color.RGB(rgb[0], rgb[1], rgb[2]), true
}

// forPhase returns the message color of a phase.
func (p palette) forPhase(phase status.Phase) *color.Color {
	switch phase {
	case status.PhaseProtecting, status.PhaseProtected:
		return p.protecting
	case status.PhaseEarning:
		return p.earning
	case status.PhaseClaiming:
		return p.claiming
	case status.PhaseClaimed, status.PhaseCompleted:
		return p.done
	default:
		return p.info
	}
}

// Logger writes timestamped output to stdout and an optional log file.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	stdout    io.Writer
	startTime time.Time
	phase     status.Phase
	colors    palette
}

// Config holds logger configuration.
type Config struct {
	LogFile string             // transcript file, empty disables the file copy
	License string             // license shown in the log header
	NoColor bool               // disable color output (sets color.NoColor globally)
	Colors  config.ColorConfig // "r,g,b" colors from config, empty entries use defaults
}

// NewLogger creates a logger writing to stdout and, if configured, a log file.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}

	l := &Logger{
		stdout:    os.Stdout,
		startTime: time.Now(),
		phase:     status.PhaseInitial,
		colors:    newPalette(cfg.Colors),
	}

	if cfg.LogFile == "" {
		return l, nil
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.Create(cfg.LogFile) //nolint:gosec // path comes from cli option
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	l.file = f

	license := cfg.License
	if license == "" {
		license = "(chosen interactively)"
	}
	l.writeFile("# royaltydemo transcript\n")
	l.writeFile("License: %s\n", license)
	l.writeFile("Started: %s\n", l.startTime.Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the log file path, empty if there is none.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// SetPhase sets the current phase for color coding.
func (l *Logger) SetPhase(phase status.Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = phase
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] %s\n", timestamp, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.colors.forPhase(l.phase).Sprint(msg))
}

// PrintRaw writes without timestamp.
func (l *Logger) PrintRaw(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth)
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20 // default 80 columns minus timestamp
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wordLen := len(word)
		switch {
		case i == 0:
			result.WriteString(word)
			lineLen = wordLen
		case lineLen+1+wordLen <= width:
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wordLen
		default:
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wordLen
		}
	}
	return result.String()
}

// PrintAligned writes text with timestamp, handling multi-line content properly.
// the first line gets the timestamp, continuation lines are indented under it.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format(timestampFormat)
	phaseColor := l.colors.forPhase(l.phase)
	tsPrefix := l.colors.timestamp.Sprintf("[%s]", timestamp)
	indent := strings.Repeat(" ", 20) // aligns with "[YY-MM-DD HH:MM:SS] "

	width := getTerminalWidth()
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) <= width {
			lines = append(lines, line)
			continue
		}
		for wrapped := range strings.SplitSeq(wrapText(line, width), "\n") {
			lines = append(lines, wrapped)
		}
	}

	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, phaseColor.Sprint(line))
		default:
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, phaseColor.Sprint(line))
		}
	}
}

// Error writes an error message.
func (l *Logger) Error(format string, args ...any) {
	l.tagged(l.colors.err, "ERROR", format, args...)
}

// Warn writes a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.tagged(l.colors.warn, "WARN", format, args...)
}

// Info writes a message in the info color, regardless of phase.
func (l *Logger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)
	l.writeFile("[%s] %s\n", timestamp, msg)
	l.writeStdout("%s %s\n", l.colors.timestamp.Sprintf("[%s]", timestamp), l.colors.info.Sprint(msg))
}

func (l *Logger) tagged(c *color.Color, tag, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] %s: %s\n", timestamp, tag, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, c.Sprintf("%s: %s", tag, msg))
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes the footer and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Finished: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// writeFile writes to the log file. must be called with lock held.
func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

// writeStdout writes to stdout. must be called with lock held.
func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}
