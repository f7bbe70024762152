// Package ui holds the terminal palette and output helpers of the CLI.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"notegraph/application/ports"
	"notegraph/infrastructure/prefs"
)

// Palette colours, switched by ApplyTheme
var (
	Brand  = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// ApplyTheme adjusts the palette for a dark or light terminal
func ApplyTheme(theme prefs.Theme) {
	if theme == prefs.ThemeLight {
		Brand = color.New(color.FgBlue, color.Bold)
		Subtle = color.New(color.FgBlack)
		Warn = color.New(color.FgMagenta)
		return
	}
	Brand = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn = color.New(color.FgYellow)
}

// StatusIcon returns a status icon string
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// Swatch renders a hex colour as a coloured block when the terminal allows
func Swatch(hex string) string {
	var r, g, b int
	if len(hex) == 7 {
		if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGB(r, g, b).Sprint("●")
		}
	}
	return "●"
}

// Table writes an aligned table
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// Notifier prints controller alerts to a terminal
type Notifier struct {
	mu     sync.Mutex
	w      io.Writer
	errors int
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier writing to w
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Notify implements ports.Notifier
func (n *Notifier) Notify(severity ports.Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if severity == ports.SeverityError {
		n.errors++
		fmt.Fprintf(n.w, "  %s %s\n", StatusIcon(false), Bad.Sprint(message))
		return
	}
	fmt.Fprintf(n.w, "  %s %s\n", StatusIcon(true), message)
}

// Errors returns how many error alerts were shown
func (n *Notifier) Errors() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errors
}
