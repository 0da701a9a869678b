package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("#4ECDC4")
	warningColor = lipgloss.Color("#FFE66D")
	errorColor   = lipgloss.Color("#FF6B6B")
	subtleColor  = lipgloss.Color("#666666")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

// table writes tab separated rows aligned in columns.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(t.w, strings.Join(styled, "\t"))
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func printTitle(out io.Writer, title string) {
	fmt.Fprintln(out, titleStyle.Render(title))
}

func printSuccess(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf(format, args...)))
}

func printWarning(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf(format, args...)))
}

func printEmpty(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf(format, args...)))
}
