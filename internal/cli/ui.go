package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/twill/pkg/pipeline"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// Styles shared by the status lines and the browser.
var (
	StyleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim    = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue  = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	separator   = " · "
)

// statusOut receives status lines. stdout carries data only.
var statusOut io.Writer = os.Stderr

func status(icon string, style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(statusOut, style.Render(icon)+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(iconSuccess, styleIconSuccess, format, args...) }
func printError(format string, args ...any)   { status(iconError, styleIconError, format, args...) }
func printInfo(format string, args ...any)    { status(iconInfo, styleIconInfo, format, args...) }

// printDetail prints an indented, dimmed line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written output file.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints the resource counts of a transform and, on a second
// line, the time spent in each stage.
func printStats(s pipeline.Stats) {
	fmt.Fprintln(statusOut, "  "+statsLine(s))
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(timingsLine(s)))
}

func statsLine(s pipeline.Stats) string {
	parts := []string{
		count(s.Primary, "primary"),
		count(s.Resources, "resources"),
	}
	if s.Included > 0 {
		parts = append(parts, count(s.Included, "included"))
	}
	return strings.Join(parts, StyleDim.Render(separator))
}

func count(n int, label string) string {
	return StyleNumber.Render(fmt.Sprint(n)) + StyleDim.Render(" "+label)
}

func timingsLine(s pipeline.Stats) string {
	round := func(d time.Duration) string { return d.Round(time.Microsecond).String() }
	return strings.Join([]string{
		"normalize " + round(s.NormalizeTime),
		"deserialize " + round(s.DeserializeTime),
		"extract " + round(s.ExtractTime),
	}, separator)
}
