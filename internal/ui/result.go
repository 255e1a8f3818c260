package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
)

// Result is a bordered outcome box
type Result struct {
	Type    ResultType
	Title   string   // e.g., "Settings written"
	Details []Param  // Shown in order
	Error   error    // For failure results
	Hints   []string // Suggestions shown under a failure
	Width   int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hints ...string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Hints: hints, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)

	lines := []string{""}
	color := SuccessColor
	if r.Type == ResultFailure {
		color = ErrorColor
		lines = append(lines, ErrorTitleStyle.Render(fmt.Sprintf(" %s  FAILED  ─  %s", FailureMarker, r.Title)), "")
		if r.Error != nil {
			lines = append(lines, ErrorMessageStyle.Render(" Error: "+r.Error.Error()), "")
		}
		for _, hint := range r.Hints {
			lines = append(lines, MutedStyle.Render("  • "+hint))
		}
		if len(r.Hints) > 0 {
			lines = append(lines, "")
		}
	} else {
		lines = append(lines, SuccessTitleStyle.Render(fmt.Sprintf(" %s  %s", SuccessMarker, r.Title)), "")
		if len(r.Details) > 0 {
			lines = append(lines, renderParams(r.Details, KeyStyle), "")
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details ...Param) string {
	return NewSuccessResult(title, details...).Render()
}

// RenderFailure renders a failure box with the given title, error and hints
func RenderFailure(title string, err error, hints ...string) string {
	return NewFailureResult(title, err, hints...).Render()
}
