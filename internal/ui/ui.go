// Package ui provides the terminal surfaces shared by every command:
// theme and styling, headless-mode detection, confirmation prompts, and
// progress display with plain-text fallbacks for non-TTY runs.
package ui

import "errors"

// ErrConfirmUnavailable is returned when a confirmation is required but
// no interactive terminal is attached and no override allows it.
var ErrConfirmUnavailable = errors.New("ui: confirmation required but no interactive terminal is attached")

// Palette holds the named colors of a theme as hex strings.
type Palette struct {
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
}

// Theme bundles the palette with rendering flags.
type Theme struct {
	Colors  Palette
	NoColor bool
}

// DefaultTheme returns the standard stencil palette.
func DefaultTheme() *Theme {
	return &Theme{
		Colors: Palette{
			Primary:   "#7C6FF0",
			Secondary: "#5AC8FA",
			Success:   "#34C759",
			Warning:   "#FF9F0A",
			Error:     "#FF453A",
		},
	}
}

// Confirmer asks the operator for approval before a risky step.
type Confirmer interface {
	// Confirm asks a yes/no question.
	Confirm(title string) (bool, error)

	// ConfirmTyped requires the operator to type phrase exactly. It is
	// used for the highest-stakes gates and never auto-approves.
	ConfirmTyped(title, phrase string) (bool, error)
}

// Spinner is an indeterminate activity indicator.
type Spinner interface {
	SetTitle(title string)
	Stop()
}

// ProgressBar is a determinate progress indicator.
type ProgressBar interface {
	Increment(n int)
	SetTitle(title string)
	Done()
}

// Progress creates spinners and progress bars appropriate for the
// current terminal (animated on a TTY, log lines otherwise).
type Progress interface {
	Start(title string, total int) ProgressBar
	Spinner(title string) Spinner
}
