package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// interactiveConfirmer prompts through huh forms.
type interactiveConfirmer struct {
	theme     *Theme
	headless  *HeadlessManager
	assumeYes bool
}

// NewConfirmer builds the standard Confirmer. With assumeYes, plain
// confirmations auto-approve (the --yes flag); typed confirmations
// still require a real terminal, since they guard steps that must never
// run unattended.
func NewConfirmer(theme *Theme, hm *HeadlessManager, assumeYes bool) Confirmer {
	return &interactiveConfirmer{theme: theme, headless: hm, assumeYes: assumeYes}
}

func (c *interactiveConfirmer) Confirm(title string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	if c.headless.IsHeadless() {
		return false, fmt.Errorf("%w: %s", ErrConfirmUnavailable, title)
	}

	var approved bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&approved),
	)).WithTheme(c.formTheme()).WithAccessible(false)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return approved, nil
}

func (c *interactiveConfirmer) ConfirmTyped(title, phrase string) (bool, error) {
	if c.headless.IsHeadless() {
		return false, fmt.Errorf("%w: %s", ErrConfirmUnavailable, title)
	}

	var typed string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Description(fmt.Sprintf("Type %q to proceed, anything else to abort.", phrase)).
			Value(&typed),
	)).WithTheme(c.formTheme()).WithAccessible(false)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return typed == phrase, nil
}

// formTheme maps the stencil palette onto a huh theme.
func (c *interactiveConfirmer) formTheme() *huh.Theme {
	if c.theme.NoColor {
		return huh.ThemeBase()
	}
	return huh.ThemeCharm()
}

// StaticConfirmer answers every prompt with a fixed decision. It backs
// tests and exists so callers can be exercised without a terminal.
type StaticConfirmer struct {
	Approve bool

	// Prompts records every title asked, in order.
	Prompts []string
}

func (s *StaticConfirmer) Confirm(title string) (bool, error) {
	s.Prompts = append(s.Prompts, title)
	return s.Approve, nil
}

func (s *StaticConfirmer) ConfirmTyped(title, phrase string) (bool, error) {
	s.Prompts = append(s.Prompts, title)
	return s.Approve, nil
}
