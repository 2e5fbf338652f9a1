package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func headlessTheme() (*Theme, *HeadlessManager) {
	theme := DefaultTheme()
	theme.NoColor = true
	hm := NewHeadlessManager()
	hm.ForceHeadless(true)
	return theme, hm
}

func TestHeadlessManagerForce(t *testing.T) {
	hm := NewHeadlessManager()

	hm.ForceHeadless(true)
	if !hm.IsHeadless() {
		t.Error("forced headless not honored")
	}

	hm.ForceHeadless(false)
	if hm.IsHeadless() {
		t.Error("forced interactive not honored")
	}

	hm.ClearForce()
	// After clearing, detection falls back to the real TTY state; under
	// go test stdin is not a terminal.
	if !hm.IsHeadless() {
		t.Error("expected headless under test harness")
	}
}

func TestConfirmAssumeYes(t *testing.T) {
	theme, hm := headlessTheme()
	c := NewConfirmer(theme, hm, true)

	ok, err := c.Confirm("Push to origin?")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("assumeYes should auto-approve plain confirms")
	}
}

func TestConfirmHeadlessWithoutYesFails(t *testing.T) {
	theme, hm := headlessTheme()
	c := NewConfirmer(theme, hm, false)

	if _, err := c.Confirm("Push to origin?"); !errors.Is(err, ErrConfirmUnavailable) {
		t.Errorf("err = %v, want ErrConfirmUnavailable", err)
	}
}

func TestConfirmTypedNeverAutoApproves(t *testing.T) {
	theme, hm := headlessTheme()
	c := NewConfirmer(theme, hm, true)

	if _, err := c.ConfirmTyped("Deploy?", "deploy to production"); !errors.Is(err, ErrConfirmUnavailable) {
		t.Errorf("err = %v, want ErrConfirmUnavailable even with assumeYes", err)
	}
}

func TestStaticConfirmerRecordsPrompts(t *testing.T) {
	s := &StaticConfirmer{Approve: true}

	if ok, _ := s.Confirm("first"); !ok {
		t.Error("static approve not honored")
	}
	if ok, _ := s.ConfirmTyped("second", "phrase"); !ok {
		t.Error("static typed approve not honored")
	}
	if len(s.Prompts) != 2 || s.Prompts[0] != "first" || s.Prompts[1] != "second" {
		t.Errorf("prompts = %v", s.Prompts)
	}
}

func TestPlainSpinnerWritesTitles(t *testing.T) {
	theme, hm := headlessTheme()
	var buf bytes.Buffer
	p := newProgressImpl(theme, hm, &buf)

	s := p.Spinner("Cloning template")
	s.SetTitle("Stripping artifacts")
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Cloning template") || !strings.Contains(out, "Stripping artifacts") {
		t.Errorf("output = %q", out)
	}
}

func TestPlainProgressBarCapsAtTotal(t *testing.T) {
	theme, hm := headlessTheme()
	var buf bytes.Buffer
	p := newProgressImpl(theme, hm, &buf)

	bar := p.Start("Copying files", 3)
	bar.Increment(2)
	bar.Increment(5)
	bar.Done()

	if !strings.Contains(buf.String(), "[3/3] Copying files") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinnerModelLifecycle(t *testing.T) {
	m := newSpinnerModel(DefaultTheme(), "Waiting for deployment")

	updated, _ := m.Update(spinnerTitleMsg("Still waiting"))
	m = updated.(spinnerModel)
	if !strings.Contains(m.View(), "Still waiting") {
		t.Errorf("view = %q", m.View())
	}

	updated, cmd := m.Update(spinnerStopMsg{})
	m = updated.(spinnerModel)
	if !m.done || cmd == nil {
		t.Error("stop message should mark done and quit")
	}
	if m.View() != "" {
		t.Errorf("done view = %q", m.View())
	}
}

func TestProgressModelClampsAndQuits(t *testing.T) {
	m := newProgressModel(DefaultTheme(), "Copying", 4)

	updated, _ := m.Update(progressIncrMsg(10))
	m = updated.(progressModel)
	if m.current != 4 {
		t.Errorf("current = %d, want clamped to 4", m.current)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(progressModel)
	if !m.done {
		t.Error("ctrl+c should finish the bar")
	}
}
