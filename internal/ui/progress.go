package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type progressImpl struct {
	theme    *Theme
	headless *HeadlessManager
	writer   io.Writer
}

// NewProgress creates a Progress writing to os.Stdout.
func NewProgress(theme *Theme, hm *HeadlessManager) Progress {
	return &progressImpl{theme: theme, headless: hm, writer: os.Stdout}
}

func newProgressImpl(theme *Theme, hm *HeadlessManager, w io.Writer) *progressImpl {
	return &progressImpl{theme: theme, headless: hm, writer: w}
}

// Start creates a determinate progress bar. Without a TTY it falls back
// to plain log lines.
func (p *progressImpl) Start(title string, total int) ProgressBar {
	if p.headless.IsHeadless() || p.theme.NoColor {
		return newPlainProgressBar(title, total, p.writer)
	}
	return newAnimatedProgressBar(p.theme, title, total)
}

// Spinner creates an indeterminate spinner. Without a TTY it prints the
// title once per change.
func (p *progressImpl) Spinner(title string) Spinner {
	if p.headless.IsHeadless() || p.theme.NoColor {
		return newPlainSpinner(title, p.writer)
	}
	return newAnimatedSpinner(p.theme, title)
}

// --- animated spinner ---

type spinnerTitleMsg string

type spinnerStopMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinnerModel(theme *Theme, title string) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	if !theme.NoColor {
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Colors.Primary))
	}
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTitleMsg:
		m.title = string(msg)
		return m, nil
	case spinnerStopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

type animatedSpinner struct {
	program *tea.Program
	once    sync.Once
}

func newAnimatedSpinner(theme *Theme, title string) *animatedSpinner {
	p := tea.NewProgram(newSpinnerModel(theme, title))
	s := &animatedSpinner{program: p}
	go func() {
		_, _ = p.Run()
	}()
	return s
}

func (s *animatedSpinner) SetTitle(title string) {
	s.program.Send(spinnerTitleMsg(title))
}

func (s *animatedSpinner) Stop() {
	s.once.Do(func() {
		s.program.Send(spinnerStopMsg{})
		s.program.Wait()
	})
}

// --- animated progress bar ---

type progressIncrMsg int

type progressTitleMsg string

type progressDoneMsg struct{}

type progressModel struct {
	bar     progress.Model
	title   string
	current int
	total   int
	done    bool
}

func newProgressModel(theme *Theme, title string, total int) progressModel {
	bar := progress.New(
		progress.WithGradient(theme.Colors.Primary, theme.Colors.Secondary),
		progress.WithWidth(40),
	)
	return progressModel{bar: bar, title: title, total: total}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressIncrMsg:
		m.current += int(msg)
		if m.current > m.total {
			m.current = m.total
		}
		return m, nil
	case progressTitleMsg:
		m.title = string(msg)
		return m, nil
	case progressDoneMsg:
		m.current = m.total
		m.done = true
		return m, tea.Quit
	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.current) / float64(m.total)
	}
	return m.bar.ViewAs(pct) + " " + fmt.Sprintf("[%d/%d] %s\n", m.current, m.total, m.title)
}

type animatedProgressBar struct {
	program *tea.Program
	once    sync.Once
}

func newAnimatedProgressBar(theme *Theme, title string, total int) *animatedProgressBar {
	p := tea.NewProgram(newProgressModel(theme, title, total))
	pb := &animatedProgressBar{program: p}
	go func() {
		_, _ = p.Run()
	}()
	return pb
}

func (b *animatedProgressBar) Increment(n int) {
	b.program.Send(progressIncrMsg(n))
}

func (b *animatedProgressBar) SetTitle(title string) {
	b.program.Send(progressTitleMsg(title))
}

func (b *animatedProgressBar) Done() {
	b.once.Do(func() {
		b.program.Send(progressDoneMsg{})
		b.program.Wait()
	})
}

// --- plain fallbacks ---

type plainProgressBar struct {
	title   string
	total   int
	current int
	writer  io.Writer
}

func newPlainProgressBar(title string, total int, w io.Writer) *plainProgressBar {
	return &plainProgressBar{title: title, total: total, writer: w}
}

func (b *plainProgressBar) Increment(n int) {
	b.current += n
	if b.current > b.total {
		b.current = b.total
	}
	_, _ = fmt.Fprintf(b.writer, "[%d/%d] %s\n", b.current, b.total, b.title)
}

func (b *plainProgressBar) SetTitle(title string) {
	b.title = title
}

func (b *plainProgressBar) Done() {
	b.current = b.total
	_, _ = fmt.Fprintf(b.writer, "[%d/%d] %s\n", b.current, b.total, b.title)
}

type plainSpinner struct {
	title  string
	writer io.Writer
}

func newPlainSpinner(title string, w io.Writer) *plainSpinner {
	s := &plainSpinner{title: title, writer: w}
	_, _ = fmt.Fprintf(w, "%s\n", title)
	return s
}

func (s *plainSpinner) SetTitle(title string) {
	s.title = title
	_, _ = fmt.Fprintf(s.writer, "%s\n", title)
}

func (s *plainSpinner) Stop() {}
