package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stencil-dev/stencil/internal/github"
	"github.com/stencil-dev/stencil/internal/gitx"
	"github.com/stencil-dev/stencil/internal/health"
	"github.com/stencil-dev/stencil/internal/manifest"
	"github.com/stencil-dev/stencil/internal/ui"
)

// Dependencies is the Composition Root: the only place concrete types
// are instantiated and wired together. Commands reach collaborators
// through this struct, and tests swap them out.
type Dependencies struct {
	Logger   *slog.Logger
	Theme    *ui.Theme
	Headless *ui.HeadlessManager
	Verifier *health.Verifier

	// Project state, populated lazily by EnsureProject.
	ProjectRoot string
	Exports     manifest.Exports

	// Factories; tests replace these with fakes.
	NewGit func(dir string) *gitx.Client
	NewGH  func(dir string) github.Client
}

// deps is the process-wide instance, set by InitDependencies.
var deps *Dependencies

// InitDependencies wires the default dependency graph. Called once at
// startup; commands that need project state call EnsureProject.
func InitDependencies() {
	deps = &Dependencies{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Theme:    ui.DefaultTheme(),
		Headless: ui.NewHeadlessManager(),
		Verifier: health.NewVerifier(nil),
		NewGit:   gitx.New,
		NewGH:    github.NewClient,
	}
	slog.SetDefault(deps.Logger)
}

// GetDeps returns the current Dependencies, or nil before init.
func GetDeps() *Dependencies {
	return deps
}

// SetDeps replaces the dependency graph (tests only).
func SetDeps(d *Dependencies) {
	deps = d
}

// EnsureProject locates the enclosing project root and loads its
// deployment manifest. Idempotent after the first success.
func (d *Dependencies) EnsureProject() error {
	if d.ProjectRoot != "" {
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	root, err := manifest.LocateRoot(cwd)
	if err != nil {
		return err
	}
	m, err := manifest.Load(root)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	d.ProjectRoot = root
	d.Exports = m.ExportAll()
	return nil
}
