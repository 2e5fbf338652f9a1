// Package prereq validates that the external tools the deployment
// toolchain shells out to are installed and authenticated before any
// mutation happens. All missing tools are accumulated into one report so
// the operator can fix everything in a single pass.
package prereq

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotAuthenticated indicates the GitHub CLI has no valid session.
var ErrNotAuthenticated = errors.New("prereq: gh is not authenticated")

// Tool sets for each command family.
var (
	// DeployTools are required by deploy and verify commands.
	DeployTools = []string{"git", "gh", "node", "npm"}

	// BootstrapTools are the minimal set required by stencil init.
	BootstrapTools = []string{"git", "node"}
)

// installHints maps tool names to a one-line remediation.
var installHints = map[string]string{
	"git":  "https://git-scm.com/downloads",
	"gh":   "https://cli.github.com",
	"node": "https://nodejs.org (includes npm)",
	"npm":  "https://nodejs.org (includes npm)",
}

// MissingToolsError enumerates every required tool absent from PATH.
type MissingToolsError struct {
	Missing []string
}

// Error implements the error interface.
func (e *MissingToolsError) Error() string {
	lines := make([]string, 0, len(e.Missing))
	for _, tool := range e.Missing {
		if hint, ok := installHints[tool]; ok {
			lines = append(lines, fmt.Sprintf("%s (install: %s)", tool, hint))
		} else {
			lines = append(lines, tool)
		}
	}
	return fmt.Sprintf("missing required tools: %s", strings.Join(lines, ", "))
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CheckTools tests each named tool for availability on PATH. It does not
// stop at the first failure; if any are missing it returns a
// MissingToolsError naming all of them.
func CheckTools(required ...string) error {
	var missing []string
	for _, tool := range required {
		if _, err := lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return &MissingToolsError{Missing: missing}
	}
	return nil
}

// AuthProbe reports whether the GitHub CLI has a valid session.
// Injected so tests do not need a real gh binary.
type AuthProbe func(ctx context.Context) error

// GHAuthProbe runs `gh auth status` and returns its error, if any.
func GHAuthProbe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "gh", "auth", "status")
	return cmd.Run()
}

// CheckGitHubAuth fails with ErrNotAuthenticated when the probe reports
// no valid session. The failure names the remediation command.
func CheckGitHubAuth(ctx context.Context, probe AuthProbe) error {
	if probe == nil {
		probe = GHAuthProbe
	}
	if err := probe(ctx); err != nil {
		return fmt.Errorf("%w: run `gh auth login`", ErrNotAuthenticated)
	}
	return nil
}
