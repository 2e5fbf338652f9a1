// Package github wraps the GitHub CLI (gh) for the pull-request and
// authentication operations the promoter needs.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Sentinel errors for gh operations.
var (
	// ErrGHNotFound indicates the gh binary is not on PATH.
	ErrGHNotFound = errors.New("github: gh CLI not found on PATH")

	// ErrNotAuthenticated indicates gh has no valid session.
	ErrNotAuthenticated = errors.New("github: gh is not authenticated, run `gh auth login`")

	// ErrPRAlreadyExists indicates a PR for this head/base pair already exists.
	ErrPRAlreadyExists = errors.New("github: pull request already exists")
)

// ghBin caches the resolved gh binary path.
var (
	ghBinOnce sync.Once
	ghBinPath string
	ghBinErr  error
)

// PRCreateOptions holds parameters for creating a pull request.
type PRCreateOptions struct {
	Title      string
	Body       string
	BaseBranch string
	HeadBranch string
}

// Client abstracts gh operations for testability.
type Client interface {
	// IsAuthenticated checks whether gh has a valid session.
	IsAuthenticated(ctx context.Context) error

	// PRCreate creates a pull request and returns its number and URL.
	PRCreate(ctx context.Context, opts PRCreateOptions) (int, string, error)
}

// execFunc runs a gh command; injected in tests.
type execFunc func(ctx context.Context, dir string, args ...string) (string, error)

// ghClient implements Client using the gh binary.
type ghClient struct {
	root   string
	logger *slog.Logger
	execFn execFunc
}

var _ Client = (*ghClient)(nil)

// NewClient creates a gh client rooted at the given repository directory.
func NewClient(root string) Client {
	return &ghClient{
		root:   root,
		logger: slog.Default().With("module", "github"),
	}
}

// NewClientWithExec creates a client with a custom exec function for tests.
func NewClientWithExec(root string, fn execFunc) Client {
	return &ghClient{
		root:   root,
		logger: slog.Default().With("module", "github"),
		execFn: fn,
	}
}

func (c *ghClient) exec(ctx context.Context, args ...string) (string, error) {
	if c.execFn != nil {
		return c.execFn(ctx, c.root, args...)
	}
	return execGH(ctx, c.root, args...)
}

// IsAuthenticated checks whether the gh CLI holds a valid session.
func (c *ghClient) IsAuthenticated(ctx context.Context) error {
	if _, err := c.exec(ctx, "auth", "status"); err != nil {
		return fmt.Errorf("check auth: %w", ErrNotAuthenticated)
	}
	return nil
}

// PRCreate creates a pull request and returns the new PR number and URL.
func (c *ghClient) PRCreate(ctx context.Context, opts PRCreateOptions) (int, string, error) {
	args := []string{
		"pr", "create",
		"--title", opts.Title,
		"--body", opts.Body,
	}
	if opts.BaseBranch != "" {
		args = append(args, "--base", opts.BaseBranch)
	}
	if opts.HeadBranch != "" {
		args = append(args, "--head", opts.HeadBranch)
	}

	c.logger.Debug("creating pull request", "title", opts.Title, "base", opts.BaseBranch)

	output, err := c.exec(ctx, args...)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return 0, "", fmt.Errorf("create PR: %w", ErrPRAlreadyExists)
		}
		return 0, "", fmt.Errorf("create PR: %w", err)
	}

	url := strings.TrimSpace(output)
	number, err := extractPRNumber(url)
	if err != nil {
		return 0, "", fmt.Errorf("parse PR number from %q: %w", output, err)
	}

	c.logger.Info("pull request created", "number", number, "base", opts.BaseBranch)
	return number, url, nil
}

// execGH runs a gh CLI command and returns its stdout output.
func execGH(ctx context.Context, dir string, args ...string) (string, error) {
	ghBinOnce.Do(func() {
		ghBinPath, ghBinErr = exec.LookPath("gh")
	})
	if ghBinErr != nil {
		return "", fmt.Errorf("gh lookup: %w", ErrGHNotFound)
	}

	cmd := exec.CommandContext(ctx, ghBinPath, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		if len(args) == 0 {
			return "", fmt.Errorf("gh: %s: %w", errMsg, err)
		}
		return "", fmt.Errorf("gh %s: %s: %w", args[0], errMsg, err)
	}

	return strings.TrimRight(stdout.String(), "\n\r"), nil
}

// extractPRNumber parses a PR number from the gh pr create output URL,
// e.g. https://github.com/owner/repo/pull/123.
func extractPRNumber(output string) (int, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return 0, fmt.Errorf("empty output")
	}

	parts := strings.Split(output, "/")
	if len(parts) < 2 {
		return 0, fmt.Errorf("unexpected URL format: %q", output)
	}
	if parts[len(parts)-2] != "pull" {
		return 0, fmt.Errorf("URL missing /pull/ segment: %q", output)
	}

	number, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, fmt.Errorf("parse PR number: %w", err)
	}
	if number <= 0 {
		return 0, fmt.Errorf("invalid PR number: %d", number)
	}
	return number, nil
}
