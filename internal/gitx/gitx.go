// Package gitx shells out to the git binary for every repository
// operation the toolchain performs. Failures surface git's own stderr
// verbatim so the operator sees the real diagnostic, not a paraphrase.
package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation. Pushes get a longer
// deadline since they talk to the network.
const (
	DefaultTimeout = 10 * time.Second
	PushTimeout    = 120 * time.Second
)

// Result captures one git invocation.
type Result struct {
	Stdout     string
	Stderr     string
	ReturnCode int
	Err        error
}

// Success reports whether the command exited zero.
func (r Result) Success() bool {
	return r.Err == nil && r.ReturnCode == 0
}

// Runner executes a git command in dir. Injected so gates can be tested
// without a real repository.
type Runner func(ctx context.Context, dir string, args ...string) Result

// Client runs git operations rooted at one working directory.
type Client struct {
	dir string
	run Runner
}

// New creates a Client rooted at dir using the real git binary.
func New(dir string) *Client {
	return &Client{dir: dir, run: execGit}
}

// NewWithRunner creates a Client with an injected runner (for tests).
func NewWithRunner(dir string, run Runner) *Client {
	return &Client{dir: dir, run: run}
}

// execGit invokes the git binary with a bounded context.
func execGit(ctx context.Context, dir string, args ...string) Result {
	timeout := DefaultTimeout
	if len(args) > 0 && args[0] == "push" {
		timeout = PushTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err != nil {
		res.Err = err
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ReturnCode = exitErr.ExitCode()
		} else {
			res.ReturnCode = 1
		}
	}
	return res
}

// fail formats a git failure preserving the tool's own stderr.
func fail(op string, res Result) error {
	msg := res.Stderr
	if msg == "" && res.Err != nil {
		msg = res.Err.Error()
	}
	return fmt.Errorf("git %s: %s", op, msg)
}

// IsInsideWorkTree reports whether dir is inside a git work tree.
func (c *Client) IsInsideWorkTree(ctx context.Context) bool {
	res := c.run(ctx, c.dir, "rev-parse", "--is-inside-work-tree")
	return res.Success() && strings.TrimSpace(res.Stdout) == "true"
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	res := c.run(ctx, c.dir, "branch", "--show-current")
	if !res.Success() {
		return "", fail("branch --show-current", res)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// DirtyFiles returns the porcelain status lines for uncommitted changes,
// staged or unstaged. Empty means the working tree is clean.
func (c *Client) DirtyFiles(ctx context.Context) ([]string, error) {
	res := c.run(ctx, c.dir, "status", "--porcelain")
	if !res.Success() {
		return nil, fail("status", res)
	}
	if res.Stdout == "" {
		return nil, nil
	}
	return strings.Split(res.Stdout, "\n"), nil
}

// BranchExists reports whether a local branch of that name exists.
func (c *Client) BranchExists(ctx context.Context, name string) bool {
	res := c.run(ctx, c.dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return res.Success()
}

// Push pushes the current branch to its origin tracking branch.
func (c *Client) Push(ctx context.Context) error {
	res := c.run(ctx, c.dir, "push", "-u", "origin", "HEAD")
	if !res.Success() {
		return fail("push", res)
	}
	return nil
}

// Init initializes a fresh repository with the given default branch.
func (c *Client) Init(ctx context.Context, defaultBranch string) error {
	res := c.run(ctx, c.dir, "init", "--initial-branch", defaultBranch)
	if !res.Success() {
		return fail("init", res)
	}
	return nil
}

// CreateBranch creates a branch at HEAD without switching to it.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	res := c.run(ctx, c.dir, "branch", name)
	if !res.Success() {
		return fail("branch "+name, res)
	}
	return nil
}

// AddAll stages every change in the working tree.
func (c *Client) AddAll(ctx context.Context) error {
	res := c.run(ctx, c.dir, "add", "-A")
	if !res.Success() {
		return fail("add -A", res)
	}
	return nil
}

// Commit records the staged changes with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	res := c.run(ctx, c.dir, "commit", "-m", message)
	if !res.Success() {
		return fail("commit", res)
	}
	return nil
}

// HasStagedOrUnstagedDiff reports whether the tree differs from HEAD.
func (c *Client) HasStagedOrUnstagedDiff(ctx context.Context) (bool, error) {
	files, err := c.DirtyFiles(ctx)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}
