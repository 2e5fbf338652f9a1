package gitx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner records invocations and replays canned results keyed by the
// first git argument.
type fakeRunner struct {
	calls   [][]string
	results map[string]Result
}

func (f *fakeRunner) run(_ context.Context, _ string, args ...string) Result {
	f.calls = append(f.calls, args)
	if res, ok := f.results[args[0]]; ok {
		return res
	}
	return Result{}
}

func TestCurrentBranch(t *testing.T) {
	f := &fakeRunner{results: map[string]Result{
		"branch": {Stdout: "feature/login"},
	}}
	c := NewWithRunner("/repo", f.run)

	branch, err := c.CurrentBranch(context.Background())
	if err != nil {
		t.Fatalf("CurrentBranch error: %v", err)
	}
	if branch != "feature/login" {
		t.Errorf("branch = %q", branch)
	}
}

func TestDirtyFiles(t *testing.T) {
	t.Run("clean_tree", func(t *testing.T) {
		f := &fakeRunner{results: map[string]Result{"status": {Stdout: ""}}}
		c := NewWithRunner("/repo", f.run)

		files, err := c.DirtyFiles(context.Background())
		if err != nil {
			t.Fatalf("DirtyFiles error: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("files = %v, want none", files)
		}
	})

	t.Run("dirty_tree", func(t *testing.T) {
		f := &fakeRunner{results: map[string]Result{
			"status": {Stdout: " M app/page.tsx\n?? notes.md"},
		}}
		c := NewWithRunner("/repo", f.run)

		files, err := c.DirtyFiles(context.Background())
		if err != nil {
			t.Fatalf("DirtyFiles error: %v", err)
		}
		if len(files) != 2 {
			t.Errorf("files = %v, want 2 entries", files)
		}
	})
}

func TestPushSurfacesStderr(t *testing.T) {
	f := &fakeRunner{results: map[string]Result{
		"push": {Stderr: "remote: permission denied", ReturnCode: 128, Err: errors.New("exit status 128")},
	}}
	c := NewWithRunner("/repo", f.run)

	err := c.Push(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
	// git's own diagnostic is propagated verbatim.
	if !strings.Contains(err.Error(), "remote: permission denied") {
		t.Errorf("error %q does not carry git stderr", err.Error())
	}
}
