package github

import (
	"context"
	"errors"
	"testing"
)

func TestPRCreate(t *testing.T) {
	t.Run("returns_number_and_url", func(t *testing.T) {
		var gotArgs []string
		fn := func(_ context.Context, _ string, args ...string) (string, error) {
			gotArgs = args
			return "https://github.com/acme-inc/demo/pull/42\n", nil
		}
		c := NewClientWithExec("/repo", fn)

		number, url, err := c.PRCreate(context.Background(), PRCreateOptions{
			Title:      "Deploy preview to production",
			Body:       "Promotion PR",
			BaseBranch: "main",
			HeadBranch: "preview",
		})
		if err != nil {
			t.Fatalf("PRCreate error: %v", err)
		}
		if number != 42 {
			t.Errorf("number = %d, want 42", number)
		}
		if url != "https://github.com/acme-inc/demo/pull/42" {
			t.Errorf("url = %q", url)
		}

		want := map[string]string{"--base": "main", "--head": "preview"}
		for flag, val := range want {
			found := false
			for i, a := range gotArgs {
				if a == flag && i+1 < len(gotArgs) && gotArgs[i+1] == val {
					found = true
				}
			}
			if !found {
				t.Errorf("args %v missing %s %s", gotArgs, flag, val)
			}
		}
	})

	t.Run("already_exists", func(t *testing.T) {
		fn := func(context.Context, string, ...string) (string, error) {
			return "", errors.New("a pull request for branch already exists")
		}
		c := NewClientWithExec("/repo", fn)

		_, _, err := c.PRCreate(context.Background(), PRCreateOptions{Title: "t"})
		if !errors.Is(err, ErrPRAlreadyExists) {
			t.Errorf("error = %v, want ErrPRAlreadyExists", err)
		}
	})
}

func TestIsAuthenticated(t *testing.T) {
	fn := func(context.Context, string, ...string) (string, error) {
		return "", errors.New("not logged in")
	}
	c := NewClientWithExec("/repo", fn)

	if err := c.IsAuthenticated(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("error = %v, want ErrNotAuthenticated", err)
	}
}

func TestExtractPRNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"https://github.com/o/r/pull/7", 7, false},
		{"https://github.com/o/r/issues/7", 0, true},
		{"", 0, true},
		{"https://github.com/o/r/pull/abc", 0, true},
	}
	for _, tc := range cases {
		got, err := extractPRNumber(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("extractPRNumber(%q) want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("extractPRNumber(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("extractPRNumber(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
