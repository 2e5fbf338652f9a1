package registry

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadOrCreate(t *testing.T) {
	t.Run("missing_file_yields_empty_registry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ProjectsFile)
		r, err := LoadOrCreate(path)
		if err != nil {
			t.Fatalf("LoadOrCreate error: %v", err)
		}
		if len(r.Projects) != 0 {
			t.Errorf("Projects = %v, want empty", r.Projects)
		}
	})

	t.Run("load_missing_is_sentinel", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), ProjectsFile))
		if !errors.Is(err, ErrRegistryMissing) {
			t.Errorf("error = %v, want ErrRegistryMissing", err)
		}
	})

	t.Run("round_trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ProjectsFile)
		r, err := LoadOrCreate(path)
		if err != nil {
			t.Fatalf("LoadOrCreate error: %v", err)
		}
		r.Register("demo", "/work/demo")
		r.Register("acme-site", "/work/acme-site")
		if err := r.Save(); err != nil {
			t.Fatalf("Save error: %v", err)
		}

		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if loaded.Projects["demo"] != "/work/demo" {
			t.Errorf("demo = %q", loaded.Projects["demo"])
		}
		names := loaded.Names()
		if len(names) != 2 || names[0] != "acme-site" || names[1] != "demo" {
			t.Errorf("Names = %v, want sorted [acme-site demo]", names)
		}
	})
}

func TestStamps(t *testing.T) {
	dir := t.TempDir()

	if got := ReadStamp(dir); got != "" {
		t.Errorf("ReadStamp on fresh dir = %q, want empty", got)
	}

	if err := WriteStamp(dir, "v1.4.0"); err != nil {
		t.Fatalf("WriteStamp error: %v", err)
	}
	if got := ReadStamp(dir); got != "v1.4.0" {
		t.Errorf("ReadStamp = %q", got)
	}
}

func TestCompareStamps(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"v1.2.0", "v1.2.0", 0},
		{"1.2.0", "v1.2.0", 0},
		{"v1.2.1", "v1.2.0", 1},
		{"v1.2.0", "v2.0.0", -1},
		{"", "v0.0.1", -1},
		{"v0.0.1", "", 1},
		{"v1.3.0-rc1", "v1.3.0", 0},
	}
	for _, tc := range cases {
		if got := CompareStamps(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareStamps(%q,%q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
