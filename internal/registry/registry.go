// Package registry tracks the spoke projects that receive batch syncs
// from the hub, plus the per-project version stamp used for staleness
// comparison. The registry path is always an explicit input so batch
// operations stay deterministic and testable.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File names under the hub and spoke roots.
const (
	// ProjectsFile maps project names to filesystem paths.
	ProjectsFile = ".stencil-projects.json"

	// StampFile holds the bare version string a spoke was last synced to.
	StampFile = ".stencil-version"
)

// ErrRegistryMissing indicates the registry file does not exist.
var ErrRegistryMissing = errors.New("registry: projects file not found")

// Registry maps project names to absolute spoke paths.
type Registry struct {
	Projects map[string]string `json:"projects"`

	path string
}

// DefaultPath returns the registry location under a hub root.
func DefaultPath(hubRoot string) string {
	return filepath.Join(hubRoot, ProjectsFile)
}

// Load reads the registry at the given path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryMissing, path)
		}
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if r.Projects == nil {
		r.Projects = map[string]string{}
	}
	r.path = path
	return &r, nil
}

// LoadOrCreate reads the registry, returning an empty one when the file
// does not exist yet.
func LoadOrCreate(path string) (*Registry, error) {
	r, err := Load(path)
	if errors.Is(err, ErrRegistryMissing) {
		return &Registry{Projects: map[string]string{}, path: path}, nil
	}
	return r, err
}

// Save writes the registry back to its path.
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", r.path, err)
	}
	return nil
}

// Register adds or replaces a project entry.
func (r *Registry) Register(name, path string) {
	r.Projects[name] = path
}

// Names returns the registered project names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Projects))
	for name := range r.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadStamp returns the version stamp recorded in dir, or "" if none.
func ReadStamp(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, StampFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// WriteStamp records a version stamp in dir.
func WriteStamp(dir, version string) error {
	path := filepath.Join(dir, StampFile)
	if err := os.WriteFile(path, []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("write stamp %s: %w", path, err)
	}
	return nil
}

// CompareStamps compares two version stamps. Returns -1 if a < b, 0 if
// equal, 1 if a > b. Handles an optional "v" prefix; a missing stamp is
// older than any present stamp.
func CompareStamps(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	aParts := parseStampParts(a)
	bParts := parseStampParts(b)

	for i := range 3 {
		if aParts[i] > bParts[i] {
			return 1
		}
		if aParts[i] < bParts[i] {
			return -1
		}
	}
	return 0
}

// parseStampParts extracts [major, minor, patch] from a version string.
func parseStampParts(v string) [3]int {
	v = strings.TrimPrefix(v, "v")

	var parts [3]int
	segments := strings.SplitN(v, ".", 3)
	for i, seg := range segments {
		if idx := strings.IndexAny(seg, "-+"); idx >= 0 {
			seg = seg[:idx]
		}
		if n, err := strconv.Atoi(seg); err == nil {
			parts[i] = n
		}
	}
	return parts
}
