// Package sync reconciles a fixed allowlist of files and directories
// between the hub template repository and one or more spoke projects. It
// is copy-or-skip, never merge: currency is decided by byte equality and
// a differing destination is overwritten (with a warning) rather than
// merged.
package sync

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed filesets.yaml
var filesetsYAML []byte

// Entry is one allowlisted path in a fileset.
type Entry struct {
	// Path is relative to the source root. A trailing slash marks a
	// directory copied recursively.
	Path string `yaml:"path"`

	// Optional entries are skipped entirely when the destination
	// already exists (never overwritten), and a missing source is a
	// counted skip instead of an error.
	Optional bool `yaml:"optional"`

	// Rename overrides the destination name (template rename mapping).
	Rename string `yaml:"rename"`
}

// IsDir reports whether the entry names a directory.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Path, "/")
}

// SourcePath returns the cleaned source-relative path.
func (e Entry) SourcePath() string {
	return strings.TrimSuffix(e.Path, "/")
}

// DestPath returns the destination-relative path, honoring Rename.
func (e Entry) DestPath() string {
	if e.Rename != "" {
		return e.Rename
	}
	return e.SourcePath()
}

// Filesets holds the declarative allowlists for every sync direction.
type Filesets struct {
	Hub       []Entry `yaml:"hub"`
	Project   []Entry `yaml:"project"`
	Harvest   []Entry `yaml:"harvest"`
	Templates []Entry `yaml:"templates"`
}

// LoadFilesets parses the embedded fileset declarations.
func LoadFilesets() (*Filesets, error) {
	var fs Filesets
	if err := yaml.Unmarshal(filesetsYAML, &fs); err != nil {
		return nil, fmt.Errorf("sync: parse filesets: %w", err)
	}
	return &fs, nil
}

// MustFilesets is LoadFilesets for callers where the embedded data is
// guaranteed parseable (it is validated by tests).
func MustFilesets() *Filesets {
	fs, err := LoadFilesets()
	if err != nil {
		panic(err)
	}
	return fs
}
