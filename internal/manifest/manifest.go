package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// FileName is the manifest file name at the repository root.
const FileName = ".deployment-config.json"

// Environment describes one deployment target (preview or production).
type Environment struct {
	Branch             string `json:"branch"`
	SupabaseProjectRef string `json:"supabaseProjectRef"`
	ClerkInstance      string `json:"clerkInstance"`
}

// GitHub identifies the remote repository.
type GitHub struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Vercel records the hosting project and its deployment URLs.
type Vercel struct {
	ProjectName   string `json:"projectName"`
	PreviewURL    string `json:"previewUrl"`
	ProductionURL string `json:"productionUrl"`
}

// Manifest is the parsed deployment configuration.
type Manifest struct {
	ProjectName  string `json:"projectName"`
	GitHub       GitHub `json:"github"`
	Vercel       Vercel `json:"vercel"`
	Environments struct {
		Preview    Environment `json:"preview"`
		Production Environment `json:"production"`
	} `json:"environments"`

	// raw holds the original document for dotted-path lookups.
	raw []byte
}

// Exports holds every derived value downstream commands need, resolved in
// one call so callers do not re-parse the manifest per field.
type Exports struct {
	ProjectName      string
	GitHubOwner      string
	GitHubRepo       string
	VercelProject    string
	PreviewURL       string
	ProductionURL    string
	PreviewBranch    string
	ProductionBranch string
}

// LocateRoot walks upward from start to the nearest directory containing
// .git and returns its absolute path.
func LocateRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched %s and parents)", ErrNotARepository, start)
		}
		dir = parent
	}
}

// Load parses the manifest at <root>/.deployment-config.json.
// A missing file and a malformed file are distinct failures; both name
// the path that was checked.
func Load(root string) (*Manifest, error) {
	path := filepath.Join(root, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrManifestMalformed, path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestMalformed, path, err)
	}
	m.raw = data

	return &m, nil
}

// LoadFromWorkdir locates the enclosing repository from the current
// working directory and loads its manifest.
func LoadFromWorkdir() (*Manifest, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}
	root, err := LocateRoot(cwd)
	if err != nil {
		return nil, "", err
	}
	m, err := Load(root)
	if err != nil {
		return nil, "", err
	}
	return m, root, nil
}

// Get returns the value at a dotted field path (e.g. "vercel.previewUrl").
// Missing fields yield an empty string, not an error.
func (m *Manifest) Get(path string) string {
	if len(m.raw) == 0 {
		return ""
	}
	return gjson.GetBytes(m.raw, path).String()
}

// ExportAll returns every derived variable in one call.
func (m *Manifest) ExportAll() Exports {
	return Exports{
		ProjectName:      m.ProjectName,
		GitHubOwner:      m.GitHub.Owner,
		GitHubRepo:       m.GitHub.Repo,
		VercelProject:    m.Vercel.ProjectName,
		PreviewURL:       m.Vercel.PreviewURL,
		ProductionURL:    m.Vercel.ProductionURL,
		PreviewBranch:    m.Environments.Preview.Branch,
		ProductionBranch: m.Environments.Production.Branch,
	}
}

// Validate checks the structural invariants of a manifest.
func (m *Manifest) Validate() error {
	if m.ProjectName == "" {
		return &FieldError{Field: "projectName", Message: "must not be empty"}
	}
	prev := m.Environments.Preview
	prod := m.Environments.Production
	if prev.Branch == "" {
		return &FieldError{Field: "environments.preview.branch", Message: "must not be empty"}
	}
	if prod.Branch == "" {
		return &FieldError{Field: "environments.production.branch", Message: "must not be empty"}
	}
	if prev.Branch == prod.Branch {
		return &FieldError{
			Field:   "environments.production.branch",
			Message: fmt.Sprintf("must differ from preview branch %q", prev.Branch),
		}
	}
	for field, inst := range map[string]string{
		"environments.preview.clerkInstance":    prev.ClerkInstance,
		"environments.production.clerkInstance": prod.ClerkInstance,
	} {
		if inst != "preview" && inst != "production" {
			return &FieldError{Field: field, Message: `must be "preview" or "production"`}
		}
	}
	return nil
}
