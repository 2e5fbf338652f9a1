package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/sjson"
)

// Sentinel placeholder values written when a backing-store reference was
// left blank at bootstrap time. Deploy commands treat them as unset.
const (
	PlaceholderSupabasePreview    = "YOUR_SUPABASE_PREVIEW_REF"
	PlaceholderSupabaseProduction = "YOUR_SUPABASE_PRODUCTION_REF"
)

// projectNameRe is the strict project-name pattern: lowercase alphanumerics
// separated by single hyphens, no leading or trailing hyphen.
var projectNameRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidProjectName reports whether name satisfies the naming pattern.
func ValidProjectName(name string) bool {
	return projectNameRe.MatchString(name)
}

// Inputs collects the topology answers a new manifest is built from.
type Inputs struct {
	ProjectName        string
	GitHubOwner        string
	GitHubRepo         string
	VercelProject      string
	VercelTeam         string
	ProductionDomain   string
	SupabasePreview    string // blank → placeholder sentinel
	SupabaseProduction string // blank → placeholder sentinel
	PreviewBranch      string // defaults to "preview"
	ProductionBranch   string // defaults to "main"
}

// PreviewURL derives the preview deployment URL from the Vercel project
// name and team following the fixed hosting convention.
func PreviewURL(vercelProject, team string) string {
	return fmt.Sprintf("https://%s-git-preview-%s.vercel.app", vercelProject, team)
}

// ProductionURL derives the production URL from the configured domain.
func ProductionURL(domain string) string {
	return "https://" + domain
}

// Build produces the manifest JSON document for the given inputs.
// Field order in the output mirrors the documented manifest shape.
func Build(in Inputs) ([]byte, error) {
	if !ValidProjectName(in.ProjectName) {
		return nil, &FieldError{
			Field:   "projectName",
			Message: fmt.Sprintf("%q must be lowercase alphanumerics and hyphens", in.ProjectName),
		}
	}

	if in.PreviewBranch == "" {
		in.PreviewBranch = "preview"
	}
	if in.ProductionBranch == "" {
		in.ProductionBranch = "main"
	}
	if in.SupabasePreview == "" {
		in.SupabasePreview = PlaceholderSupabasePreview
	}
	if in.SupabaseProduction == "" {
		in.SupabaseProduction = PlaceholderSupabaseProduction
	}

	doc := []byte("{}")
	var err error
	for _, field := range []struct {
		path  string
		value any
	}{
		{"projectName", in.ProjectName},
		{"github.owner", in.GitHubOwner},
		{"github.repo", in.GitHubRepo},
		{"vercel.projectName", in.VercelProject},
		{"vercel.previewUrl", PreviewURL(in.VercelProject, in.VercelTeam)},
		{"vercel.productionUrl", ProductionURL(in.ProductionDomain)},
		{"environments.preview.branch", in.PreviewBranch},
		{"environments.preview.supabaseProjectRef", in.SupabasePreview},
		{"environments.preview.clerkInstance", "preview"},
		{"environments.production.branch", in.ProductionBranch},
		{"environments.production.supabaseProjectRef", in.SupabaseProduction},
		{"environments.production.clerkInstance", "production"},
	} {
		doc, err = sjson.SetBytes(doc, field.path, field.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", field.path, err)
		}
	}

	return append(doc, '\n'), nil
}

// Write builds the manifest and writes it to <root>/.deployment-config.json.
func Write(root string, in Inputs) error {
	doc, err := Build(in)
	if err != nil {
		return err
	}
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
