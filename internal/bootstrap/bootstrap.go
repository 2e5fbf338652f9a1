// Package bootstrap creates a new spoke project from the hub template:
// it copies the template content, writes the deployment manifest from
// collected topology answers, materializes the deploy scripts, and
// initializes the git repository with both environment branches.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/stencil-dev/stencil/internal/gitx"
	"github.com/stencil-dev/stencil/internal/manifest"
	"github.com/stencil-dev/stencil/internal/prereq"
	"github.com/stencil-dev/stencil/internal/registry"
	"github.com/stencil-dev/stencil/internal/sync"
)

// Source selects what seeds the new project tree.
const (
	// SourceFull copies the whole hub template tree.
	SourceFull = "full"

	// SourceFileset seeds only the allowlisted project files plus the
	// diverge-once template files.
	SourceFileset = "fileset"
)

// requiredScriptTemplates must all exist under the hub before any
// project is created. An incomplete deployment toolchain is worse than
// no project at all.
var requiredScriptTemplates = []string{
	"templates/deploy-preview.sh.template",
	"templates/deploy-production.sh.template",
	"templates/verify-preview.sh.template",
	"templates/verify-production.sh.template",
}

// ciWorkflowTemplate is copied to its live location when present.
const (
	ciWorkflowTemplate = "templates/deploy-workflow.yml.template"
	ciWorkflowDest     = ".github/workflows/deploy.yml"
)

// strippedArtifacts are hub-specific paths that must never be inherited
// by a new project.
var strippedArtifacts = map[string]bool{
	".git":                true,
	"node_modules":        true,
	".next":               true,
	".sync-backups":       true,
	"docs/archive":        true,
	registry.ProjectsFile: true,
	sync.LockFile:         true,
}

// envExampleKeys are the documented application environment keys. The
// generated .env.example carries empty values only, never secrets.
var envExampleKeys = []string{
	"NEXT_PUBLIC_SUPABASE_URL",
	"NEXT_PUBLIC_SUPABASE_ANON_KEY",
	"SUPABASE_SERVICE_ROLE_KEY",
	"NEXT_PUBLIC_CLERK_PUBLISHABLE_KEY",
	"CLERK_SECRET_KEY",
	"DATABASE_URL",
}

// MissingTemplatesError enumerates absent required script templates.
type MissingTemplatesError struct {
	Missing []string
}

func (e *MissingTemplatesError) Error() string {
	return fmt.Sprintf("bootstrap: required script templates missing from hub: %s", strings.Join(e.Missing, ", "))
}

// Options configures one bootstrap run. Topology answers are assumed to
// be already confirmed by the caller.
type Options struct {
	// HubRoot is the template repository the project is seeded from.
	HubRoot string

	// ParentDir receives the new project as a direct child. Defaults to
	// the hub's parent directory.
	ParentDir string

	// Source is SourceFull or SourceFileset.
	Source string

	// Topology holds the deployment answers; Topology.ProjectName names
	// the new directory.
	Topology manifest.Inputs

	// Version stamps the new project for future batch syncs.
	Version string
}

// Result summarizes what bootstrap created.
type Result struct {
	ProjectRoot string
	Warnings    []string

	// NextSteps is a markdown summary for the operator.
	NextSteps string
}

// gitClient is the slice of git behavior bootstrap needs.
type gitClient interface {
	Init(ctx context.Context, defaultBranch string) error
	CreateBranch(ctx context.Context, name string) error
	AddAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
}

// Bootstrapper creates spoke projects.
type Bootstrapper struct {
	engine *sync.Engine
	log    *slog.Logger

	gitFor     func(dir string) gitClient
	checkTools func(required ...string) error
}

// New builds a Bootstrapper. The engine seeds fileset-sourced projects
// and is required even for full copies (it reports seeding progress).
func New(engine *sync.Engine, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bootstrapper{
		engine: engine,
		log:    logger,
		gitFor: func(dir string) gitClient {
			return gitx.New(dir)
		},
		checkTools: prereq.CheckTools,
	}
}

// Run creates the project. All validation happens before the first
// filesystem mutation, so a rejected run leaves no trace.
func (b *Bootstrapper) Run(ctx context.Context, opts Options) (*Result, error) {
	name := opts.Topology.ProjectName
	if !manifest.ValidProjectName(name) {
		return nil, &manifest.FieldError{
			Field:   "projectName",
			Message: fmt.Sprintf("%q must be lowercase alphanumerics and hyphens", name),
		}
	}

	hubRoot, err := filepath.Abs(opts.HubRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve hub root: %w", err)
	}
	opts.HubRoot = hubRoot

	if opts.ParentDir == "" {
		opts.ParentDir = filepath.Dir(opts.HubRoot)
	}
	parent, err := filepath.Abs(opts.ParentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve parent dir: %w", err)
	}
	opts.ParentDir = parent

	target := filepath.Join(opts.ParentDir, name)
	if within(opts.HubRoot, target) {
		return nil, fmt.Errorf("bootstrap: target %s is inside the hub template %s", target, opts.HubRoot)
	}
	if _, err := os.Stat(target); err == nil {
		return nil, fmt.Errorf("bootstrap: directory %s already exists", target)
	}

	if err := b.checkTools(prereq.BootstrapTools...); err != nil {
		return nil, err
	}
	if err := b.checkScriptTemplates(opts.HubRoot); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.log.Info("bootstrapping project", "name", name, "source", opts.Source, "target", target)
	result := &Result{ProjectRoot: target}

	switch opts.Source {
	case SourceFull, "":
		if err := copyTemplateTree(opts.HubRoot, target); err != nil {
			return nil, fmt.Errorf("copy template tree: %w", err)
		}
	case SourceFileset:
		if _, err := b.engine.ToProject(opts.HubRoot, target); err != nil {
			return nil, fmt.Errorf("seed project fileset: %w", err)
		}
		b.materializeDivergeOnce(opts.HubRoot, target, result)
	default:
		return nil, fmt.Errorf("bootstrap: unknown source %q", opts.Source)
	}

	if err := manifest.Write(target, opts.Topology); err != nil {
		return nil, err
	}
	if err := b.materializeScripts(opts.HubRoot, target); err != nil {
		return nil, err
	}
	b.copyCIWorkflow(opts.HubRoot, target, result)

	if err := b.writeEnvExample(target); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("env template: %s", err))
	}
	if err := writeReadme(target, opts.Topology); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("readme: %s", err))
	}
	if opts.Version != "" {
		if err := registry.WriteStamp(target, opts.Version); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	if err := b.initRepository(ctx, target, opts.Topology); err != nil {
		return nil, err
	}

	result.NextSteps = nextSteps(opts.Topology)
	return result, nil
}

// checkScriptTemplates enforces the hard precondition on the deploy
// script templates, reporting every missing one at once.
func (b *Bootstrapper) checkScriptTemplates(hubRoot string) error {
	var missing []string
	for _, rel := range requiredScriptTemplates {
		if _, err := os.Stat(filepath.Join(hubRoot, rel)); err != nil {
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		return &MissingTemplatesError{Missing: missing}
	}
	return nil
}

// materializeScripts copies the script templates into scripts/ with the
// .template suffix stripped and the executable bit set.
func (b *Bootstrapper) materializeScripts(hubRoot, target string) error {
	dir := filepath.Join(target, "scripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	for _, rel := range requiredScriptTemplates {
		data, err := os.ReadFile(filepath.Join(hubRoot, rel))
		if err != nil {
			return fmt.Errorf("read template %s: %w", rel, err)
		}
		name := strings.TrimSuffix(filepath.Base(rel), ".template")
		dst := filepath.Join(dir, name)
		if err := os.WriteFile(dst, data, 0o755); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
	}
	return nil
}

// copyCIWorkflow installs the CI workflow template when present. A full
// tree copy already carries the live workflow, so absence is a warning
// only in fileset mode; either way it never fails the bootstrap.
func (b *Bootstrapper) copyCIWorkflow(hubRoot, target string, result *Result) {
	src := filepath.Join(hubRoot, ciWorkflowTemplate)
	data, err := os.ReadFile(src)
	if err != nil {
		if _, liveErr := os.Stat(filepath.Join(target, ciWorkflowDest)); liveErr != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("ci workflow template %s not found", ciWorkflowTemplate))
		}
		return
	}

	dst := filepath.Join(target, ciWorkflowDest)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
}

// materializeDivergeOnce instantiates the copy-once template files
// (MCP config, gitignore, env example) with their suffix stripped.
func (b *Bootstrapper) materializeDivergeOnce(hubRoot, target string, result *Result) {
	for _, entry := range sync.MustFilesets().Templates {
		data, err := os.ReadFile(filepath.Join(hubRoot, entry.SourcePath()))
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("template %s not found in hub", entry.SourcePath()))
			continue
		}
		dst := filepath.Join(target, entry.DestPath())
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
}

// initRepository creates the git history: default branch, one audited
// initial commit, and the preview branch pointing at it.
func (b *Bootstrapper) initRepository(ctx context.Context, target string, in manifest.Inputs) error {
	git := b.gitFor(target)

	production := in.ProductionBranch
	if production == "" {
		production = "main"
	}
	preview := in.PreviewBranch
	if preview == "" {
		preview = "preview"
	}

	if err := git.Init(ctx, production); err != nil {
		return err
	}
	if err := git.AddAll(ctx); err != nil {
		return err
	}
	if err := git.Commit(ctx, initialCommitMessage(in)); err != nil {
		return err
	}
	return git.CreateBranch(ctx, preview)
}

// initialCommitMessage embeds the chosen topology so the project's
// origin is auditable from history alone.
func initialCommitMessage(in manifest.Inputs) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "chore: bootstrap %s from template\n\n", in.ProjectName)
	fmt.Fprintf(&sb, "GitHub: %s/%s\n", in.GitHubOwner, in.GitHubRepo)
	fmt.Fprintf(&sb, "Preview: %s\n", manifest.PreviewURL(in.VercelProject, in.VercelTeam))
	fmt.Fprintf(&sb, "Production: %s\n", manifest.ProductionURL(in.ProductionDomain))
	return sb.String()
}

// writeEnvExample generates the documented-keys-only environment file.
func (b *Bootstrapper) writeEnvExample(target string) error {
	env := make(map[string]string, len(envExampleKeys))
	for _, key := range envExampleKeys {
		env[key] = ""
	}
	return godotenv.Write(env, filepath.Join(target, ".env.example"))
}

// writeReadme generates the starter README with the topology summary
// and setup checklist.
func writeReadme(target string, in manifest.Inputs) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", in.ProjectName)
	sb.WriteString("## Deployment topology\n\n")
	fmt.Fprintf(&sb, "- GitHub: `%s/%s`\n", in.GitHubOwner, in.GitHubRepo)
	fmt.Fprintf(&sb, "- Vercel project: `%s`\n", in.VercelProject)
	fmt.Fprintf(&sb, "- Preview: %s\n", manifest.PreviewURL(in.VercelProject, in.VercelTeam))
	fmt.Fprintf(&sb, "- Production: %s\n\n", manifest.ProductionURL(in.ProductionDomain))
	sb.WriteString("## Setup checklist\n\n")
	sb.WriteString("- [ ] Create the GitHub repository and add it as `origin`\n")
	sb.WriteString("- [ ] Import the project into Vercel and link both branches\n")
	sb.WriteString("- [ ] Fill in the Supabase project refs in `.deployment-config.json`\n")
	sb.WriteString("- [ ] Copy `.env.example` to `.env.local` and fill in real values\n")
	sb.WriteString("- [ ] Run `stencil doctor` to verify the toolchain\n")

	return os.WriteFile(filepath.Join(target, "README.md"), []byte(sb.String()), 0o644)
}

// nextSteps builds the closing markdown summary.
func nextSteps(in manifest.Inputs) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s is ready\n\n", in.ProjectName)
	sb.WriteString("Next steps:\n\n")
	fmt.Fprintf(&sb, "1. `cd ../%s`\n", in.ProjectName)
	fmt.Fprintf(&sb, "2. Create `%s/%s` on GitHub and push both branches\n", in.GitHubOwner, in.GitHubRepo)
	sb.WriteString("3. Import the repository into Vercel\n")
	sb.WriteString("4. `stencil doctor` to verify the toolchain\n")
	sb.WriteString("5. `stencil deploy preview` when the first feature is ready\n")
	return sb.String()
}

// within reports whether path is root itself or located under it. The
// target containment check keeps a new project from being created
// inside the hub, where a full tree copy would recurse into itself.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// copyTemplateTree copies the hub tree into target, skipping artifacts
// that must not be inherited (version control metadata, caches, local
// environment files, archives).
func copyTemplateTree(hubRoot, target string) error {
	return filepath.WalkDir(hubRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(hubRoot, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return os.MkdirAll(target, 0o755)
		}

		if skipArtifact(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dst := filepath.Join(target, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		return copyFile(path, dst)
	})
}

// skipArtifact reports whether a hub-relative path is excluded from the
// template copy.
func skipArtifact(rel string, d fs.DirEntry) bool {
	if strippedArtifacts[filepath.ToSlash(rel)] {
		return true
	}
	// Local environment files anywhere in the tree.
	base := filepath.Base(rel)
	if !d.IsDir() && strings.HasPrefix(base, ".env") && base != ".env.example" {
		return true
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	perm := fs.FileMode(0o644)
	if info.Mode()&0o111 != 0 || strings.HasSuffix(dst, ".sh") {
		perm = 0o755
	}
	return os.WriteFile(dst, data, perm)
}
