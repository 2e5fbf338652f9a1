package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/stencil-dev/stencil/internal/bootstrap"
	"github.com/stencil-dev/stencil/internal/manifest"
	"github.com/stencil-dev/stencil/internal/sync"
	"github.com/stencil-dev/stencil/internal/ui"
	"github.com/stencil-dev/stencil/pkg/version"
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Create a new project from the hub template",
	Long: `Create a new spoke project as a sibling of the hub template.

The project name must be lowercase alphanumerics and hyphens. Deployment
topology (GitHub owner/repo, Vercel project and team, production domain,
backing-store refs) is collected interactively, or from flags with --yes.

Examples:
  stencil init my-app                      interactive topology form
  stencil init my-app --yes --owner acme --team acme --domain my-app.com`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("hub", ".", "Hub template root")
	initCmd.Flags().String("parent", "", "Parent directory for the new project (default: hub's parent)")
	initCmd.Flags().String("source", bootstrap.SourceFull, "Seed source: full (whole tree) or fileset (allowlist only)")
	initCmd.Flags().String("owner", "", "GitHub owner")
	initCmd.Flags().String("repo", "", "GitHub repository (default: project name)")
	initCmd.Flags().String("vercel-project", "", "Vercel project name (default: project name)")
	initCmd.Flags().String("team", "", "Vercel team slug")
	initCmd.Flags().String("domain", "", "Production domain")
	initCmd.Flags().String("supabase-preview", "", "Supabase preview project ref (blank keeps a placeholder)")
	initCmd.Flags().String("supabase-production", "", "Supabase production project ref (blank keeps a placeholder)")
	initCmd.Flags().BoolP("yes", "y", false, "Skip prompts; take topology from flags")
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	if !manifest.ValidProjectName(name) {
		return fmt.Errorf("project name %q must be lowercase alphanumerics and hyphens", name)
	}

	hub, _ := cmd.Flags().GetString("hub")
	parent, _ := cmd.Flags().GetString("parent")
	source, _ := cmd.Flags().GetString("source")
	assumeYes, _ := cmd.Flags().GetBool("yes")

	in := manifest.Inputs{ProjectName: name}
	in.GitHubOwner, _ = cmd.Flags().GetString("owner")
	in.GitHubRepo, _ = cmd.Flags().GetString("repo")
	in.VercelProject, _ = cmd.Flags().GetString("vercel-project")
	in.VercelTeam, _ = cmd.Flags().GetString("team")
	in.ProductionDomain, _ = cmd.Flags().GetString("domain")
	in.SupabasePreview, _ = cmd.Flags().GetString("supabase-preview")
	in.SupabaseProduction, _ = cmd.Flags().GetString("supabase-production")
	if in.GitHubRepo == "" {
		in.GitHubRepo = name
	}
	if in.VercelProject == "" {
		in.VercelProject = name
	}

	interactive := !assumeYes && !deps.Headless.IsHeadless()
	if interactive {
		if err := topologyForm(&in); err != nil {
			return err
		}
	}
	if in.GitHubOwner == "" || in.VercelTeam == "" || in.ProductionDomain == "" {
		return fmt.Errorf("init: --owner, --team and --domain are required without a terminal")
	}

	fmt.Fprintln(out, infoCard("New project", topologySummary(in)))
	confirmer := ui.NewConfirmer(deps.Theme, deps.Headless, assumeYes)
	ok, err := confirmer.Confirm(fmt.Sprintf("Create %s?", name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, stMuted.Render("aborted, nothing created"))
		return nil
	}

	progress := ui.NewProgress(deps.Theme, deps.Headless)
	spin := progress.Spinner("Creating project")
	engine := sync.NewEngine(out, sync.Options{})
	b := bootstrap.New(engine, deps.Logger)

	res, runErr := b.Run(cmd.Context(), bootstrap.Options{
		HubRoot:   hub,
		ParentDir: parent,
		Source:    source,
		Topology:  in,
		Version:   version.GetVersion(),
	})
	spin.Stop()
	if runErr != nil {
		return runErr
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(out, stWarn.Render("warning: ")+w)
	}
	fmt.Fprintln(out, successCard(fmt.Sprintf("%s created", name),
		fmt.Sprintf("path: %s", res.ProjectRoot)))
	fmt.Fprint(out, renderMarkdown(res.NextSteps))
	return nil
}

// topologyForm fills the blank topology fields interactively.
func topologyForm(in *manifest.Inputs) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("GitHub owner").
			Value(&in.GitHubOwner).
			Validate(nonEmpty("GitHub owner")),
		huh.NewInput().
			Title("GitHub repository").
			Value(&in.GitHubRepo),
		huh.NewInput().
			Title("Vercel project").
			Value(&in.VercelProject),
		huh.NewInput().
			Title("Vercel team").
			Value(&in.VercelTeam).
			Validate(nonEmpty("Vercel team")),
		huh.NewInput().
			Title("Production domain").
			Value(&in.ProductionDomain).
			Validate(nonEmpty("production domain")),
		huh.NewInput().
			Title("Supabase preview ref (blank for placeholder)").
			Value(&in.SupabasePreview),
		huh.NewInput().
			Title("Supabase production ref (blank for placeholder)").
			Value(&in.SupabaseProduction),
	)).WithTheme(huh.ThemeCharm()).WithAccessible(false)

	if err := form.Run(); err != nil {
		return fmt.Errorf("topology form: %w", err)
	}
	return nil
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// topologySummary renders the answers that are about to be committed.
func topologySummary(in manifest.Inputs) string {
	supPreview := in.SupabasePreview
	if supPreview == "" {
		supPreview = manifest.PlaceholderSupabasePreview
	}
	supProduction := in.SupabaseProduction
	if supProduction == "" {
		supProduction = manifest.PlaceholderSupabaseProduction
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "GitHub      %s/%s\n", in.GitHubOwner, in.GitHubRepo)
	fmt.Fprintf(&sb, "Vercel      %s (team %s)\n", in.VercelProject, in.VercelTeam)
	fmt.Fprintf(&sb, "Preview     %s\n", manifest.PreviewURL(in.VercelProject, in.VercelTeam))
	fmt.Fprintf(&sb, "Production  %s\n", manifest.ProductionURL(in.ProductionDomain))
	fmt.Fprintf(&sb, "Supabase    %s / %s", supPreview, supProduction)
	return sb.String()
}
