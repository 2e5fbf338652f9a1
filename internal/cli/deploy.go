package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stencil-dev/stencil/internal/deploy"
	"github.com/stencil-dev/stencil/internal/prereq"
	"github.com/stencil-dev/stencil/internal/ui"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Promote the project to an environment",
}

var deployPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Push the current branch and verify the preview deployment",
	Long: `Promote to preview. The current branch must be the preview branch or
a feature/* branch, the working tree must be clean, and the project's
own validation (npm run validate) must pass before anything is pushed.
After the push the preview deployment is polled until healthy, then
probed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPromoter(cmd)
		if err != nil {
			return err
		}
		return p.PromotePreview(cmd.Context())
	},
}

var deployProductionCmd = &cobra.Command{
	Use:   "production",
	Short: "Open the preview-to-production release pull request",
	Long: `Promote to production. Only runs from the preview branch with a clean
tree and a healthy preview deployment, requires typing the confirmation
phrase, and promotes exclusively by pull request; nothing is pushed to
the production branch directly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPromoter(cmd)
		if err != nil {
			return err
		}
		return p.PromoteProduction(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.AddCommand(deployPreviewCmd)
	deployCmd.AddCommand(deployProductionCmd)
	deployCmd.PersistentFlags().BoolP("yes", "y", false, "Auto-approve the optional preview PR offer")
}

// buildPromoter validates the toolchain and wires a Promoter for the
// enclosing project.
func buildPromoter(cmd *cobra.Command) (*deploy.Promoter, error) {
	if err := prereq.CheckTools(prereq.DeployTools...); err != nil {
		return nil, err
	}
	if err := prereq.CheckGitHubAuth(cmd.Context(), prereq.GHAuthProbe); err != nil {
		return nil, err
	}
	if err := deps.EnsureProject(); err != nil {
		return nil, fmt.Errorf("deploy requires a project with a manifest: %w", err)
	}

	assumeYes, _ := cmd.Flags().GetBool("yes")
	return deploy.NewPromoter(deps.ProjectRoot, deps.Exports, deploy.Deps{
		Git:       deps.NewGit(deps.ProjectRoot),
		GH:        deps.NewGH(deps.ProjectRoot),
		Prober:    deps.Verifier,
		Confirmer: ui.NewConfirmer(deps.Theme, deps.Headless, assumeYes),
		Validator: deploy.NpmValidator{},
	}, cmd.OutOrStdout()), nil
}
