// Package deploy promotes a project through its environments: feature
// or preview branch to the preview deployment, and preview to
// production by pull request. Every promotion is gated: branch
// identity, working-tree cleanliness, delegated validation, and an
// operator confirmation for production.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/stencil-dev/stencil/internal/github"
	"github.com/stencil-dev/stencil/internal/health"
	"github.com/stencil-dev/stencil/internal/manifest"
	"github.com/stencil-dev/stencil/internal/resilience"
	"github.com/stencil-dev/stencil/internal/ui"
)

// ProductionPhrase must be typed verbatim to promote to production.
const ProductionPhrase = "deploy to production"

// featureBranchPrefix marks branches eligible for preview promotion.
const featureBranchPrefix = "feature/"

// Gate failures. Each fires before any remote side effect.
var (
	ErrBranchGate   = errors.New("deploy: branch not eligible for this promotion")
	ErrDirtyTree    = errors.New("deploy: working tree has uncommitted changes")
	ErrUnhealthy    = errors.New("deploy: health verification failed")
	ErrNotConfirmed = errors.New("deploy: promotion not confirmed")
	ErrValidation   = errors.New("deploy: local validation failed")
)

// GitState is the slice of git behavior promotion reads and drives.
type GitState interface {
	CurrentBranch(ctx context.Context) (string, error)
	DirtyFiles(ctx context.Context) ([]string, error)
	Push(ctx context.Context) error
}

// Validator runs the project's own validation command. Its output is
// the project's contract; it is passed through verbatim.
type Validator interface {
	Validate(ctx context.Context, dir string) error
}

// Prober issues the health probe sequence against a deployment.
type Prober interface {
	Verify(ctx context.Context, baseURL string, paths []string) health.Report
}

// Promoter orchestrates environment promotions for one project.
type Promoter struct {
	exports manifest.Exports
	root    string

	git       GitState
	gh        github.Client
	prober    Prober
	confirmer ui.Confirmer
	validator Validator

	policy resilience.PollPolicy
	out    io.Writer
	log    *slog.Logger
}

// Deps bundles the collaborators a Promoter drives.
type Deps struct {
	Git       GitState
	GH        github.Client
	Prober    Prober
	Confirmer ui.Confirmer
	Validator Validator
}

// NewPromoter builds a Promoter for the project rooted at root.
func NewPromoter(root string, exports manifest.Exports, deps Deps, out io.Writer) *Promoter {
	return &Promoter{
		exports:   exports,
		root:      root,
		git:       deps.Git,
		gh:        deps.GH,
		prober:    deps.Prober,
		confirmer: deps.Confirmer,
		validator: deps.Validator,
		policy:    resilience.DefaultDeployPolicy,
		out:       out,
		log:       slog.Default().With("module", "deploy"),
	}
}

// PromotePreview pushes the current branch and verifies the preview
// deployment. Eligible branches are the preview branch itself and
// feature/* branches; anything else fails before the push.
func (p *Promoter) PromotePreview(ctx context.Context) error {
	branch, err := p.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	onFeature := strings.HasPrefix(branch, featureBranchPrefix)
	if branch != p.exports.PreviewBranch && !onFeature {
		return fmt.Errorf("%w: on %q, want %q or %s*",
			ErrBranchGate, branch, p.exports.PreviewBranch, featureBranchPrefix)
	}

	if err := p.requireCleanTree(ctx); err != nil {
		return err
	}

	fmt.Fprintln(p.out, "running project validation")
	if err := p.validator.Validate(ctx, p.root); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fmt.Fprintf(p.out, "pushing %s\n", branch)
	if err := p.git.Push(ctx); err != nil {
		return err
	}

	if onFeature {
		if err := p.offerPreviewPR(ctx, branch); err != nil {
			return err
		}
	}

	fmt.Fprintf(p.out, "waiting for %s\n", p.exports.PreviewURL)
	if err := p.waitHealthy(ctx, p.exports.PreviewURL, health.PreviewPaths); err != nil {
		return err
	}

	return p.verify(ctx, p.exports.PreviewURL, health.PreviewPaths)
}

// PromoteProduction opens the preview-to-production pull request. It
// never pushes to the production branch directly; the PR is the only
// promotion path. The branch gate fires before the confirmation prompt.
func (p *Promoter) PromoteProduction(ctx context.Context) error {
	branch, err := p.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if branch != p.exports.PreviewBranch {
		return fmt.Errorf("%w: on %q, production promotion requires %q",
			ErrBranchGate, branch, p.exports.PreviewBranch)
	}

	if err := p.requireCleanTree(ctx); err != nil {
		return err
	}

	fmt.Fprintln(p.out, "running project validation")
	if err := p.validator.Validate(ctx, p.root); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fmt.Fprintf(p.out, "checking preview health at %s\n", p.exports.PreviewURL)
	if err := p.verify(ctx, p.exports.PreviewURL, health.PreviewPaths); err != nil {
		return fmt.Errorf("preview must be healthy before production: %w", err)
	}

	ok, err := p.confirmer.ConfirmTyped(
		fmt.Sprintf("Promote %s to production?", p.exports.ProjectName),
		ProductionPhrase,
	)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}

	number, url, err := p.gh.PRCreate(ctx, github.PRCreateOptions{
		Title:      fmt.Sprintf("Release: %s to production", p.exports.ProjectName),
		Body:       productionPRBody(p.exports),
		BaseBranch: p.exports.ProductionBranch,
		HeadBranch: p.exports.PreviewBranch,
	})
	if err != nil {
		if errors.Is(err, github.ErrPRAlreadyExists) {
			fmt.Fprintln(p.out, "a production pull request is already open")
			return nil
		}
		return err
	}

	fmt.Fprintf(p.out, "opened PR #%d: %s\n", number, url)
	fmt.Fprintln(p.out, "merge the pull request to complete the promotion")
	return nil
}

// VerifyEnvironment runs the probe sequence for one environment and
// reports failures without any promotion side effects.
func (p *Promoter) VerifyEnvironment(ctx context.Context, env string) error {
	switch env {
	case "preview":
		return p.verify(ctx, p.exports.PreviewURL, health.PreviewPaths)
	case "production":
		return p.verify(ctx, p.exports.ProductionURL, health.ProductionPaths)
	default:
		return fmt.Errorf("deploy: unknown environment %q", env)
	}
}

// requireCleanTree fails with the dirty file list when the working tree
// has uncommitted changes.
func (p *Promoter) requireCleanTree(ctx context.Context) error {
	dirty, err := p.git.DirtyFiles(ctx)
	if err != nil {
		return err
	}
	if len(dirty) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrDirtyTree, strings.Join(dirty, "\n  "))
	}
	return nil
}

// offerPreviewPR asks whether to open a feature-to-preview pull
// request. Declining is not an error; the push already happened.
func (p *Promoter) offerPreviewPR(ctx context.Context, branch string) error {
	ok, err := p.confirmer.Confirm(fmt.Sprintf("Open a pull request from %s to %s?", branch, p.exports.PreviewBranch))
	if err != nil || !ok {
		return err
	}

	number, url, err := p.gh.PRCreate(ctx, github.PRCreateOptions{
		Title:      fmt.Sprintf("Preview: %s", strings.TrimPrefix(branch, featureBranchPrefix)),
		Body:       fmt.Sprintf("Promotes `%s` to the %s environment.", branch, p.exports.PreviewBranch),
		BaseBranch: p.exports.PreviewBranch,
		HeadBranch: branch,
	})
	if err != nil {
		if errors.Is(err, github.ErrPRAlreadyExists) {
			fmt.Fprintln(p.out, "a preview pull request is already open")
			return nil
		}
		return err
	}
	fmt.Fprintf(p.out, "opened PR #%d: %s\n", number, url)
	return nil
}

// waitHealthy polls the deployment with capped backoff until it passes
// the probe sequence twice in a row or the deadline runs out. This
// replaces a blind fixed sleep with an observable wait.
func (p *Promoter) waitHealthy(ctx context.Context, baseURL string, paths []string) error {
	err := resilience.PollUntil(ctx, p.policy, func(ctx context.Context) (bool, error) {
		report := p.prober.Verify(ctx, baseURL, paths)
		p.log.Debug("health poll", "url", baseURL, "failures", report.Failures)
		return report.Healthy(), nil
	})
	if errors.Is(err, resilience.ErrDeadlineExhausted) {
		return fmt.Errorf("%w: %s did not become healthy in time", ErrUnhealthy, baseURL)
	}
	return err
}

// verify runs the probe sequence once, printing one line per failure.
func (p *Promoter) verify(ctx context.Context, baseURL string, paths []string) error {
	report := p.prober.Verify(ctx, baseURL, paths)
	report.WriteFailures(p.out)
	if !report.Healthy() {
		return fmt.Errorf("%w: %d of %d probes failed", ErrUnhealthy, report.Failures, len(report.Results))
	}
	fmt.Fprintf(p.out, "all %d probes passed for %s\n", len(report.Results), baseURL)
	return nil
}

// productionPRBody summarizes what the release PR promotes.
func productionPRBody(e manifest.Exports) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Promotes `%s` to `%s`.\n\n", e.PreviewBranch, e.ProductionBranch)
	fmt.Fprintf(&sb, "- Preview: %s\n", e.PreviewURL)
	fmt.Fprintf(&sb, "- Production: %s\n", e.ProductionURL)
	sb.WriteString("\nPreview health was verified before this PR was opened.\n")
	return sb.String()
}
