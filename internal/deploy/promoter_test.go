package deploy

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stencil-dev/stencil/internal/github"
	"github.com/stencil-dev/stencil/internal/health"
	"github.com/stencil-dev/stencil/internal/manifest"
	"github.com/stencil-dev/stencil/internal/resilience"
	"github.com/stencil-dev/stencil/internal/ui"
)

type fakeGit struct {
	branch string
	dirty  []string
	pushed bool
}

func (f *fakeGit) CurrentBranch(ctx context.Context) (string, error) {
	return f.branch, nil
}

func (f *fakeGit) DirtyFiles(ctx context.Context) ([]string, error) {
	return f.dirty, nil
}

func (f *fakeGit) Push(ctx context.Context) error {
	f.pushed = true
	return nil
}

type fakeGH struct {
	created []github.PRCreateOptions
	err     error
}

func (f *fakeGH) IsAuthenticated(ctx context.Context) error {
	return nil
}

func (f *fakeGH) PRCreate(ctx context.Context, opts github.PRCreateOptions) (int, string, error) {
	if f.err != nil {
		return 0, "", f.err
	}
	f.created = append(f.created, opts)
	return 42, "https://github.com/acme/demo/pull/42", nil
}

type fakeProber struct {
	failures int
	calls    int
}

func (f *fakeProber) Verify(ctx context.Context, baseURL string, paths []string) health.Report {
	f.calls++
	report := health.Report{Failures: f.failures}
	for i, path := range paths {
		r := health.ProbeResult{URL: baseURL + path, OK: i >= f.failures, Status: 200}
		report.Results = append(report.Results, r)
	}
	return report
}

type fakeValidator struct {
	err error
	ran bool
}

func (f *fakeValidator) Validate(ctx context.Context, dir string) error {
	f.ran = true
	return f.err
}

func demoExports() manifest.Exports {
	return manifest.Exports{
		ProjectName:      "demo",
		GitHubOwner:      "acme",
		GitHubRepo:       "demo",
		PreviewURL:       "https://demo-git-preview-acme.vercel.app",
		ProductionURL:    "https://demo.example.com",
		PreviewBranch:    "preview",
		ProductionBranch: "main",
	}
}

type harness struct {
	promoter  *Promoter
	git       *fakeGit
	gh        *fakeGH
	prober    *fakeProber
	confirmer *ui.StaticConfirmer
	validator *fakeValidator
	out       *bytes.Buffer
}

func newHarness(branch string) *harness {
	h := &harness{
		git:       &fakeGit{branch: branch},
		gh:        &fakeGH{},
		prober:    &fakeProber{},
		confirmer: &ui.StaticConfirmer{Approve: true},
		validator: &fakeValidator{},
		out:       &bytes.Buffer{},
	}
	h.promoter = NewPromoter("/tmp/demo", demoExports(), Deps{
		Git:       h.git,
		GH:        h.gh,
		Prober:    h.prober,
		Confirmer: h.confirmer,
		Validator: h.validator,
	}, h.out)
	h.promoter.policy = resilience.PollPolicy{
		BaseDelay:     time.Millisecond,
		MaxDelay:      time.Millisecond,
		Deadline:      100 * time.Millisecond,
		SuccessStreak: 2,
	}
	return h
}

func TestPromotePreviewBranchGate(t *testing.T) {
	h := newHarness("main")

	err := h.promoter.PromotePreview(context.Background())
	if !errors.Is(err, ErrBranchGate) {
		t.Fatalf("err = %v, want ErrBranchGate", err)
	}
	if h.git.pushed {
		t.Error("push happened despite failed branch gate")
	}
	if h.validator.ran {
		t.Error("validation ran despite failed branch gate")
	}
}

func TestPromotePreviewDirtyTree(t *testing.T) {
	h := newHarness("preview")
	h.git.dirty = []string{" M app/page.tsx", "?? notes.md"}

	err := h.promoter.PromotePreview(context.Background())
	if !errors.Is(err, ErrDirtyTree) {
		t.Fatalf("err = %v, want ErrDirtyTree", err)
	}
	if h.git.pushed {
		t.Error("push happened despite dirty tree")
	}
	if !errors.Is(err, ErrDirtyTree) || !bytes.Contains([]byte(err.Error()), []byte("app/page.tsx")) {
		t.Errorf("dirty files not listed: %v", err)
	}
}

func TestPromotePreviewValidationFailureBlocksPush(t *testing.T) {
	h := newHarness("preview")
	h.validator.err = errors.New("lint failed")

	err := h.promoter.PromotePreview(context.Background())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if h.git.pushed {
		t.Error("push happened despite failed validation")
	}
}

func TestPromotePreviewFromPreviewBranch(t *testing.T) {
	h := newHarness("preview")

	if err := h.promoter.PromotePreview(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !h.git.pushed {
		t.Error("push not invoked")
	}
	// No PR offer on the preview branch itself.
	if len(h.confirmer.Prompts) != 0 {
		t.Errorf("unexpected prompts: %v", h.confirmer.Prompts)
	}
	if h.prober.calls == 0 {
		t.Error("health verification never ran")
	}
}

func TestPromotePreviewFeatureBranchOffersPR(t *testing.T) {
	h := newHarness("feature/login")

	if err := h.promoter.PromotePreview(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.gh.created) != 1 {
		t.Fatalf("prs = %v", h.gh.created)
	}
	pr := h.gh.created[0]
	if pr.BaseBranch != "preview" || pr.HeadBranch != "feature/login" {
		t.Errorf("pr = %+v", pr)
	}
}

func TestPromotePreviewDeclinedPRStillSucceeds(t *testing.T) {
	h := newHarness("feature/login")
	h.confirmer.Approve = false

	if err := h.promoter.PromotePreview(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.gh.created) != 0 {
		t.Error("PR created despite decline")
	}
	if !h.git.pushed {
		t.Error("push should have happened before the offer")
	}
}

func TestPromotePreviewUnhealthyDeployment(t *testing.T) {
	h := newHarness("preview")
	h.prober.failures = 1

	err := h.promoter.PromotePreview(context.Background())
	if !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("err = %v, want ErrUnhealthy", err)
	}
}

func TestPromoteProductionBranchGateBeforeConfirm(t *testing.T) {
	h := newHarness("feature/login")

	err := h.promoter.PromoteProduction(context.Background())
	if !errors.Is(err, ErrBranchGate) {
		t.Fatalf("err = %v, want ErrBranchGate", err)
	}
	if len(h.confirmer.Prompts) != 0 {
		t.Error("confirmation prompted despite failed branch gate")
	}
	if len(h.gh.created) != 0 {
		t.Error("PR created despite failed branch gate")
	}
}

func TestPromoteProductionValidationFailureBlocks(t *testing.T) {
	h := newHarness("preview")
	h.validator.err = errors.New("typecheck failed")

	err := h.promoter.PromoteProduction(context.Background())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if h.prober.calls != 0 {
		t.Error("preview probed despite failed validation")
	}
	if len(h.confirmer.Prompts) != 0 {
		t.Error("confirmation prompted despite failed validation")
	}
	if len(h.gh.created) != 0 {
		t.Error("PR created despite failed validation")
	}
}

func TestPromoteProductionUnhealthyPreviewBlocks(t *testing.T) {
	h := newHarness("preview")
	h.prober.failures = 2

	err := h.promoter.PromoteProduction(context.Background())
	if !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("err = %v, want ErrUnhealthy", err)
	}
	if len(h.confirmer.Prompts) != 0 {
		t.Error("confirmation prompted despite unhealthy preview")
	}
}

func TestPromoteProductionDeclined(t *testing.T) {
	h := newHarness("preview")
	h.confirmer.Approve = false

	err := h.promoter.PromoteProduction(context.Background())
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}
	if len(h.gh.created) != 0 {
		t.Error("PR created despite declined confirmation")
	}
}

func TestPromoteProductionOpensPR(t *testing.T) {
	h := newHarness("preview")

	if err := h.promoter.PromoteProduction(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.gh.created) != 1 {
		t.Fatalf("prs = %v", h.gh.created)
	}
	pr := h.gh.created[0]
	if pr.BaseBranch != "main" || pr.HeadBranch != "preview" {
		t.Errorf("pr = %+v", pr)
	}
	if !bytes.Contains(h.out.Bytes(), []byte("pull/42")) {
		t.Errorf("PR URL not printed:\n%s", h.out.String())
	}
}

func TestPromoteProductionExistingPRIsFine(t *testing.T) {
	h := newHarness("preview")
	h.gh.err = github.ErrPRAlreadyExists

	if err := h.promoter.PromoteProduction(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(h.out.Bytes(), []byte("already open")) {
		t.Errorf("output:\n%s", h.out.String())
	}
}

func TestVerifyEnvironment(t *testing.T) {
	h := newHarness("preview")

	if err := h.promoter.VerifyEnvironment(context.Background(), "production"); err != nil {
		t.Fatal(err)
	}

	h.prober.failures = 1
	if err := h.promoter.VerifyEnvironment(context.Background(), "preview"); !errors.Is(err, ErrUnhealthy) {
		t.Errorf("err = %v, want ErrUnhealthy", err)
	}

	if err := h.promoter.VerifyEnvironment(context.Background(), "staging"); err == nil {
		t.Error("unknown environment accepted")
	}
}
