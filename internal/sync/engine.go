package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stencil-dev/stencil/internal/gitx"
	"github.com/stencil-dev/stencil/internal/registry"
)

// BackupDir is the directory under a destination root that receives
// timestamped copies of files about to be overwritten.
const BackupDir = ".sync-backups"

// backupStampLayout names one backup batch per engine run.
const backupStampLayout = "20060102-150405"

// Options control a sync run.
type Options struct {
	// DryRun reports every decision without touching the filesystem.
	DryRun bool

	// Backup copies each overwritten destination into
	// <dest>/.sync-backups/<timestamp>/ before replacing it.
	Backup bool

	// Force suppresses the divergence warning printed before an
	// out-of-date destination is overwritten.
	Force bool
}

// Outcome counts what a sync run did. The three counters are always
// reported together, even when everything was already current.
type Outcome struct {
	Applied int
	Skipped int
	Errors  int
}

// add folds another outcome into this one.
func (o *Outcome) add(other Outcome) {
	o.Applied += other.Applied
	o.Skipped += other.Skipped
	o.Errors += other.Errors
}

// String renders the standard counter summary line.
func (o Outcome) String() string {
	return fmt.Sprintf("applied=%d skipped=%d errors=%d", o.Applied, o.Skipped, o.Errors)
}

// committer is the slice of git behavior batch sync needs for
// auto-committing synced standards in a spoke.
type committer interface {
	HasStagedOrUnstagedDiff(ctx context.Context) (bool, error)
	AddAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
}

// Engine reconciles filesets between roots. It never merges; every
// entry is either copied whole or left alone.
type Engine struct {
	fsets *Filesets
	opts  Options
	out   io.Writer
	log   *slog.Logger

	// now stamps backup batch directories.
	now func() time.Time

	// gitFor builds a git client for a spoke during batch sync.
	gitFor func(dir string) committer
}

// NewEngine builds an engine writing progress to out.
func NewEngine(out io.Writer, opts Options) *Engine {
	return &Engine{
		fsets: MustFilesets(),
		opts:  opts,
		out:   out,
		log:   slog.Default().With("module", "sync"),
		now:   time.Now,
		gitFor: func(dir string) committer {
			return gitx.New(dir)
		},
	}
}

// printf writes one progress line, prefixed in dry-run mode so every
// reported action is visibly hypothetical.
func (e *Engine) printf(format string, args ...any) {
	if e.opts.DryRun {
		fmt.Fprintf(e.out, "[dry-run] "+format+"\n", args...)
		return
	}
	fmt.Fprintf(e.out, format+"\n", args...)
}

// warnf writes a warning line. Warnings keep the dry-run prefix too.
func (e *Engine) warnf(format string, args ...any) {
	e.printf("warning: "+format, args...)
}

// Push copies the shared standards fileset from a spoke into the hub,
// folding local edits back into the canonical copies. The hub lock is
// held for the duration.
func (e *Engine) Push(spokeRoot, hubRoot string) (Outcome, error) {
	return e.lockedRun(hubRoot, func() Outcome {
		e.printf("pushing standards %s -> %s", spokeRoot, hubRoot)
		return e.syncFileset(e.fsets.Hub, spokeRoot, hubRoot, false)
	})
}

// Pull copies the shared standards fileset from the hub into a spoke,
// then regenerates the spoke's guidance document. Regeneration is best
// effort and never fails the pull.
func (e *Engine) Pull(hubRoot, spokeRoot string) (Outcome, error) {
	e.printf("pulling standards %s -> %s", hubRoot, spokeRoot)
	oc := e.syncFileset(e.fsets.Hub, hubRoot, spokeRoot, false)
	if err := e.RegenerateGuidance(hubRoot, spokeRoot); err != nil {
		e.warnf("guidance regeneration: %v", err)
	}
	e.printf("%s", oc)
	return oc, nil
}

// ToProject seeds a spoke with the project fileset. Optional entries
// that already exist in the spoke are never overwritten, so projects
// may customize them after the first copy.
func (e *Engine) ToProject(hubRoot, spokeRoot string) (Outcome, error) {
	e.printf("seeding project files %s -> %s", hubRoot, spokeRoot)
	oc := e.syncFileset(e.fsets.Project, hubRoot, spokeRoot, true)
	e.printf("%s", oc)
	return oc, nil
}

// Harvest copies the harvest fileset from a spoke into the hub. Unlike
// Push it covers only the files worth folding upstream, and every
// source must exist. The hub lock is held for the duration.
func (e *Engine) Harvest(spokeRoot, hubRoot string) (Outcome, error) {
	return e.lockedRun(hubRoot, func() Outcome {
		e.printf("harvesting %s -> %s", spokeRoot, hubRoot)
		return e.syncFileset(e.fsets.Harvest, spokeRoot, hubRoot, false)
	})
}

// lockedRun executes fn while holding the hub's advisory lock. Dry runs
// skip the lock since they mutate nothing.
func (e *Engine) lockedRun(hubRoot string, fn func() Outcome) (Outcome, error) {
	if !e.opts.DryRun {
		lock, err := acquireHubLock(hubRoot, e.warnf)
		if err != nil {
			return Outcome{}, err
		}
		defer lock.release()
	}
	oc := fn()
	e.printf("%s", oc)
	return oc, nil
}

// All seeds the project fileset into every registered spoke whose
// version stamp is behind hubVersion, restamping each updated spoke.
// Optional entries a spoke already customized are left alone. With
// autoCommit, updated spokes that are git repositories get the synced
// changes committed.
func (e *Engine) All(ctx context.Context, hubRoot, registryPath, hubVersion string, autoCommit bool) (Outcome, error) {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return Outcome{}, err
	}

	var total Outcome
	for _, name := range reg.Names() {
		spokeRoot := reg.Projects[name]

		if _, statErr := os.Stat(spokeRoot); statErr != nil {
			e.warnf("%s: path %s not found, skipping", name, spokeRoot)
			total.Skipped++
			continue
		}

		stamp := registry.ReadStamp(spokeRoot)
		if registry.CompareStamps(stamp, hubVersion) >= 0 {
			e.printf("%s: up to date (%s)", name, stamp)
			total.Skipped++
			continue
		}

		e.printf("%s: %s -> %s", name, stampOrNone(stamp), hubVersion)
		oc := e.syncFileset(e.fsets.Project, hubRoot, spokeRoot, true)
		total.add(oc)

		if e.opts.DryRun || oc.Errors > 0 {
			continue
		}
		if err := registry.WriteStamp(spokeRoot, hubVersion); err != nil {
			e.warnf("%s: %v", name, err)
			total.Errors++
			continue
		}
		if autoCommit {
			if err := e.commitSynced(ctx, name, spokeRoot, hubVersion); err != nil {
				e.warnf("%s: auto-commit: %v", name, err)
				total.Errors++
			}
		}
	}

	e.printf("%s", total)
	if total.Errors > 0 {
		return total, fmt.Errorf("sync: %d error(s) across registered projects", total.Errors)
	}
	return total, nil
}

// commitSynced stages and commits a spoke's synced standards.
func (e *Engine) commitSynced(ctx context.Context, name, spokeRoot, version string) error {
	git := e.gitFor(spokeRoot)

	dirty, err := git.HasStagedOrUnstagedDiff(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		e.log.Debug("nothing to commit", "project", name)
		return nil
	}
	if err := git.AddAll(ctx); err != nil {
		return err
	}
	return git.Commit(ctx, fmt.Sprintf("chore: sync dev standards %s", version))
}

// syncFileset reconciles every entry of a fileset from srcRoot into
// dstRoot. With keepExisting, optional entries already present at the
// destination are left untouched regardless of content.
func (e *Engine) syncFileset(entries []Entry, srcRoot, dstRoot string, keepExisting bool) Outcome {
	var oc Outcome
	backupStamp := e.now().Format(backupStampLayout)

	for _, entry := range entries {
		e.syncEntry(entry, srcRoot, dstRoot, keepExisting, backupStamp, &oc)
	}
	return oc
}

// syncEntry applies one allowlist entry, updating the counters.
func (e *Engine) syncEntry(entry Entry, srcRoot, dstRoot string, keepExisting bool, backupStamp string, oc *Outcome) {
	src := filepath.Join(srcRoot, entry.SourcePath())
	dst := filepath.Join(dstRoot, entry.DestPath())
	rel := entry.DestPath()

	if _, err := os.Stat(src); err != nil {
		if entry.Optional {
			e.printf("skip %s (no source)", rel)
			oc.Skipped++
			return
		}
		e.printf("error %s: source missing at %s", rel, src)
		oc.Errors++
		return
	}

	dstInfo, dstErr := os.Stat(dst)
	dstExists := dstErr == nil

	if dstExists {
		if keepExisting && entry.Optional {
			e.printf("skip %s (exists, kept)", rel)
			oc.Skipped++
			return
		}

		equal, err := pathsEqual(src, dst)
		if err != nil {
			e.printf("error %s: %v", rel, err)
			oc.Errors++
			return
		}
		if equal {
			e.printf("skip %s (current)", rel)
			oc.Skipped++
			return
		}

		if !e.opts.Force {
			e.warnf("%s differs, overwriting", rel)
		}
		if e.opts.Backup && !e.opts.DryRun {
			if err := e.backup(dst, dstRoot, rel, backupStamp, dstInfo.IsDir()); err != nil {
				e.printf("error %s: %v", rel, err)
				oc.Errors++
				return
			}
		}
	}

	if e.opts.DryRun {
		e.printf("apply %s", rel)
		oc.Applied++
		return
	}

	if err := copyPath(src, dst); err != nil {
		e.printf("error %s: %v", rel, err)
		oc.Errors++
		return
	}
	e.printf("apply %s", rel)
	oc.Applied++
}

// backup preserves the current destination under
// <dstRoot>/.sync-backups/<stamp>/<rel> before it is replaced.
func (e *Engine) backup(dst, dstRoot, rel, stamp string, isDir bool) error {
	target := filepath.Join(dstRoot, BackupDir, stamp, rel)
	e.printf("backup %s -> %s", rel, filepath.Join(BackupDir, stamp, rel))
	if isDir {
		return copyTree(dst, target)
	}
	return copyFileAtomic(dst, target)
}

func stampOrNone(stamp string) string {
	if stamp == "" {
		return "(unstamped)"
	}
	return stamp
}
