package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stencil-dev/stencil/internal/manifest"
	"github.com/stencil-dev/stencil/internal/registry"
	syncpkg "github.com/stencil-dev/stencil/internal/sync"
	"github.com/stencil-dev/stencil/pkg/version"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync shared standards between the hub and spoke projects",
	Long: `Copy the allowlisted standards files between the hub template and
spoke projects. Sync is copy-or-skip, never merge: byte-identical files
are skipped, diverged files are overwritten with a warning.`,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.PersistentFlags().BoolP("dry-run", "d", false, "Report what would change without writing")
	syncCmd.PersistentFlags().BoolP("backup", "b", false, "Back up overwritten files into .sync-backups/")
	syncCmd.PersistentFlags().BoolP("force", "f", false, "Suppress divergence warnings")
	syncCmd.PersistentFlags().String("hub", "", "Hub template root (default: STENCIL_HUB)")

	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncToProjectCmd)
	syncCmd.AddCommand(syncAllCmd)
	syncCmd.AddCommand(syncHarvestCmd)
	syncCmd.AddCommand(syncRegisterCmd)

	syncAllCmd.Flags().String("registry", "", "Projects registry path (default: <hub>/"+registry.ProjectsFile+")")
	syncAllCmd.Flags().Bool("auto-commit", false, "Commit synced changes in each updated spoke")
	syncRegisterCmd.Flags().String("registry", "", "Projects registry path (default: <hub>/"+registry.ProjectsFile+")")
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push local standards edits from this spoke into the hub",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, hub, err := engineAndHub(cmd)
		if err != nil {
			return err
		}
		spoke, err := spokeRoot()
		if err != nil {
			return err
		}
		_, err = engine.Push(spoke, hub)
		return err
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the hub's standards into this spoke",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, hub, err := engineAndHub(cmd)
		if err != nil {
			return err
		}
		spoke, err := spokeRoot()
		if err != nil {
			return err
		}
		_, err = engine.Pull(hub, spoke)
		return err
	},
}

var syncToProjectCmd = &cobra.Command{
	Use:   "to-project <path>",
	Short: "Seed one project with the hub's project fileset",
	Long: `Copy the project fileset from the hub into one spoke. Entries marked
optional are copied once and never overwritten, so the spoke may
customize them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, hub, err := engineAndHub(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(args[0]); err != nil {
			return fmt.Errorf("sync: target project path %s does not exist", args[0])
		}
		_, err = engine.ToProject(hub, args[0])
		return err
	},
}

var syncAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Sync every registered project that is behind the hub version",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, hub, err := engineAndHub(cmd)
		if err != nil {
			return err
		}

		regPath, _ := cmd.Flags().GetString("registry")
		if regPath == "" {
			regPath = registry.DefaultPath(hub)
		}
		autoCommit, _ := cmd.Flags().GetBool("auto-commit")

		hubVersion := registry.ReadStamp(hub)
		if hubVersion == "" {
			hubVersion = version.GetVersion()
		}

		_, err = engine.All(cmd.Context(), hub, regPath, hubVersion, autoCommit)
		return err
	},
}

var syncHarvestCmd = &cobra.Command{
	Use:   "harvest <path>",
	Short: "Fold a live project's standards improvements back into the hub",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, hub, err := engineAndHub(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(args[0]); err != nil {
			return fmt.Errorf("sync: source project path %s does not exist", args[0])
		}
		_, err = engine.Harvest(args[0], hub)
		return err
	},
}

var syncRegisterCmd = &cobra.Command{
	Use:   "register <name> <path>",
	Short: "Register a project for batch syncs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, hub, err := engineAndHub(cmd)
		if err != nil {
			return err
		}

		regPath, _ := cmd.Flags().GetString("registry")
		if regPath == "" {
			regPath = registry.DefaultPath(hub)
		}

		name, path := args[0], args[1]
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		reg, err := registry.LoadOrCreate(regPath)
		if err != nil {
			return err
		}
		reg.Register(name, abs)
		if err := reg.Save(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), successCard("registered",
			fmt.Sprintf("%s -> %s", name, abs)))
		return nil
	},
}

// engineAndHub builds the sync engine from the persistent flags and
// resolves the hub root.
func engineAndHub(cmd *cobra.Command) (*syncpkg.Engine, string, error) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	backup, _ := cmd.Flags().GetBool("backup")
	force, _ := cmd.Flags().GetBool("force")

	engine := syncpkg.NewEngine(cmd.OutOrStdout(), syncpkg.Options{
		DryRun: dryRun,
		Backup: backup,
		Force:  force,
	})

	hub, _ := cmd.Flags().GetString("hub")
	if hub == "" {
		hub = os.Getenv("STENCIL_HUB")
	}
	if hub == "" {
		return nil, "", fmt.Errorf("sync: hub root not set (use --hub or STENCIL_HUB)")
	}
	return engine, hub, nil
}

// spokeRoot resolves the enclosing spoke project from the working
// directory.
func spokeRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := manifest.LocateRoot(cwd)
	if err != nil {
		return "", fmt.Errorf("sync: run inside a spoke project: %w", err)
	}
	return root, nil
}
