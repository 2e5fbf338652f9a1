// Package cli provides the Cobra command tree and dependency wiring
// for the stencil CLI.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stencil-dev/stencil/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "stencil",
	Short: "Hub-and-spoke project templating and deployment promotion",
	Long: `stencil manages a hub template repository and the spoke projects
derived from it: bootstrapping new projects, keeping shared standards in
sync across every spoke, and promoting deployments through the
preview and production environments recorded in each project's
deployment manifest.`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute initializes dependencies and runs the root command.
func Execute() error {
	InitDependencies()
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("stencil %s\n", version.GetFullVersion()))
}
