package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stencil-dev/stencil/internal/prereq"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the deployment toolchain is ready",
	Long: `Check that every external tool the deploy and sync commands depend
on is installed and that gh holds a valid GitHub session. All missing
tools are reported in one pass.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var problems []string
	if err := prereq.CheckTools(prereq.DeployTools...); err != nil {
		var missing *prereq.MissingToolsError
		if !errors.As(err, &missing) {
			return err
		}
		problems = append(problems, missing.Error())
	}

	if err := prereq.CheckGitHubAuth(cmd.Context(), prereq.GHAuthProbe); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		fmt.Fprintln(out, infoCard("Toolchain problems", strings.Join(problems, "\n")))
		return fmt.Errorf("doctor: %d problem(s) found", len(problems))
	}

	fmt.Fprintln(out, successCard("Toolchain ready",
		fmt.Sprintf("tools: %s", strings.Join(prereq.DeployTools, ", ")),
		"gh: authenticated"))
	return nil
}
