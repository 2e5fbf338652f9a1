package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stencil-dev/stencil/internal/health"
	"github.com/stencil-dev/stencil/internal/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Probe a deployed environment",
	Long: `Probe the URLs recorded in the project manifest. Exits non-zero when
any probe fails, with one printed line per failure.`,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.AddCommand(newVerifyEnvCmd("preview"))
	verifyCmd.AddCommand(newVerifyEnvCmd("production"))
}

func newVerifyEnvCmd(env string) *cobra.Command {
	return &cobra.Command{
		Use:   env,
		Short: fmt.Sprintf("Probe the %s deployment", env),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.EnsureProject(); err != nil {
				return err
			}

			baseURL := deps.Exports.PreviewURL
			paths := health.PreviewPaths
			if env == "production" {
				baseURL = deps.Exports.ProductionURL
				paths = health.ProductionPaths
			}

			out := cmd.OutOrStdout()
			bar := ui.NewProgress(deps.Theme, deps.Headless).Start(fmt.Sprintf("probing %s", baseURL), len(paths))
			var report health.Report
			for _, p := range paths {
				r := deps.Verifier.Verify(cmd.Context(), baseURL, []string{p})
				report.Results = append(report.Results, r.Results...)
				report.Failures += r.Failures
				bar.Increment(1)
			}
			bar.Done()
			report.WriteFailures(out)
			if !report.Healthy() {
				return fmt.Errorf("%d of %d probes failed", report.Failures, len(report.Results))
			}
			fmt.Fprintln(out, successCard(fmt.Sprintf("%s healthy", env),
				fmt.Sprintf("%d probes passed against %s", len(report.Results), baseURL)))
			return nil
		},
	}
}
