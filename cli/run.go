package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/experiment"
	"github.com/cloudx-io/bayesauction/gambit"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var reportOut string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the game, write its NFG file and compute its equilibria",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if reportOut != "" && !cfg.Attest.Enabled {
				return fmt.Errorf("--report-out needs attest.enabled")
			}

			runner, err := experiment.NewRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := runner.Run(cmd.Context())
			if err != nil {
				logger.Error("run failed", slog.String("error", err.Error()))
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			out.Info(fmt.Sprintf("Run:        %s", result.RunID))
			out.Info(fmt.Sprintf("Game:       %s", result.Table.GameName))
			out.Info(fmt.Sprintf("Strategies: %v", result.Table.CatalogueSizes()))
			out.Info(fmt.Sprintf("NFG file:   %s", result.NFGPath))
			if result.ReportPath != "" {
				out.Info(fmt.Sprintf("Report:     %s", result.ReportPath))
			}
			out.Info(fmt.Sprintf("Elapsed:    %s", result.Elapsed))
			printEquilibria(out, result.Table, result.Equilibria)

			if reportOut != "" {
				data := result.Sealed.EncodeBase64().String()
				if err := os.WriteFile(reportOut, []byte(data+"\n"), 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				out.Info(fmt.Sprintf("Sealed report written to %s", reportOut))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportOut, "report-out", "", "write the sealed report (base64 COSE_Sign1) to this file")
	return cmd
}

// printEquilibria lists, for every equilibrium, the strategies each player
// plays with positive probability.
func printEquilibria(out *slog.Logger, table *core.PayoffTable, equilibria []gambit.Equilibrium) {
	if len(equilibria) == 0 {
		out.Info("No equilibrium found")
		return
	}
	out.Info(fmt.Sprintf("Equilibria: %d", len(equilibria)))
	for i, eq := range equilibria {
		out.Info("")
		out.Info(fmt.Sprintf("Equilibrium %d of %d", i+1, len(equilibria)))
		support, err := eq.Support()
		if err != nil {
			out.Info(fmt.Sprintf("  unreadable probabilities: %v", err))
			continue
		}
		for _, ref := range support {
			p, _ := eq.Probability(ref)
			out.Info(fmt.Sprintf("  %s: %s (p=%s)", gambit.PlayerLabel(ref.Player), table.Descriptions[ref.Player][ref.Strategy], p))
		}
	}
}
