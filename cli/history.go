package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/store"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, or show one run's equilibria",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			out := newPrinter(cmd.OutOrStdout())
			if runID != "" {
				run, err := db.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				out.Info(fmt.Sprintf("Run:        %s", run.ID))
				out.Info(fmt.Sprintf("Game:       %s", run.GameName))
				out.Info(fmt.Sprintf("Policy:     %s (all_pay=%t no_ties=%t)", run.Policy, run.AllPay, run.NoTies))
				out.Info(fmt.Sprintf("Strategies: %v", run.CatalogueSizes))
				out.Info(fmt.Sprintf("NFG file:   %s", run.NFGPath))
				out.Info(fmt.Sprintf("Table hash: %s", run.TableHash))
				out.Info(fmt.Sprintf("Sealed:     %t", run.SealedReport != ""))
				out.Info(fmt.Sprintf("Created:    %s", run.CreatedAt.Format(time.RFC3339)))
				for i, eq := range run.Equilibria {
					out.Info(fmt.Sprintf("  NE %d: %s", i+1, strings.Join(eq, ",")))
				}
				return nil
			}

			runs, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				out.Info("No runs recorded")
				return nil
			}
			for _, run := range runs {
				out.Info(fmt.Sprintf("%s  %s  %-40s  %d equilibria",
					run.CreatedAt.Format(time.RFC3339), run.ID, run.GameName, run.EquilibriumCount))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list, 0 for all")
	cmd.Flags().StringVar(&runID, "run", "", "show the run with this ID")
	return cmd
}
