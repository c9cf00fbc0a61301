package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/experiment"
	"github.com/cloudx-io/bayesauction/gambit"
)

func newSimulateCmd(opts *globalOptions) *cobra.Command {
	var (
		indices []int
		draws   int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play out one strategy profile with random tie-breaks",
		Long: `Plays every type tuple of the configured game out --draws times, breaking
ties at random instead of splitting them, and prints the averaged utilities
next to the exact expected payoffs. The two agree as the draws grow.

The profile is given as one catalogue index per player; see strategies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			game, err := experiment.BuildGame(cfg.Game)
			if err != nil {
				return err
			}
			if len(indices) == 0 {
				indices = make([]int, game.NumPlayers())
			}
			profile, err := game.ProfileAt(indices)
			if err != nil {
				return err
			}

			exact, err := game.ExpectedUtilities(profile)
			if err != nil {
				return err
			}
			sampled, err := game.SampleUtilities(profile, draws, nil)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			out.Info(fmt.Sprintf("Game:     %s", game.Name()))
			out.Info(fmt.Sprintf("Profile:  %v", indices))
			for i, s := range profile {
				spec, _ := game.Player(i)
				out.Info(fmt.Sprintf("  %s: %s", gambit.PlayerLabel(i), spec.StrategyDescription(s)))
			}
			out.Info(fmt.Sprintf("Exact:    %s", formatExact(exact)))
			out.Info(fmt.Sprintf("Sampled:  %s (%d draws)", formatSampled(sampled), draws))
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&indices, "profile", nil, "catalogue index per player, comma separated (default all zero)")
	cmd.Flags().IntVar(&draws, "draws", 1000, "tie-break draws per type tuple")
	return cmd
}

func formatExact(u core.Utilities) string {
	parts := make([]string, len(u))
	for i, r := range u {
		parts[i] = gambit.FormatPayoff(r)
	}
	return strings.Join(parts, ",")
}

func formatSampled(u core.Utilities) string {
	parts := make([]string, len(u))
	for i, r := range u {
		parts[i] = decimal.NewFromBigRat(r, 4).StringFixed(4)
	}
	return strings.Join(parts, ",")
}
