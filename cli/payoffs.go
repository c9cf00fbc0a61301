package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/experiment"
	"github.com/cloudx-io/bayesauction/gambit"
)

func newPayoffsCmd(opts *globalOptions) *cobra.Command {
	var printRows bool

	cmd := &cobra.Command{
		Use:   "payoffs",
		Short: "Compute the payoff table and write the NFG file without solving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			runner := &experiment.Runner{Config: cfg, Logger: logger}
			_, table, path, err := runner.Payoffs(cmd.Context())
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			out.Info(fmt.Sprintf("Game:       %s", table.GameName))
			out.Info(fmt.Sprintf("Strategies: %v", table.CatalogueSizes()))
			out.Info(fmt.Sprintf("Profiles:   %d", len(table.Rows)))
			out.Info(fmt.Sprintf("NFG file:   %s", path))
			if printRows {
				out.Info("")
				for _, row := range table.Rows {
					payoffs := make([]string, len(row.Payoffs))
					for i, p := range row.Payoffs {
						payoffs[i] = gambit.FormatPayoff(p)
					}
					out.Info(fmt.Sprintf("%v %s", row.Profile, strings.Join(payoffs, ",")))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printRows, "print", false, "print every profile and its expected payoffs")
	return cmd
}

func newStrategiesCmd(opts *globalOptions) *cobra.Command {
	var player int

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List a player's pure strategies in catalogue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			game, err := experiment.BuildGame(cfg.Game)
			if err != nil {
				return err
			}
			spec, err := game.Player(player)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			strategies := spec.PureStrategies()
			out.Info(fmt.Sprintf("%s: %d strategies", gambit.PlayerLabel(player), len(strategies)))
			for i, s := range strategies {
				out.Info(fmt.Sprintf("%4d  %s  %s", i, s, spec.StrategyDescription(s)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&player, "player", 0, "seat index of the player")
	return cmd
}
