// Package cli implements the auctionlab command tree.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/config"
	"github.com/cloudx-io/bayesauction/experiment"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	preset     string
	logFormat  string
}

// ExecuteContext runs the command tree; ctx cancels long running commands.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "auctionlab",
		Short: "Bayesian sealed-bid auctions: payoff tables, NFG files and equilibria",
		Long: `auctionlab builds finite Bayesian first-price and all-pay auctions,
computes their exact expected payoff tables, writes them as Gambit NFG files
and runs a Gambit solver on them.

Run a preset:
  auctionlab run --preset first-price

Run the game described in a configuration file:
  auctionlab run --config auction.toml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.preset, "preset", "", "replace the configured game with a named preset")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "diagnostic log format: json or text")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newPayoffsCmd(opts))
	rootCmd.AddCommand(newStrategiesCmd(opts))
	rootCmd.AddCommand(newSimulateCmd(opts))
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newVerifyCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	return rootCmd
}

// loadConfig loads and validates the configuration and installs the
// diagnostic logger it asks for.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.preset != "" {
		p, err := experiment.LookupPreset(opts.preset)
		if err != nil {
			return nil, nil, err
		}
		p.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts.logFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
