package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/experiment"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset games and the named bid range policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newPrinter(cmd.OutOrStdout())
			out.Info("Presets:")
			for _, p := range experiment.Presets() {
				out.Info(fmt.Sprintf("  %-18s %s", p.Name, p.Description))
			}
			out.Info("")
			out.Info("Bid range policies:")
			for _, name := range core.PolicyNames() {
				if name == core.DefaultPolicyName {
					out.Info(fmt.Sprintf("  %s (default)", name))
					continue
				}
				out.Info("  " + name)
			}
			return nil
		},
	}
}
