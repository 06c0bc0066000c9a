package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// configCommand creates the config command, which prints the effective
// configuration as TOML.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the settings in effect after merging the config file over the
built-in defaults. The output is valid TOML and can be saved as ecomap.toml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), c.cfg.String())
			return nil
		},
	}
}
