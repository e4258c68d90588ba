package cli

import (
	"fmt"

	"pkgsweep/internal/config"
	"pkgsweep/internal/flags"
	"pkgsweep/internal/registry"

	"github.com/spf13/cobra"
)

func newKeysCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the package type/visibility pairs a clean run pages through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateTargets(); err != nil {
				return err
			}
			for _, k := range registry.Keys(cfg.Targeting.PackageTypes, cfg.Targeting.Visibilities) {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&cfg.Targeting.PackageTypes, flags.FlagTypes, cfg.Targeting.PackageTypes, "Package types (repeatable; comma-separated accepted)")
	cmd.Flags().StringSliceVar(&cfg.Targeting.Visibilities, flags.FlagVisibility, cfg.Targeting.Visibilities, "Visibilities (repeatable; comma-separated accepted)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newKeysCmd(config.New()))
}
