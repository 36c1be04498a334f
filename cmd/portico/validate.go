package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/portico/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the portal graph for consistency",
	Long: `Opens every partition and reports duplicate portal ids, portals linked to
themselves and links to partitions or portals that do not exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd, args)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("disconnected") {
			opts.CheckDisconnected, _ = cmd.Flags().GetBool("disconnected")
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		err = cli.RunValidate(sigCtx, opts, os.Stdout)
		if errors.Is(err, cli.ErrValidationFailed) {
			// The report already explains the failure.
			os.Exit(1)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("disconnected", false, "Also report portals without a destination")
	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
	validateCmd.Flags().BoolP("watch", "w", false, "Re-validate whenever a partition changes")
}
