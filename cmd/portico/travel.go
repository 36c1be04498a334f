package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/portico/internal/cli"
	"github.com/aretw0/portico/pkg/adapters/loam"
)

var travelCmd = &cobra.Command{
	Use:   "travel <partition#portal | partition portal>",
	Short: "Move from the start partition to a portal in another partition",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd, nil)
		if err != nil {
			return err
		}

		var partition string
		var portalID int
		if len(args) == 2 {
			partition = args[0]
			if portalID, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid portal id %q: %w", args[1], err)
			}
		} else {
			dest, err := loam.ParseDestination(args[0])
			if err != nil {
				return err
			}
			partition, portalID = string(dest.Partition), dest.ID
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.RunTravel(sigCtx, opts, os.Stdout, partition, portalID)
	},
}

func init() {
	rootCmd.AddCommand(travelCmd)
}
