package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/portico/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the portal graph visualization",
	Long:  `Inspects the partitions and outputs a Mermaid diagram (graph LR) of every portal link.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd, args)
		if err != nil {
			return err
		}
		overlay, _ := cmd.Flags().GetBool("issues")
		return cli.RunGraph(cmd.Context(), opts, os.Stdout, overlay)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("issues", false, "Highlight portals with validation issues and the start partition")
}
