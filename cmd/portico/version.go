package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/portico"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of portico",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("portico version %s\n", strings.TrimSpace(portico.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
