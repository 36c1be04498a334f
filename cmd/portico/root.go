package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/portico/internal/cli"
	"github.com/aretw0/portico/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "portico",
	Short: "Portico manages portals between partitions of a world",
	Long: `Portico loads partitions (areas of a world) from Markdown, JSON or YAML files,
moves agents between them through portals and validates the portal graph.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the Portico partitions")
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "Path to the config file")
	rootCmd.PersistentFlags().String("start", "", "Partition to load and activate on startup")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadOptions resolves the config file and lets explicit flags override it.
func loadOptions(cmd *cobra.Command, args []string) (cli.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cli.Options{}, err
	}
	opts := cli.FromConfig(cfg)

	flags := cmd.Flags()
	if flags.Changed("dir") {
		opts.Dir, _ = flags.GetString("dir")
	} else if len(args) > 0 {
		opts.Dir = args[0]
	}
	if flags.Changed("start") {
		opts.StartPartition, _ = flags.GetString("start")
	}
	if flags.Changed("log-level") {
		opts.LogLevel, _ = flags.GetString("log-level")
	}
	opts.Debug, _ = flags.GetBool("debug")
	return opts, nil
}
