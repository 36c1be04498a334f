package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/portico/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP control server",
	Long: `Exposes transitions, the activation gate and validation over a JSON API,
with Server-Sent Events at /events and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd, args)
		if err != nil {
			return err
		}
		applyServerFlags(cmd, &opts)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.RunServe(sigCtx, opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServerFlags(serveCmd)
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("redis", "", "Redis address for report publishing (host:port)")
	cmd.Flags().Bool("redis-store", false, "Serve partitions from redis, seeded from --dir")
}

func applyServerFlags(cmd *cobra.Command, opts *cli.Options) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		opts.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("redis") {
		opts.Redis.Addr, _ = flags.GetString("redis")
	}
	opts.RedisStore, _ = flags.GetBool("redis-store")
}
