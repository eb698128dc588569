// Command server boots one bulletin-board node from a YAML cluster
// manifest. It is the external bootstrap/CLI surface: the cluster list,
// consistency mode and quorum parameters all come from the manifest and
// must agree across every node in the cluster.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/khitir/bulletin-board/internal/config"
	"github.com/khitir/bulletin-board/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run one node of the replicated bulletin-board cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
			srv := server.New(cfg, server.WithLogger(logger.With().Str("addr", cfg.Addr()).Logger()))
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the cluster manifest")
	return cmd
}
