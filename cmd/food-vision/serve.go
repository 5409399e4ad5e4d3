package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/food-vision-mcp/internal/server"
)

func newServeCmd(opts *rootOptions, log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run the MCP server. Requests are read from stdin and responses written to
stdout, one JSON-RPC message per line. Configure it in your MCP client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			p, cleanup, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			log.WithFields(logrus.Fields{
				"version": Version,
				"commit":  GitCommit,
				"groups":  len(cfg.Groups),
			}).Info("food-vision MCP server starting")

			srv := server.New(p, server.WithLogger(log), server.WithVersion(Version))
			return srv.Run(cmd.Context())
		},
	}
}
