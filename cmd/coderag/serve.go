package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coderag/internal/mcptools"
)

func serveCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server on stdio, exposing the
clone_repo, search_code, get_file, and update_index tools to MCP clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := buildService(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			// stdout carries the protocol; zap already writes to stderr.
			logger.Info("starting MCP server", zap.String("version", version))

			srv := mcptools.NewServer(svc, logger)
			return srv.ServeStdio()
		},
	}
}
