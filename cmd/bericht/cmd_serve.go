// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/tool"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := tool.New(a.opts, a.logger)
			if err != nil {
				return err
			}
			server := mcp.NewServer(&mcp.Implementation{Name: "bericht", Version: version}, nil)
			tools.Register(server)

			a.logger.Info("mcp server starting", zap.Strings("tools", tool.Names()), zap.String("lang", a.opts.Lang))
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
