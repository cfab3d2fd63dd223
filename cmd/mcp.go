package cmd

import (
	"github.com/huangsam/kmetrics/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the kmetrics MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents query revision totals,
model counts, metric snapshots and extractor agreement via standard tools.

Logs go to stderr so they do not interfere with the protocol on stdout.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
