// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the kmetrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"kmetrics Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_revision_totals ---
	s.AddTool(mcp.NewTool("get_revision_totals",
		mcp.WithDescription("Count the features of each Linux revision, unioned over its architectures."),
		mcp.WithString("extractor", mcp.Description("Only report one extractor."), mcp.Enum("KConfigReader", "KClause")),
	), h.handleGetRevisionTotals)

	// --- 2. Tool: get_model_count_totals ---
	s.AddTool(mcp.NewTool("get_model_count_totals",
		mcp.WithDescription("Report the configuration-space size of each revision as a number of decimal digits, with the architectures that failed to count."),
		mcp.WithNumber("solve_max_year", mcp.Description("Ignore revisions committed after this year (0 for no cap).")),
	), h.handleGetModelCountTotals)

	// --- 3. Tool: get_metric_snapshot ---
	s.AddTool(mcp.NewTool("get_metric_snapshot",
		mcp.WithDescription("Render the latest value and the multi-year history of the dashboard metrics."),
		mcp.WithString("project", mcp.Description("Project key, e.g. 'linux/all' or 'linux/x86'.")),
		mcp.WithString("metric", mcp.Description("Metric name."),
			mcp.Enum("total-features", "features", "source_lines_of_code", "model-count", "model-count-time")),
	), h.handleGetMetricSnapshot)

	// --- 4. Tool: get_extractor_agreement ---
	s.AddTool(mcp.NewTool("get_extractor_agreement",
		mcp.WithDescription("Compare the feature sets both extractors found for each revision and architecture."),
		mcp.WithString("revision", mcp.Description("Only report one revision, e.g. 'v4.0'.")),
	), h.handleGetExtractorAgreement)

	// --- 5. Tool: get_potential_misses ---
	s.AddTool(mcp.NewTool("get_potential_misses",
		mcp.WithDescription("List config symbols the config grep or KClause may have missed."),
	), h.handleGetPotentialMisses)

	return s
}

// StartMCPServer starts the kmetrics MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
