package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/kmetrics/core"
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// jsonResult renders data as an indented JSON text result.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetRevisionTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	var only schema.Extractor
	if e := request.GetString("extractor", ""); e != "" {
		parsed, err := schema.ParseExtractor(e)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid extractor: %v", err)), nil
		}
		only = parsed
	}

	report, _, err := core.GetFeaturesResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}

	totals := []schema.RevisionTotal{}
	for _, t := range schema.RevisionTotals(report.Descriptors) {
		if only == "" || t.Extractor == only {
			totals = append(totals, t)
		}
	}
	return jsonResult(totals)
}

func (h *toolHandler) handleGetModelCountTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if y := request.GetInt("solve_max_year", -1); y >= 0 {
		cfg.SolveMaxYear = y
	} else if y != -1 {
		return mcp.NewToolResultError("solve_max_year must not be negative"), nil
	}

	report, _, err := core.GetCountsResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("model-count normalization failed: %v", err)), nil
	}

	type totalsResult struct {
		Totals   []schema.AggregateTotal   `json:"totals"`
		Failures []schema.RevisionFailures `json:"failures"`
		MaxYear  int                       `json:"solve_max_year"`
	}
	return jsonResult(totalsResult{Totals: report.Totals, Failures: report.Failures, MaxYear: report.MaxYear})
}

func (h *toolHandler) handleGetMetricSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	project := request.GetString("project", "")
	metric := schema.MetricName(request.GetString("metric", ""))

	metrics, _, err := core.GetSnapshotResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
	}
	if project != "" {
		if _, ok := metrics[project]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown project %q", project)), nil
		}
	}

	rows := []schema.SnapshotRow{}
	for _, r := range metrics.Rows() {
		if (project == "" || r.Project == project) && (metric == "" || r.Metric == metric) {
			rows = append(rows, r)
		}
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleGetExtractorAgreement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	revision := request.GetString("revision", "")

	report, _, err := core.GetFeaturesResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}

	comparisons := []schema.ExtractorComparison{}
	for _, c := range report.ExtractorComparison {
		if revision == "" || c.Revision == revision {
			comparisons = append(comparisons, c)
		}
	}
	return jsonResult(comparisons)
}

func (h *toolHandler) handleGetPotentialMisses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.ShowMisses = true

	report, _, err := core.GetFeaturesResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}
	return jsonResult(report.Misses)
}
