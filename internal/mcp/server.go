// Package mcp exposes the core retrieval operations to MCP clients. It
// is a thin adapter over the Resolver, Retriever, and Pipeline — it
// never itself calls an LLM for generation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/evaluator"
	"github.com/codectx/codectx/internal/pipeline"
	"github.com/codectx/codectx/internal/resolver"
	"github.com/codectx/codectx/internal/retriever"
)

// NewServer creates an MCP server exposing resolve_targets, build_context,
// and run_pipeline over a.
func NewServer(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		"codectx",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(resolveTargetsTool(), resolveTargetsHandler(a))
	s.AddTool(buildContextTool(), buildContextHandler(a))
	s.AddTool(runPipelineTool(), runPipelineHandler(a))

	return s
}

// --- Tool definitions ---

func resolveTargetsTool() mcp.Tool {
	return mcp.NewTool("resolve_targets",
		mcp.WithDescription("Hybrid search (ANN + BM25 via RRF, optionally reranked) over the indexed code graph. Returns file-level candidates ranked by relevance to a natural language query."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query (e.g. 'authentication middleware')"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum candidates to return (default: resolver's own limit)"),
		),
	)
}

func buildContextTool() mcp.Tool {
	return mcp.NewTool("build_context",
		mcp.WithDescription("Resolves targets for a query, then walks the dependency graph forward and backward to pack a token-budgeted, dependency-aware context around the best-matching file."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query describing what you're trying to understand or change"),
		),
		mcp.WithString("target_file",
			mcp.Description("Repository-relative path to anchor the walk on. When omitted, uses the Resolver's top candidate."),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Token budget for the response (default 8000)"),
		),
	)
}

func runPipelineTool() mcp.Tool {
	return mcp.NewTool("run_pipeline",
		mcp.WithDescription("Runs the full iterative retrieval pipeline: resolve, build context, evaluate against an optional ground truth, widening search on failure up to a bounded iteration cap. Returns the final context plus the evaluation trace."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithString("target_file",
			mcp.Description("Repository-relative path to anchor the walk on"),
		),
		mcp.WithArray("ground_truth",
			mcp.Description("Known-correct file paths, used to score precision/recall (omit for a single best-effort pass)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// --- Tool handlers ---

func resolveTargetsHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("missing required parameter: query"), nil
		}
		limit := req.GetInt("limit", 0)

		g := a.Manager.GetGraph()
		res := resolver.New(ctx, g, a.Embedder, a.CrossEncoder)
		resolution, err := res.Resolve(ctx, query, resolver.Options{Limit: limit})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
		}

		return jsonToolResult(resolution)
	}
}

func buildContextHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("missing required parameter: query"), nil
		}
		targetFile := req.GetString("target_file", "")
		maxTokens := req.GetInt("max_tokens", 8000)

		g := a.Manager.GetGraph()
		res := resolver.New(ctx, g, a.Embedder, a.CrossEncoder)
		resolution, err := res.Resolve(ctx, query, resolver.Options{})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
		}

		retr := retriever.New(g, res, a.Embedder)
		ctxResult, err := retr.Build(ctx, query, targetFile, maxTokens, retriever.Options{}, resolution)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("build_context failed: %v", err)), nil
		}

		return mcp.NewToolResultText(ctxResult.Formatted), nil
	}
}

func runPipelineHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("missing required parameter: query"), nil
		}
		targetFile := req.GetString("target_file", "")
		groundTruth := req.GetStringSlice("ground_truth", nil)

		result, err := a.Pipeline.Run(ctx, query, pipeline.Options{
			TargetFile:  targetFile,
			GroundTruth: groundTruth,
			EvalConfig:  evaluator.Config{PrecisionThreshold: 0.5, RecallThreshold: 0.5},
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run_pipeline failed: %v", err)), nil
		}

		return jsonToolResult(result)
	}
}

func jsonToolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
