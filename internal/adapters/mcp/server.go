package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

// Server exposes dashboard reads as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	dashboard ports.DashboardReader
}

func NewServer(dashboard ports.DashboardReader, version string) *Server {
	s := server.NewMCPServer(
		"decision-noise",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		dashboard: dashboard,
	}
	srv.registerTools()
	return srv
}

func (s *Server) registerTools() {
	aggregateTool := mcp.NewTool("aggregate_metrics",
		mcp.WithDescription("Aggregate decision-noise metrics. With industry \"all\" (default) metrics are grouped by exact name across industries and averaged (rounded); with an industry id the metrics of that industry are returned unchanged."),
		mcp.WithString("industry",
			mcp.Description("Industry id, or \"all\""),
		),
	)
	techniquesTool := mcp.NewTool("list_techniques",
		mcp.WithDescription("List noise-reduction techniques applicable to an industry, or all techniques."),
		mcp.WithString("industry",
			mcp.Description("Industry id, or \"all\""),
		),
	)
	industriesTool := mcp.NewTool("list_industries",
		mcp.WithDescription("List industries with their findings and decision hygiene content."),
	)

	s.mcpServer.AddTool(aggregateTool, s.handleAggregateMetrics)
	s.mcpServer.AddTool(techniquesTool, s.handleListTechniques)
	s.mcpServer.AddTool(industriesTool, s.handleListIndustries)
}

// Run serves the tools on stdio until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleAggregateMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selection := domain.ParseSelection(request.GetString("industry", domain.AllIndustriesKey))
	metrics, err := s.dashboard.Metrics(ctx, selection)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregate metrics failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"selection": selection.String(),
		"metrics":   metrics,
	})
}

func (s *Server) handleListTechniques(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selection := domain.ParseSelection(request.GetString("industry", domain.AllIndustriesKey))
	techniques, err := s.dashboard.Techniques(ctx, selection)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list techniques failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"techniques": techniques})
}

func (s *Server) handleListIndustries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	industries, err := s.dashboard.Industries(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list industries failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"industries": industries})
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
