// Package mcp implements the Model Context Protocol server for Tairitsu.
//
// The MCP server exposes conflict screening through MCP tools and
// resources, allowing MCP-compatible AI agents to run conflict checks
// against the firm's matter book.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/tairitsu/internal/model"
	"github.com/ashita-ai/tairitsu/internal/screening"
	"github.com/ashita-ai/tairitsu/internal/storage"
)

// Server wraps the MCP server with Tairitsu's screening layer.
type Server struct {
	mcpServer  *mcpserver.MCPServer
	db         *storage.DB
	checker    *screening.Checker
	matchLimit int
	logger     *slog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(db *storage.DB, checker *screening.Checker, matchLimit int, logger *slog.Logger, version string) *Server {
	s := &Server{
		db:         db,
		checker:    checker,
		matchLimit: matchLimit,
		logger:     logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"tairitsu",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerTools()
	s.registerResources()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	// tairitsu_check — run a conflict-of-interest check against the matter book.
	s.mcpServer.AddTool(
		mcplib.NewTool("tairitsu_check",
			mcplib.WithDescription("Run a conflict-of-interest check for a prospective engagement against the owner's matter book"),
			mcplib.WithString("owner_id", mcplib.Description("Matter book owner UUID"), mcplib.Required()),
			mcplib.WithString("client_name", mcplib.Description("Prospective client name")),
			mcplib.WithString("adverse_parties", mcplib.Description("Comma-separated adverse party names")),
			mcplib.WithString("company_names", mcplib.Description("Comma-separated related company names")),
			mcplib.WithString("matter_description", mcplib.Description("Free-text description of the prospective matter")),
			mcplib.WithBoolean("persist", mcplib.Description("Persist the result as a pending check")),
		),
		s.handleCheck,
	)

	// tairitsu_match_names — fuzzy-match one name against a candidate list.
	s.mcpServer.AddTool(
		mcplib.NewTool("tairitsu_match_names",
			mcplib.WithDescription("Fuzzy-match a name against a list of candidates, returning normalized similarity scores"),
			mcplib.WithString("query", mcplib.Description("Name to match"), mcplib.Required()),
			mcplib.WithString("candidates", mcplib.Description("Comma-separated candidate names"), mcplib.Required()),
			mcplib.WithNumber("threshold", mcplib.Description("Minimum similarity score 0.0-1.0 (default 0.7)")),
			mcplib.WithNumber("limit", mcplib.Description("Maximum matches to return")),
		),
		s.handleMatchNames,
	)
}

func (s *Server) registerResources() {
	// tairitsu://checks/recent — recent conflict checks across the firm.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"tairitsu://checks/recent",
			"Recent Conflict Checks",
			mcplib.WithResourceDescription("Most recent persisted conflict checks"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleChecksRecent,
	)
}

func (s *Server) handleCheck(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ownerID, err := uuid.Parse(request.GetString("owner_id", ""))
	if err != nil {
		return errorResult("owner_id must be a valid UUID"), nil
	}

	params := model.ConflictCheckParams{
		OwnerID:        ownerID,
		AdverseParties: splitList(request.GetString("adverse_parties", "")),
		CompanyNames:   splitList(request.GetString("company_names", "")),
		Persist:        request.GetBool("persist", false),
	}
	if v := request.GetString("client_name", ""); v != "" {
		params.ClientName = &v
	}
	if v := request.GetString("matter_description", ""); v != "" {
		params.MatterDescription = &v
	}
	if params.Empty() {
		return errorResult("at least one of client_name, adverse_parties, company_names or matter_description is required"), nil
	}

	result, err := s.checker.Check(ctx, params)
	if err != nil {
		return errorResult(fmt.Sprintf("conflict check failed: %v", err)), nil
	}

	resultData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(resultData)},
		},
	}, nil
}

func (s *Server) handleMatchNames(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}
	candidates := splitList(request.GetString("candidates", ""))
	if len(candidates) == 0 {
		return errorResult("candidates is required"), nil
	}

	threshold := request.GetFloat("threshold", screening.DefaultThreshold)
	limit := request.GetInt("limit", s.matchLimit)

	matches := screening.MatchAll(query, candidates, threshold, limit)

	resultData, err := json.MarshalIndent(map[string]any{
		"query":   query,
		"matches": matches,
		"total":   len(matches),
	}, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err)), nil
	}

	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(resultData)},
		},
	}, nil
}

func (s *Server) handleChecksRecent(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	checks, err := s.db.ListRecentChecks(ctx, 20)
	if err != nil {
		return nil, fmt.Errorf("mcp: recent checks: %w", err)
	}

	data, err := json.MarshalIndent(checks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal checks: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "tairitsu://checks/recent",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// splitList parses a comma-separated argument into trimmed, non-empty items.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
