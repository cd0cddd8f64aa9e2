// Package mcp exposes the analytics service as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"sprintlens/internal/charts"
	"sprintlens/internal/service"
	"sprintlens/internal/visuals"
)

// Server bridges MCP tool calls to the analytics service.
type Server struct {
	svc             *service.Service
	defaultProvider string
	mermaid         bool
	version         string
}

// NewServer creates a Server. defaultProvider is used when a tool call
// omits the provider argument; mermaid enables inline chart rendering
// for hosts that support it.
func NewServer(svc *service.Service, defaultProvider string, mermaid bool, version string) *Server {
	return &Server{svc: svc, defaultProvider: defaultProvider, mermaid: mermaid, version: version}
}

// Run serves tool calls over stdio until ctx is cancelled or the host
// closes the transport.
func (s *Server) Run(ctx context.Context) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "sprintlens", Version: s.version}, nil)
	s.registerTools(srv)

	log.Info().Str("version", s.version).Bool("mermaid", s.mermaid).Msg("MCP server listening on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) provider(p string) string {
	if p == "" {
		return s.defaultProvider
	}
	return p
}

// chartResult formats a chart payload as indented JSON, followed by a
// Mermaid block when rendering is enabled.
func (s *Server) chartResult(resp *charts.ChartResponse) *mcp.CallToolResult {
	text := formatJSON(resp)
	if s.mermaid {
		if block := visuals.Render(resp); block != "" {
			text = text + "\n\n" + block
		}
	}
	return textResult(text)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func formatJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
