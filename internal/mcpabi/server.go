// Package mcpabi exposes internal/core's operations as MCP tools, so an
// agent can track/untrack addresses, trigger collections, and inspect
// statistics over stdio. Structurally this follows the teacher's
// internal/mcp.Server: a thin wrapper constructing a server.MCPServer and
// registering one mcp.NewTool per capability, delegating to handler
// functions that translate tool arguments into core calls and marshal the
// result back to JSON text.
package mcpabi

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dkrasnov/trigen/internal/core"
)

// Server wraps the MCP server instance bound to a single Core.
type Server struct {
	mcpServer *server.MCPServer
	core      *core.Core
}

// NewServer creates an MCP server whose tools operate on c.
func NewServer(version string, c *core.Core) *Server {
	s := server.NewMCPServer("trigen", version, server.WithLogging())
	h := &handlers{core: c}
	registerTools(s, h)
	return &Server{mcpServer: s, core: c}
}

// Start runs the server in stdio mode (blocking) until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func registerTools(s *server.MCPServer, h *handlers) {
	trackTool := mcp.NewTool("track",
		mcp.WithDescription("Register a new address with generation 0 of the collector. Fails if already tracked."),
		mcp.WithNumber("addr", mcp.Required(), mcp.Description("Address to track, as a decimal integer")),
	)
	s.AddTool(trackTool, h.handleTrack)

	untrackTool := mcp.NewTool("untrack",
		mcp.WithDescription("Remove a previously tracked address. Fails if not currently tracked."),
		mcp.WithNumber("addr", mcp.Required(), mcp.Description("Address to untrack, as a decimal integer")),
	)
	s.AddTool(untrackTool, h.handleUntrack)

	collectTool := mcp.NewTool("collect",
		mcp.WithDescription("Run a full collection cycle across all three generations (equivalent to collect_generation(2))."),
	)
	s.AddTool(collectTool, h.handleCollect)

	collectGenTool := mcp.NewTool("collect_generation",
		mcp.WithDescription("Run a collection cycle against generations 0..g."),
		mcp.WithNumber("generation", mcp.Required(), mcp.Description("Oldest generation to include: 0, 1, or 2")),
	)
	s.AddTool(collectGenTool, h.handleCollectGeneration)

	statsTool := mcp.NewTool("get_stats",
		mcp.WithDescription("Return the current statistics record: total tracked, per-generation counts, and uncollectable count."),
	)
	s.AddTool(statsTool, h.handleGetStats)

	stateTool := mcp.NewTool("get_state_string",
		mcp.WithDescription("Return the single-line human-readable collector state summary."),
	)
	s.AddTool(stateTool, h.handleGetStateString)

	debugStateTool := mcp.NewTool("debug_state",
		mcp.WithDescription("Return a full diagnostic snapshot, including tracked addresses grouped by generation and recent cycle history."),
	)
	s.AddTool(debugStateTool, h.handleDebugState)
}
