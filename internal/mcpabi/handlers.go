package mcpabi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dkrasnov/trigen/internal/core"
)

// handlers binds MCP tool callbacks to a single Core.
type handlers struct {
	core *core.Core
}

func (h *handlers) handleTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	addr, ok := uintArg(args, "addr")
	if !ok {
		return errResult("addr is required and must be a non-negative integer"), nil
	}
	if err := h.core.Track(addr); err != nil {
		return errResult(err.Error()), nil
	}
	return newTextResult(fmt.Sprintf("tracked %#x", addr)), nil
}

func (h *handlers) handleUntrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	addr, ok := uintArg(args, "addr")
	if !ok {
		return errResult("addr is required and must be a non-negative integer"), nil
	}
	if err := h.core.Untrack(addr); err != nil {
		return errResult(err.Error()), nil
	}
	return newTextResult(fmt.Sprintf("untracked %#x", addr)), nil
}

func (h *handlers) handleCollect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.core.Collect()
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) handleCollectGeneration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	g, ok := intArg(args, "generation")
	if !ok {
		return errResult("generation is required and must be 0, 1, or 2"), nil
	}
	stats, err := h.core.CollectGeneration(g)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.core.GetStats()
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) handleGetStateString(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.core.GetStateString()
	if err != nil {
		return errResult(err.Error()), nil
	}
	return newTextResult(s), nil
}

func (h *handlers) handleDebugState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ds, err := h.core.DebugState()
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(ds)
}

// getArgs safely extracts the arguments map from a CallToolRequest. Returns
// an empty map if Arguments is nil or not a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// uintArg extracts a non-negative integer argument as a uintptr.
func uintArg(args map[string]interface{}, key string) (uintptr, bool) {
	val, ok := args[key]
	if !ok || val == nil {
		return 0, false
	}
	f, ok := val.(float64)
	if !ok || f < 0 {
		return 0, false
	}
	return uintptr(f), true
}

// intArg extracts an integer argument.
func intArg(args map[string]interface{}, key string) (int, bool) {
	val, ok := args[key]
	if !ok || val == nil {
		return 0, false
	}
	f, ok := val.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult marshals v and wraps it as a successful text result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(data)), nil
}

// errResult creates an MCP tool-level error result (IsError=true), not a
// transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
