package mcpabi

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dkrasnov/trigen/internal/core"
)

func newTestHandlers() *handlers {
	return &handlers{core: core.New(core.DefaultConfig())}
}

func reqWithArgs(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestGetArgsNilArguments(t *testing.T) {
	args := getArgs(mcp.CallToolRequest{})
	if len(args) != 0 {
		t.Fatalf("expected empty map, got %v", args)
	}
}

func TestGetArgsWrongType(t *testing.T) {
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: "not a map"}}
	if len(getArgs(req)) != 0 {
		t.Fatalf("expected empty map for wrong type")
	}
}

func TestUintArgMissingOrNegative(t *testing.T) {
	if _, ok := uintArg(map[string]interface{}{}, "addr"); ok {
		t.Error("expected missing addr to fail")
	}
	if _, ok := uintArg(map[string]interface{}{"addr": -1.0}, "addr"); ok {
		t.Error("expected negative addr to fail")
	}
	if v, ok := uintArg(map[string]interface{}{"addr": 42.0}, "addr"); !ok || v != 42 {
		t.Errorf("uintArg = %v, %v; want 42, true", v, ok)
	}
}

func TestHandleTrackAndUntrack(t *testing.T) {
	h := newTestHandlers()
	defer h.core.Cleanup()

	res, err := h.handleTrack(context.Background(), reqWithArgs(map[string]interface{}{"addr": 100.0}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res.Content)
	}

	// Duplicate track should surface as a tool-level error, not a Go error.
	res, err = h.handleTrack(context.Background(), reqWithArgs(map[string]interface{}{"addr": 100.0}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected duplicate track to report a tool-level error")
	}

	res, err = h.handleUntrack(context.Background(), reqWithArgs(map[string]interface{}{"addr": 100.0}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res.Content)
	}
}

func TestHandleTrackMissingAddr(t *testing.T) {
	h := newTestHandlers()
	defer h.core.Cleanup()

	res, err := h.handleTrack(context.Background(), reqWithArgs(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected missing addr to report a tool-level error")
	}
}

func TestHandleGetStatsReflectsTrackedCount(t *testing.T) {
	h := newTestHandlers()
	defer h.core.Cleanup()

	_, _ = h.handleTrack(context.Background(), reqWithArgs(map[string]interface{}{"addr": 1.0}))
	_, _ = h.handleTrack(context.Background(), reqWithArgs(map[string]interface{}{"addr": 2.0}))

	res, err := h.handleGetStats(context.Background(), reqWithArgs(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res.Content)
	}
	text := res.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, `"TotalTracked": 2`) {
		t.Errorf("get_stats result = %s, want TotalTracked 2", text)
	}
}

func TestHandleCollectGenerationRejectsInvalidGeneration(t *testing.T) {
	h := newTestHandlers()
	defer h.core.Cleanup()

	res, err := h.handleCollectGeneration(context.Background(), reqWithArgs(map[string]interface{}{"generation": 7.0}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected generation 7 to report a tool-level error")
	}
}
