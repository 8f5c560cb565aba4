package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/GoCodeAlone/deskmate/project"
	"github.com/GoCodeAlone/deskmate/provider"
	"github.com/GoCodeAlone/deskmate/tools"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echo the word argument" }
func (echoTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        "echo",
		Description: "Echo the word argument",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"word": map[string]any{"type": "string"}},
			"required":   []string{"word"},
		},
	}
}
func (echoTool) Execute(_ context.Context, args map[string]any) (any, error) {
	w, _ := args["word"].(string)
	if w == "" {
		return nil, project.ErrNotFound
	}
	return map[string]any{"word": w}, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "echo"
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content items = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestHandler(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool{})
	h := Handler(reg, "echo", nil)

	res, err := h(context.Background(), callRequest(map[string]any{"word": "hi"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Error("IsError set on success")
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["word"] != "hi" {
		t.Errorf("word = %q, want hi", got["word"])
	}
}

func TestHandler_ErrorPayload(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool{})
	res, err := Handler(reg, "echo", nil)(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Error("IsError not set")
	}
	var p tools.ErrorPayload
	if err := json.Unmarshal([]byte(resultText(t, res)), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Kind != tools.KindNotFound {
		t.Errorf("kind = %q, want %q", p.Kind, tools.KindNotFound)
	}
}

func TestNew_RegistersTools(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(echoTool{})
	s, err := New(reg, "test", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s == nil {
		t.Fatal("nil server")
	}
}
