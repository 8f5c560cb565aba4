package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != defaultAnthropicModel {
			t.Errorf("model = %s, want %s", req.Model, defaultAnthropicModel)
		}
		if req.System != "Classify mail." {
			t.Errorf("system = %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			ID:         "msg_123",
			Type:       "message",
			Content:    []anthropicItem{{Type: "text", Text: `[{"id":"m1",`}, {Type: "text", Text: `"category":"fyi"}]`}},
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 15, OutputTokens: 8},
		})
	}))
	defer server.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL + "/"})
	resp, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "Classify mail."},
		{Role: RoleUser, Content: "<untrusted_email>hi</untrusted_email>"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if want := `[{"id":"m1","category":"fyi"}]`; resp.Content != want {
		t.Errorf("Content = %q, want %q", resp.Content, want)
	}
	if resp.StopReason != "end_turn" || resp.Usage.InputTokens != 15 || resp.Usage.OutputTokens != 8 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAnthropicChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer server.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "bad-key", BaseURL: server.URL})
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "Hello"}})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Type != "authentication_error" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestAnthropicDefaults(t *testing.T) {
	p := NewAnthropicProvider(AnthropicConfig{})
	if p.Name() != "anthropic" {
		t.Errorf("Name = %q, want anthropic", p.Name())
	}
	if p.config.Model != defaultAnthropicModel {
		t.Errorf("Model = %s, want %s", p.config.Model, defaultAnthropicModel)
	}
	if p.config.BaseURL != defaultAnthropicBaseURL {
		t.Errorf("BaseURL = %s, want %s", p.config.BaseURL, defaultAnthropicBaseURL)
	}
	if p.config.MaxTokens != defaultAnthropicMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", p.config.MaxTokens, defaultAnthropicMaxTokens)
	}
}

type staticProvider struct {
	got []Message
	err error
}

func (s *staticProvider) Name() string { return "static" }

func (s *staticProvider) Chat(_ context.Context, msgs []Message) (*Response, error) {
	s.got = msgs
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: "ok"}, nil
}

func TestTextGenerator(t *testing.T) {
	sp := &staticProvider{}
	out, err := TextGenerator{Provider: sp}.GenerateText(context.Background(), "sys", "user text")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want ok", out)
	}
	if len(sp.got) != 2 || sp.got[0].Role != RoleSystem || sp.got[1].Content != "user text" {
		t.Errorf("messages = %+v", sp.got)
	}

	sp.err = errors.New("boom")
	if _, err := (TextGenerator{Provider: sp}).GenerateText(context.Background(), "", "x"); !errors.Is(err, sp.err) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}
