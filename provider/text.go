package provider

import (
	"context"
	"fmt"
)

// TextGenerator turns a chat Provider into a single-shot text generator:
// one system prompt, one user message, raw text back.
type TextGenerator struct {
	Provider Provider
}

// GenerateText runs one exchange and returns the model output unparsed.
func (g TextGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	msgs := make([]Message, 0, 2)
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})
	resp, err := g.Provider.Chat(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%s: generate text: %w", g.Provider.Name(), err)
	}
	return resp.Content, nil
}
