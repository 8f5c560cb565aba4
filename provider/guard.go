package provider

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// minSecretLen keeps short values from redacting ordinary words.
const minSecretLen = 8

// SecretGuard scans text for known secret values and redacts them.
type SecretGuard struct {
	mu          sync.RWMutex
	knownValues map[string]string // value → name
}

// NewSecretGuard returns an empty guard.
func NewSecretGuard() *SecretGuard {
	return &SecretGuard{knownValues: make(map[string]string)}
}

// Add registers a secret value under name. Empty and very short values are
// ignored.
func (sg *SecretGuard) Add(name, value string) {
	value = strings.TrimSpace(value)
	if len(value) < minSecretLen {
		return
	}
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.knownValues[value] = name
}

// Len reports how many secrets are registered.
func (sg *SecretGuard) Len() int {
	sg.mu.RLock()
	defer sg.mu.RUnlock()
	return len(sg.knownValues)
}

// Redact replaces known secret values with [REDACTED:name]. Longer values
// are replaced first so a secret containing another is fully masked.
func (sg *SecretGuard) Redact(text string) string {
	sg.mu.RLock()
	defer sg.mu.RUnlock()
	vals := make([]string, 0, len(sg.knownValues))
	for val := range sg.knownValues {
		vals = append(vals, val)
	}
	sort.Slice(vals, func(i, j int) bool { return len(vals[i]) > len(vals[j]) })
	for _, val := range vals {
		if strings.Contains(text, val) {
			text = strings.ReplaceAll(text, val, "[REDACTED:"+sg.knownValues[val]+"]")
		}
	}
	return text
}

// CheckAndRedact redacts secret values in a message. Returns true if redaction occurred.
func (sg *SecretGuard) CheckAndRedact(msg *Message) bool {
	original := msg.Content
	msg.Content = sg.Redact(msg.Content)
	return msg.Content != original
}

// Guarded wraps a Provider so no registered secret reaches it.
type Guarded struct {
	Provider
	Guard *SecretGuard
}

// Chat redacts a copy of messages and forwards it.
func (g Guarded) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if g.Guard == nil {
		return g.Provider.Chat(ctx, messages)
	}
	out := make([]Message, len(messages))
	for i, m := range messages {
		g.Guard.CheckAndRedact(&m)
		out[i] = m
	}
	return g.Provider.Chat(ctx, out)
}
