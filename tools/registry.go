// Package tools exposes every deskmate operation as a plugin.Tool and keeps
// them in a Registry that reports failures as structured payloads.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoCodeAlone/deskmate/config"
	"github.com/GoCodeAlone/deskmate/mailbox"
	"github.com/GoCodeAlone/deskmate/plugin"
	"github.com/GoCodeAlone/deskmate/project"
	"github.com/GoCodeAlone/deskmate/provider"
	"github.com/GoCodeAlone/deskmate/task"
)

// ErrInvalidArgument reports a missing or mistyped tool argument.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnknownTool is returned for a name no tool is registered under.
var ErrUnknownTool = errors.New("unknown tool")

// Error kinds carried in error payloads.
const (
	KindNotFound             = "not_found"
	KindAlreadyExists        = "already_exists"
	KindConfigurationMissing = "configuration_missing"
	KindInvalidArgument      = "invalid_argument"
	KindInternal             = "internal"
)

// ErrorPayload is the result of a failed call.
type ErrorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Kind classifies err into one of the payload kinds.
func Kind(err error) string {
	switch {
	case errors.Is(err, task.ErrNotFound), errors.Is(err, project.ErrNotFound), errors.Is(err, mailbox.ErrNotFound):
		return KindNotFound
	case errors.Is(err, task.ErrAlreadyExists), errors.Is(err, project.ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, config.ErrMissing):
		return KindConfigurationMissing
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrUnknownTool),
		errors.Is(err, task.ErrInvalidTitle), errors.Is(err, task.ErrInvalidField),
		errors.Is(err, project.ErrInvalidName):
		return KindInvalidArgument
	default:
		return KindInternal
	}
}

// Registry holds tools by name in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]plugin.Tool
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]plugin.Tool)}
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(t plugin.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (plugin.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns every tool in registration order.
func (r *Registry) Tools() []plugin.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plugin.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// AllDefs returns tool definitions for all registered tools.
func (r *Registry) AllDefs() []provider.ToolDef {
	tools := r.Tools()
	defs := make([]provider.ToolDef, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Execute runs a tool by name and returns its raw result or error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.Execute(ctx, args)
}

// Call runs a tool and always returns a serializable payload: the tool
// result, or an ErrorPayload describing the failure.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, bool) {
	res, err := r.Execute(ctx, name, args)
	if err != nil {
		return ErrorPayload{Error: err.Error(), Kind: Kind(err)}, false
	}
	return res, true
}
