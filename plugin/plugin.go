// Package plugin defines the tool interface through which deskmate
// operations are offered to agent runtimes.
package plugin

import (
	"context"

	"github.com/GoCodeAlone/deskmate/provider"
)

// Tool is one callable operation.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Definition returns the name, description and JSON Schema of the tool.
	Definition() provider.ToolDef

	// Execute runs the tool with JSON-decoded arguments. The result must
	// be JSON-serializable.
	Execute(ctx context.Context, args map[string]any) (any, error)
}
