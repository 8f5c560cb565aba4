package tools

import (
	"fmt"
	"strings"

	"github.com/GoCodeAlone/deskmate/task"
)

// stringArg returns args[key] as a string. ok is false when the key is absent.
func stringArg(args map[string]any, key string) (s string, ok bool, err error) {
	v, present := args[key]
	if !present || v == nil {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", false, fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	return s, true, nil
}

func requiredString(args map[string]any, key string) (string, error) {
	s, ok, err := stringArg(args, key)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, key)
	}
	return s, nil
}

func optionalString(args map[string]any, key string) (string, error) {
	s, _, err := stringArg(args, key)
	return s, err
}

// intArg reads a JSON number. def is returned when the key is absent.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, present := args[key]
	if !present || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
	}
}

func stringsArg(args map[string]any, key string) ([]string, bool, error) {
	v, present := args[key]
	if !present || v == nil {
		return nil, false, nil
	}
	switch list := v.(type) {
	case []string:
		return list, true, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidArgument, key)
			}
			out = append(out, s)
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidArgument, key)
	}
}

// taskFields collects the optional task attributes present in args.
func taskFields(args map[string]any) (task.Fields, error) {
	var f task.Fields
	strs := []struct {
		key string
		set func(string)
	}{
		{"title", func(s string) { f.Title = &s }},
		{"status", func(s string) { st := task.Status(s); f.Status = &st }},
		{"assignee", func(s string) { a := task.Assignee(s); f.Assignee = &a }},
		{"priority", func(s string) { p := task.Priority(s); f.Priority = &p }},
		{"project", func(s string) { f.Project = &s }},
		{"due_date", func(s string) { f.DueDate = &s }},
		{"blocked_by", func(s string) { f.BlockedBy = &s }},
		{"follow_up_date", func(s string) { f.FollowUpDate = &s }},
		{"body", func(s string) { f.Body = &s }},
	}
	for _, field := range strs {
		s, ok, err := stringArg(args, field.key)
		if err != nil {
			return f, err
		}
		if ok {
			field.set(s)
		}
	}
	tags, ok, err := stringsArg(args, "tags")
	if err != nil {
		return f, err
	}
	if ok {
		f.Tags = tags
		if f.Tags == nil {
			f.Tags = []string{}
		}
	}
	return f, nil
}

// taskProperties is the JSON Schema of the writable task attributes.
func taskProperties() map[string]any {
	return map[string]any{
		"status":         map[string]any{"type": "string", "enum": []string{"backlog", "next", "working", "blocked", "done"}, "description": "Board column"},
		"assignee":       map[string]any{"type": "string", "enum": []string{"me", "assistant"}},
		"priority":       map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
		"project":        map[string]any{"type": "string", "description": "Project name"},
		"due_date":       map[string]any{"type": "string", "description": "Due date, YYYY-MM-DD"},
		"blocked_by":     map[string]any{"type": "string", "description": "What the task waits on"},
		"follow_up_date": map[string]any{"type": "string", "description": "Date to chase, YYYY-MM-DD"},
		"tags":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"body":           map[string]any{"type": "string", "description": "Notes"},
	}
}
