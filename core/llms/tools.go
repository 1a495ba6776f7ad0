package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool is a callable capability exposed to the model. The parameter schema
// is derived from the handler's parameter struct so the model receives an
// accurate manifest.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema

	// SupportsCancellation reports whether the handler honors context
	// cancellation. Handlers that do not are never preempted; their results
	// are discarded on arrival when stale.
	SupportsCancellation bool

	execute func(ctx context.Context, arguments string) (string, error)
}

// NewTool builds a tool from a typed handler. The handler's parameter struct
// is reflected into a JSON schema; arguments are unmarshalled into it before
// each invocation.
func NewTool[T any](name, description string, handler func(ctx context.Context, params T) (string, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var zero T
	var schema *jsonschema.Schema
	if reflect.TypeOf(zero) != nil && reflect.TypeOf(zero).Kind() == reflect.Ptr {
		schema = reflector.ReflectFromType(reflect.TypeOf(zero).Elem())
	} else {
		schema = reflector.Reflect(zero)
	}

	return Tool{
		Name:                 name,
		Description:          description,
		Parameters:           schema,
		SupportsCancellation: true,
		execute: func(ctx context.Context, arguments string) (string, error) {
			var params T
			if arguments != "" {
				if err := json.Unmarshal([]byte(arguments), &params); err != nil {
					return "", fmt.Errorf("failed to parse tool arguments: %w", err)
				}
			}
			return handler(ctx, params)
		},
	}
}

// Execute runs the tool against raw JSON arguments.
func (t Tool) Execute(ctx context.Context, arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %q has no handler", t.Name)
	}
	return t.execute(ctx, arguments)
}
