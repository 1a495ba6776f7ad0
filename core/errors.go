package orchestration

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned when the model requests a tool that is not
	// registered. The failure is delivered back into the model context as a
	// tool result payload, never as a pipeline error.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrSessionClosed is returned by operations issued after the session has
	// been closed.
	ErrSessionClosed = errors.New("session closed")
)

// ProviderError wraps a failure of an external capability provider. The
// session controller retries these with backoff before escalating to Closed.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TransportError wraps a failure of the connection carrying audio to or from
// the user. The session controller tries to reconnect the stream; the session
// closes when it cannot.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError reports invalid configuration. It is raised during validation,
// before the session starts listening.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
