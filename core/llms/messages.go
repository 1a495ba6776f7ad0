package llms

import "time"

// TurnRole describes which party produced a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
	TurnRoleTool      TurnRole = "tool"
)

// Turn is a single committed turn of the conversation. Committed turns are
// immutable; the conversation history is an append-only sequence of them.
type Turn struct {
	ID        string
	Role      TurnRole
	Content   string
	ToolCalls []ToolCall
	Timestamp time.Time

	// Interrupted is true when the turn was cut short by a barge-in and only
	// the spoken prefix (possibly empty) was committed.
	Interrupted bool
}

// Response is the aggregate result of one model invocation.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCall describes one tool invocation requested by the model, and once
// executed, its outcome.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string

	// Failed is true when Response carries a failure payload instead of tool
	// output. Failure payloads still flow back into the model context.
	Failed bool
}
