package events

const (
	// KindToolCallStarted identifies the start of tool execution.
	KindToolCallStarted Kind = "tool_call.started"
	// KindToolCallCompleted identifies successful tool execution.
	KindToolCallCompleted Kind = "tool_call.completed"
	// KindToolCallFailed identifies failed tool execution.
	KindToolCallFailed Kind = "tool_call.failed"
	// KindToolCallDropped identifies a tool result discarded because its
	// generation was superseded before delivery.
	KindToolCallDropped Kind = "tool_call.dropped"
)

// ToolCallStarted marks the start of tool execution.
type ToolCallStarted struct {
	Base
	CallID     string
	Name       string
	Arguments  string
	Generation uint64
}

// NewToolCallStarted creates a tool call started event.
func NewToolCallStarted(callID, name, arguments string, generation uint64) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted), CallID: callID, Name: name, Arguments: arguments, Generation: generation}
}

// ToolCallCompleted marks successful tool execution.
type ToolCallCompleted struct {
	Base
	CallID     string
	Name       string
	Response   string
	Generation uint64
}

// NewToolCallCompleted creates a tool call completed event.
func NewToolCallCompleted(callID, name, response string, generation uint64) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase(KindToolCallCompleted), CallID: callID, Name: name, Response: response, Generation: generation}
}

// ToolCallFailed marks failed tool execution.
type ToolCallFailed struct {
	Base
	CallID     string
	Name       string
	Error      string
	Generation uint64
}

// NewToolCallFailed creates a tool call failed event.
func NewToolCallFailed(callID, name, err string, generation uint64) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed), CallID: callID, Name: name, Error: err, Generation: generation}
}

// ToolCallDropped marks a stale tool result discarded on arrival.
type ToolCallDropped struct {
	Base
	CallID     string
	Name       string
	Generation uint64
}

// NewToolCallDropped creates a tool call dropped event.
func NewToolCallDropped(callID, name string, generation uint64) ToolCallDropped {
	return ToolCallDropped{Base: NewBase(KindToolCallDropped), CallID: callID, Name: name, Generation: generation}
}
