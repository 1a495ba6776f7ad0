package llms

import "context"

// Stream is a lazily evaluated model response: a tagged sequence of text
// deltas and tool call requests. The sequence ends after the final chunk,
// which reports its finish reason.
type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

// StreamContentChunk carries a streamed text delta.
type StreamContentChunk interface {
	StreamChunk
	Content() string
}

// StreamToolCallChunk carries a tool call requested by the model.
type StreamToolCallChunk interface {
	StreamChunk
	ToolCall() ToolCall
}
