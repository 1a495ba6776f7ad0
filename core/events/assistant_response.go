package events

const (
	// KindAssistantResponseSegment identifies streamed assistant response text.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies assistant response stream completion.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseSegment carries a streamed assistant response text segment.
type AssistantResponseSegment struct {
	Base
	Segment string
	// Generation tags the response cycle that produced the segment.
	Generation uint64
}

// NewAssistantResponseSegment creates an assistant response segment event.
func NewAssistantResponseSegment(segment string, generation uint64) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Segment: segment, Generation: generation}
}

// AssistantResponseFinal marks assistant response stream completion.
type AssistantResponseFinal struct {
	Base
	Generation uint64
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(generation uint64) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Generation: generation}
}
