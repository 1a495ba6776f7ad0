package events

// KindGreeting identifies a scripted assistant utterance spoken without
// prompting the model, typically on session start.
const KindGreeting Kind = "assistant.greeting"

// Greeting carries scripted text the assistant should speak verbatim.
type Greeting struct {
	Base
	Text string
}

// NewGreeting creates a scripted greeting event.
func NewGreeting(text string) Greeting {
	return Greeting{Base: NewBase(KindGreeting), Text: text}
}
