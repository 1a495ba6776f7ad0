package events

const (
	// KindAssistantSpeechFrame identifies synthesized speech audio leaving the
	// pipeline towards the output sink.
	KindAssistantSpeechFrame Kind = "assistant_speech.frame"
	// KindAssistantSpeechFinal identifies the end of synthesized speech for a
	// generation.
	KindAssistantSpeechFinal Kind = "assistant_speech.final"
	// KindAssistantPlaybackEnded identifies confirmed end of audible playback.
	KindAssistantPlaybackEnded Kind = "assistant_speech.playback_ended"
)

// AssistantSpeechFrame carries a synthesized audio chunk.
type AssistantSpeechFrame struct {
	Base
	Audio      []byte
	Generation uint64
}

// NewAssistantSpeechFrame creates an assistant speech frame event.
func NewAssistantSpeechFrame(audio []byte, generation uint64) AssistantSpeechFrame {
	return AssistantSpeechFrame{Base: NewBase(KindAssistantSpeechFrame), Audio: audio, Generation: generation}
}

// AssistantSpeechFinal marks the end of synthesized speech for a generation.
type AssistantSpeechFinal struct {
	Base
	Generation uint64
}

// NewAssistantSpeechFinal creates an assistant speech final event.
func NewAssistantSpeechFinal(generation uint64) AssistantSpeechFinal {
	return AssistantSpeechFinal{Base: NewBase(KindAssistantSpeechFinal), Generation: generation}
}

// AssistantPlaybackEnded marks confirmed end of audible playback and carries
// the transcript of what was actually spoken.
type AssistantPlaybackEnded struct {
	Base
	SpokenText string
	Generation uint64
}

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded(spokenText string, generation uint64) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), SpokenText: spokenText, Generation: generation}
}
