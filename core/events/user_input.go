package events

import (
	"time"

	"github.com/korvid-ai/korvid-core/core/audio"
)

const (
	// KindUserAudioFrame identifies raw audio captured from user input.
	KindUserAudioFrame Kind = "user_input.audio_frame"
	// KindUserSpeechStarted identifies start of user speech activity.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies end of user speech activity.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserTranscriptInterim identifies mutable interim transcript updates.
	KindUserTranscriptInterim Kind = "user_input.transcript_interim"
	// KindUserTranscriptFinal identifies finalized append-only transcript segments.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindUserPrompt identifies a typed prompt submitted outside the audio path.
	KindUserPrompt Kind = "user_input.prompt"
)

// UserAudioFrame carries a captured user input audio frame.
type UserAudioFrame struct {
	Base
	Frame audio.Frame
}

// NewUserAudioFrame creates a user input audio frame event.
func NewUserAudioFrame(frame audio.Frame) UserAudioFrame {
	return UserAudioFrame{Base: NewBase(KindUserAudioFrame), Frame: frame}
}

// UserSpeechStarted marks when user speech activity starts.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks when user speech activity ends.
type UserSpeechEnded struct{ Base }

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserTranscriptInterim carries a mutable interim transcript. Later interim
// or final transcripts for the same utterance supersede it.
type UserTranscriptInterim struct {
	Base
	Text       string
	Confidence float64
}

// NewUserTranscriptInterim creates an interim transcript event.
func NewUserTranscriptInterim(text string, confidence float64) UserTranscriptInterim {
	return UserTranscriptInterim{Base: NewBase(KindUserTranscriptInterim), Text: text, Confidence: confidence}
}

// UserTranscriptFinal carries a finalized transcript segment. Final segments
// are immutable and accumulate into the pending user turn.
type UserTranscriptFinal struct {
	Base
	Text       string
	Confidence float64
	Start      time.Duration
	End        time.Duration
}

// NewUserTranscriptFinal creates a final transcript segment event.
func NewUserTranscriptFinal(text string, confidence float64, start, end time.Duration) UserTranscriptFinal {
	return UserTranscriptFinal{
		Base:       NewBase(KindUserTranscriptFinal),
		Text:       text,
		Confidence: confidence,
		Start:      start,
		End:        end,
	}
}

// UserPrompt carries a prompt submitted through the text surface instead of
// the audio path.
type UserPrompt struct {
	Base
	Prompt        string
	IsTranscribed bool
}

// NewUserPrompt creates a typed user prompt event.
func NewUserPrompt(prompt string) UserPrompt {
	return UserPrompt{Base: NewBase(KindUserPrompt), Prompt: prompt}
}

// NewTranscribedUserPrompt creates a user prompt event sourced from the
// transcription path.
func NewTranscribedUserPrompt(prompt string) UserPrompt {
	return UserPrompt{Base: NewBase(KindUserPrompt), Prompt: prompt, IsTranscribed: true}
}
