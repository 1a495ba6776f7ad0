package speechtotext

import "github.com/korvid-ai/korvid-core/core/audio"

type TranscriptionOptions struct {
	InterimTranscriptCallback func(transcript Transcript)
	TranscriptCallback        func(transcript Transcript)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	// ErrorCallback is invoked when the transcription stream fails in a way
	// the client cannot recover from on its own.
	ErrorCallback func(err error)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithTranscriptCallback(callback func(transcript Transcript)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptCallback = callback
	}
}

func WithInterimTranscriptCallback(callback func(transcript Transcript)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
