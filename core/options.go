package orchestration

import (
	"context"

	"github.com/korvid-ai/korvid-core/core/audio"
	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/llms"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
	"github.com/korvid-ai/korvid-core/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

type LLMWithStream interface {
	PromptWithStream(ctx context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream
}

func WithStreamingLLM(client LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

type TextToSpeech interface {
	NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error)
}

func WithTextToSpeechClient(client TextToSpeech) OrchestratorOption {
	return func(o *Orchestrator) {
		o.textToSpeech.set(client)
	}
}

type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onFrame func(frame audio.Frame)) error
	Close()
}

// AudioInputWithCaptureControls is implemented by input clients that can stop
// capturing without tearing down the device.
type AudioInputWithCaptureControls interface {
	AudioInput
	StopCapture() error
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.set(client) }
}

type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	Mark(mark string, callback func(string)) error
	ClearBuffer()
}

func WithAudioOutput(client AudioOutput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.set(client) }
}

// WithConfig replaces the default session configuration. The configuration is
// validated when orchestration starts, not when the option is applied.
func WithConfig(config Config) OrchestratorOption {
	return func(o *Orchestrator) { o.config = config }
}

func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.config.Instructions = instructions
		o.llm.setInstructions(instructions)
	}
}

func WithTools(tools ...llms.Tool) OrchestratorOption {
	return func(o *Orchestrator) { o.toolExecutor.Register(tools...) }
}

// WithOrchestrationTools registers built-in tools that let the model control
// recording and speaking behavior mid-conversation.
func WithOrchestrationTools() OrchestratorOption {
	return func(o *Orchestrator) { o.toolExecutor.Register(orchestrationTools(o)...) }
}

type OrchestrateOptions struct {
	onTranscript           func(transcript speechtotext.Transcript)
	onInterimTranscript    func(transcript speechtotext.Transcript)
	onSpeakingStateChanged func(isSpeaking bool)
	onResponse             func(response string)
	onResponseEnd          func()
	onAudio                func(audio []byte)
	onAudioEnded           func(spokenText string)
	onInputAudio           func(frame audio.Frame)
	onStateChanged         func(change events.StateChanged)
	onEvent                func(event events.Event)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithTranscriptCallback registers a callback for final transcripts produced
// by the configured speech-to-text client.
//
// Prompts submitted through [Orchestrator.SendPrompt] do not trigger this
// callback.
func WithTranscriptCallback(callback func(transcript speechtotext.Transcript)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscript = callback
	}
}

// WithInterimTranscriptCallback registers a callback for interim transcripts
// produced by the configured speech-to-text client.
func WithInterimTranscriptCallback(callback func(transcript speechtotext.Transcript)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInterimTranscript = callback
	}
}

// WithSpeakingStateChangedCallback registers a callback for user
// speaking-state updates produced by the configured speech-to-text client.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

func WithResponseCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

func WithResponseEndCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseEnd = callback
	}
}

func WithAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudio = callback
	}
}

// WithAudioEndedCallback registers a callback for the end of assistant
// playback. It receives the text that was actually spoken, which may be a
// prefix of the generated response when the turn was interrupted.
func WithAudioEndedCallback(callback func(spokenText string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudioEnded = callback
	}
}

// WithInputAudioCallback registers a callback for raw input frames.
//
// The frame's samples are passed through as-is (no defensive copy). The
// callback runs inline on the input-audio path and should not block.
func WithInputAudioCallback(callback func(frame audio.Frame)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInputAudio = callback
	}
}

// WithStateChangedCallback registers a callback for session state
// transitions.
func WithStateChangedCallback(callback func(change events.StateChanged)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStateChanged = callback
	}
}

// WithEventCallback registers a callback observing every event the session
// emits, in emission order. Intended for logging and replay capture.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEvent = callback
	}
}
