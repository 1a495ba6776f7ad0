package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/korvid-ai/korvid-core/core/audio"
	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/llms"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
	"github.com/korvid-ai/korvid-core/internal/utils"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator drives one voice session: it routes captured audio to the
// transcription client, turn-taking decisions to the event queue, and
// assistant turns through the model and synthesis pipeline.
type Orchestrator struct {
	config Config

	conversation conversation
	runtime      *sessionRuntime

	llm          llm
	toolExecutor *toolExecutor

	// speechToText is the STT facade used to handle optional client wiring.
	speechToText speechToText
	textToSpeech textToSpeech
	// audioInput is the input facade used to normalize capture behavior.
	audioInput  audioInput
	audioOutput audioOutput

	generations generationCounter
	detector    *TurnDetector
	state       *sessionStateMachine

	// interruptionMu serializes barge-in handling, confirmation, and the
	// false-interruption timer so pause/resume/cancel cannot interleave.
	interruptionMu         sync.Mutex
	falseInterruptionTimer *time.Timer

	orchestrateOptions OrchestrateOptions
	baseContext        context.Context
	closeOnce          sync.Once
	closeErr           error

	// sttCallbacks is kept so a supervisor can reconnect the transcription
	// stream after a transport failure.
	sttCallbacks speechToTextCallbacks
	// onTransportError, when set, is notified of streaming transport
	// failures in addition to them being logged.
	onTransportError func(error)
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		config:      DefaultConfig(),
		baseContext: context.Background(),
		runtime:     newSessionRuntime(),
	}

	o.state = newSessionStateMachine(func(change events.StateChanged) {
		o.emit(change)
		if o.orchestrateOptions.onStateChanged != nil {
			o.orchestrateOptions.onStateChanged(change)
		}
	})
	o.toolExecutor = newToolExecutor(&o.generations, o.emit)
	o.llm = newLLM(o.toolExecutor)
	o.audioInput = *newAudioInput(nil, o.handleInputFrame)

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Orchestrate starts the session: it validates configuration, connects the
// transcription stream, starts audio capture, and begins draining the event
// queue. ctx is the base context for all turns and tool calls; cancelling it
// closes the session.
//
// Contract: call Orchestrate at most once per orchestrator instance.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) error {
	if o.runtime.isClosed() {
		return ErrSessionClosed
	}

	if err := o.config.Validate(); err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}

	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}

	o.baseContext = ctx
	o.llm.setInstructions(o.config.Instructions)
	o.detector = NewTurnDetector(o.config.TurnDetector, o.onTurnDecision)

	o.runtime.configure(ctx, runtimeCallbacks{
		turn: activeTurnCallbacks{
			OnResponseText: func(segment string, generation uint64) {
				o.emit(events.NewAssistantResponseSegment(segment, generation))
				if o.orchestrateOptions.onResponse != nil {
					o.orchestrateOptions.onResponse(segment)
				}
			},
			OnResponseTextEnd: func(generation uint64) {
				o.emit(events.NewAssistantResponseFinal(generation))
				if o.orchestrateOptions.onResponseEnd != nil {
					o.orchestrateOptions.onResponseEnd()
				}
			},
			OnResponseSpeech: func(audio []byte, generation uint64) {
				o.emit(events.NewAssistantSpeechFrame(audio, generation))
				if o.orchestrateOptions.onAudio != nil {
					o.orchestrateOptions.onAudio(audio)
				}
			},
			OnSpeakingStarted: func(generation uint64) {
				o.detector.SetAssistantSpeaking(true)
				o.state.TransitionFrom(StateSpeaking, StateThinking)
			},
			OnResponseSpeechEnd: func(spokenText string, generation uint64) {
				o.emit(events.NewAssistantPlaybackEnded(spokenText, generation))
				if o.orchestrateOptions.onAudioEnded != nil {
					o.orchestrateOptions.onAudioEnded(spokenText)
				}
			},
		},
		onTurnFinalised: func(turn *llms.Turn, generation uint64, interrupted bool) {
			o.detector.SetAssistantSpeaking(false)
			o.clearFalseInterruptionTimer()
			o.state.TransitionFrom(StateListening, StateThinking, StateSpeaking, StateInterrupted)
		},
	})

	o.state.TransitionFrom(StateListening, StateIdle)

	if started := o.startRuntime(); started {
		go func() {
			<-ctx.Done()
			_ = o.Close()
		}()
	}

	o.sttCallbacks = speechToTextCallbacks{
		onSpeechStarted:     o.handleSpeechStarted,
		onSpeechEnded:       o.handleSpeechEnded,
		onInterimTranscript: o.handleInterimTranscript,
		onTranscript:        o.handleTranscript,
		onError:             o.handleTransportError,
	}
	if o.speechToText.isConfigured() {
		if err := o.speechToText.start(o.baseContext, o.sttCallbacks, utils.Ptr(o.audioInput.EncodingInfo())); err != nil {
			return &ProviderError{Provider: "speech-to-text", Err: err}
		}
	}

	if err := o.audioInput.Start(o.baseContext); err != nil {
		return &ProviderError{Provider: "audio input", Err: err}
	}

	if o.config.Greeting != "" {
		o.enqueue(events.NewGreeting(o.config.Greeting))
	}

	return nil
}

// Close shuts the session down: it stops the event queue, cancels any active
// turn, and closes the audio and transcription clients best-effort. Safe to
// call more than once.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.state.TransitionTo(StateClosed)
		o.clearFalseInterruptionTimer()
		o.endRuntime()

		var errs error
		if err := o.audioInput.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close audio input: %w", err))
		}

		if err := o.speechToText.Close(o.baseContext); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close speech-to-text client: %w", err))
		}

		o.waitUntilEnded()

		if errs != nil {
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(errs)
			span.SetStatus(codes.Error, errs.Error())
		}
		o.closeErr = errs
	})

	return o.closeErr
}

// State returns the current session state.
func (o *Orchestrator) State() SessionState {
	return o.state.Current()
}

// Generation returns the current generation counter value.
func (o *Orchestrator) Generation() uint64 {
	return o.generations.Current()
}

// Conversation returns a point-in-time snapshot of conversation state.
func (o *Orchestrator) Conversation() ConversationSnapshot {
	return o.conversation.Snapshot()
}

// Handle injects an event into the session. Control events (barge-in,
// cancellation) act immediately; turn triggers are queued in arrival order.
func (o *Orchestrator) Handle(event events.Event) {
	o.respondToEvent(event)
}

// SendPrompt submits a typed prompt, queueing a turn as if the user had
// spoken it.
func (o *Orchestrator) SendPrompt(prompt string) {
	o.respondToEvent(events.NewUserPrompt(prompt))
}

// SendTranscribedPrompt submits a prompt whose text already came through the
// transcription path, superseding any pending transcript segments so the
// utterance is not committed twice.
func (o *Orchestrator) SendTranscribedPrompt(prompt string) {
	o.respondToEvent(events.NewTranscribedUserPrompt(prompt))
}

// CancelTurn discards the in-progress assistant turn, if any.
func (o *Orchestrator) CancelTurn() {
	o.respondToEvent(events.NewTurnCancelled())
}

// SendAudio feeds raw audio to the transcription stream directly, bypassing
// the configured audio input.
func (o *Orchestrator) SendAudio(audio []byte) error {
	return o.speechToText.SendAudio(audio)
}

// SetSpeaking toggles speech synthesis. Disabling it silences the active
// turn and makes subsequent turns text-only.
func (o *Orchestrator) SetSpeaking(isSpeaking bool) {
	o.runtime.setSpeaking(isSpeaking)
	if !isSpeaking {
		if turn := o.conversation.ActiveTurn(); turn != nil {
			turn.StopSpeaking()
		}
		o.audioOutput.Clear()
		o.detector.SetAssistantSpeaking(false)
	}
}

func (o *Orchestrator) IsSpeakingEnabled() bool { return o.runtime.speakingEnabled() }

// SetRecording toggles forwarding of captured audio into the session.
func (o *Orchestrator) SetRecording(isRecording bool) {
	if isRecording {
		o.audioInput.EnableForwarding()
		return
	}

	o.audioInput.DisableForwarding()
}

func (o *Orchestrator) IsRecording() bool { return o.audioInput.IsForwarding() }

// handleInputFrame is the capture hot path. It runs on the audio device's
// goroutine and must not block: frames go straight to transcription and the
// barge-in energy detector, never through the event queue.
func (o *Orchestrator) handleInputFrame(frame audio.Frame) {
	o.emit(events.NewUserAudioFrame(frame))
	if o.orchestrateOptions.onInputAudio != nil {
		o.orchestrateOptions.onInputAudio(frame)
	}

	_ = o.speechToText.SendAudio(frame.PCM)
	o.detector.ObserveActivity(frame.RMS(o.audioInput.EncodingInfo()), frame.Timestamp)
}

func (o *Orchestrator) handleSpeechStarted() {
	o.emit(events.NewUserSpeechStarted())
	o.detector.SpeechStarted()
	if o.orchestrateOptions.onSpeakingStateChanged != nil {
		o.orchestrateOptions.onSpeakingStateChanged(true)
	}
}

func (o *Orchestrator) handleSpeechEnded() {
	o.emit(events.NewUserSpeechEnded())
	o.detector.SpeechEnded()
	if o.orchestrateOptions.onSpeakingStateChanged != nil {
		o.orchestrateOptions.onSpeakingStateChanged(false)
	}
}

func (o *Orchestrator) handleInterimTranscript(transcript speechtotext.Transcript) {
	o.emit(events.NewUserTranscriptInterim(transcript.Text, transcript.Confidence))
	if o.orchestrateOptions.onInterimTranscript != nil {
		o.orchestrateOptions.onInterimTranscript(transcript)
	}

	o.detector.ObserveTranscript(transcript)
	o.confirmInterruptionIfPaused(transcript)
}

func (o *Orchestrator) handleTranscript(transcript speechtotext.Transcript) {
	o.emit(events.NewUserTranscriptFinal(transcript.Text, transcript.Confidence, transcript.Start, transcript.End))
	if o.orchestrateOptions.onTranscript != nil {
		o.orchestrateOptions.onTranscript(transcript)
	}

	switch o.state.Current() {
	case StateThinking, StateSpeaking, StateInterrupted:
		// While the assistant holds the floor only transcripts that confirm
		// an interruption become the next user turn; backchannel is dropped.
		if o.detector.ConfirmsInterruption(transcript) {
			o.conversation.AppendTranscript(transcript)
			o.confirmInterruptionIfPaused(transcript)
		}
	default:
		o.conversation.AppendTranscript(transcript)
	}

	o.detector.ObserveTranscript(transcript)
}

// handleTransportError reacts to streaming transport failures from the
// transcription client.
func (o *Orchestrator) handleTransportError(err error) {
	recordedErr := &TransportError{Err: err}
	span := trace.SpanFromContext(o.baseContext)
	span.RecordError(recordedErr)
	span.SetStatus(codes.Error, recordedErr.Error())
	logger.ErrorContext(o.baseContext, "transcription transport failed", "error", err)

	if o.onTransportError != nil {
		go o.onTransportError(recordedErr)
	}
}

// reconnectSpeechToText reopens the transcription stream with the callbacks
// the session started with.
func (o *Orchestrator) reconnectSpeechToText(ctx context.Context) error {
	if !o.speechToText.isConfigured() {
		return nil
	}

	if err := o.speechToText.start(ctx, o.sttCallbacks, utils.Ptr(o.audioInput.EncodingInfo())); err != nil {
		return &ProviderError{Provider: "speech-to-text", Err: err}
	}
	return nil
}

func (o *Orchestrator) emit(event events.Event) {
	if o.orchestrateOptions.onEvent != nil {
		o.orchestrateOptions.onEvent(event)
	}
}
