package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/korvid-ai/korvid-core/core/llms"
	"github.com/korvid-ai/korvid-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// activeTurn is one in-flight assistant response cycle: the model stream, the
// text handed to synthesis, and the synthesized audio on its way out, all
// tagged with the generation that created them.
type activeTurn struct {
	llms.Turn
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc

	textBuffer  *textBuffer
	audioBuffer *audioBuffer
	generator   turnSpeechGenerator

	components activeTurnComponents
	callbacks  activeTurnCallbacks

	cancelled   atomic.Bool
	interrupted atomic.Bool
	speaking    atomic.Bool

	err error
}

type activeTurnComponents struct {
	TextToSpeech *textToSpeech
	AudioOutput  *audioOutput
	// GenerateResponse runs the model stream (with tool sub-cycles) feeding
	// the given text buffer.
	GenerateResponse func(ctx context.Context, history []llms.Turn, buffer *textBuffer, cancelled func() bool) (*llms.Response, error)
}

type activeTurnCallbacks struct {
	OnResponseText      func(segment string, generation uint64)
	OnResponseTextEnd   func(generation uint64)
	OnResponseSpeech    func(audio []byte, generation uint64)
	OnResponseSpeechEnd func(spokenText string, generation uint64)
	OnSpeakingStarted   func(generation uint64)
}

func (c *activeTurnCallbacks) defaults() *activeTurnCallbacks {
	c.OnResponseText = func(string, uint64) {}
	c.OnResponseTextEnd = func(uint64) {}
	c.OnResponseSpeech = func([]byte, uint64) {}
	c.OnResponseSpeechEnd = func(string, uint64) {}
	c.OnSpeakingStarted = func(uint64) {}
	return c
}

func (c *activeTurnCallbacks) with(callbacks activeTurnCallbacks) *activeTurnCallbacks {
	if callbacks.OnResponseText != nil {
		c.OnResponseText = callbacks.OnResponseText
	}
	if callbacks.OnResponseTextEnd != nil {
		c.OnResponseTextEnd = callbacks.OnResponseTextEnd
	}
	if callbacks.OnResponseSpeech != nil {
		c.OnResponseSpeech = callbacks.OnResponseSpeech
	}
	if callbacks.OnResponseSpeechEnd != nil {
		c.OnResponseSpeechEnd = callbacks.OnResponseSpeechEnd
	}
	if callbacks.OnSpeakingStarted != nil {
		c.OnSpeakingStarted = callbacks.OnSpeakingStarted
	}
	return c
}

func newActiveTurn(
	ctx context.Context,
	generation uint64,
	speaking bool,
	components activeTurnComponents,
	callbacks activeTurnCallbacks,
) *activeTurn {
	ctx, cancel := context.WithCancel(ctx)

	encodingInfo := components.AudioOutput.EncodingInfo()
	turn := &activeTurn{
		Turn: llms.Turn{
			ID:        uuid.NewString(),
			Role:      llms.TurnRoleAssistant,
			Timestamp: time.Now(),
		},
		generation: generation,

		ctx:    ctx,
		cancel: cancel,

		textBuffer:  newTextBuffer(),
		audioBuffer: newAudioBuffer(encodingInfo),
		generator:   turnSpeechGenerator{initialized: make(chan struct{})},

		components: components,
		callbacks:  *(new(activeTurnCallbacks).defaults().with(callbacks)),
	}
	turn.speaking.Store(speaking)
	return turn
}

// StopSpeaking stops routing this turn's audio to the output without
// cancelling text generation.
func (t *activeTurn) StopSpeaking() {
	if t == nil {
		return
	}

	t.speaking.Store(false)
}

// Cancel stops all three workers of the turn. Safe to call more than once.
func (t *activeTurn) Cancel() {
	if t == nil || !t.cancelled.CompareAndSwap(false, true) {
		return
	}

	t.cancel()
	t.textBuffer.Clear()
	t.audioBuffer.Stop()
	if t.generator.get() != nil {
		_ = t.generator.get().Cancel()
	}
}

// MarkInterrupted tags the turn as cut short by a barge-in so finalisation
// applies the interruption policy.
func (t *activeTurn) MarkInterrupted() {
	if t == nil {
		return
	}
	t.interrupted.Store(true)
}

func (t *activeTurn) IsCancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Pause halts audible playback without tearing the pipeline down, keeping a
// resume possible if the interruption turns out to be false.
func (t *activeTurn) Pause() {
	if t == nil {
		return
	}
	t.audioBuffer.Pause()
	t.components.AudioOutput.Clear()
}

func (t *activeTurn) Resume() {
	if t == nil {
		return
	}
	t.audioBuffer.Resume()
}

func (t *activeTurn) IsPaused() bool {
	return t != nil && t.audioBuffer.IsPaused()
}

// Finalise produces the turn to commit under the given policy. It returns
// nil when nothing should enter history (fully suppressed interruption).
func (t *activeTurn) Finalise(policy InterruptionPolicy) *llms.Turn {
	if t.generator.get() != nil {
		_ = t.generator.get().Close()
	}

	turn := t.Turn
	if !t.interrupted.Load() && !t.cancelled.Load() {
		return &turn
	}

	if policy == DiscardUncommitted {
		return nil
	}

	spoken := strings.TrimSpace(t.audioBuffer.SpokenText())
	if spoken == "" && len(turn.ToolCalls) == 0 {
		return nil
	}
	turn.Content = spoken
	turn.Interrupted = true
	return &turn
}

func (t *activeTurn) generateResponse(ctx context.Context, history []llms.Turn) error {
	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()
	span.SetAttributes(attribute.Int64("assistant_turn.generation", int64(t.generation)))

	response, err := t.components.GenerateResponse(ctx, history, t.textBuffer, t.IsCancelled)
	if err != nil {
		err := fmt.Errorf("failed to generate response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.err = errors.Join(t.err, err)
		return err
	}

	t.textBuffer.TextComplete()
	if response != nil && !t.cancelled.Load() {
		var toolCalls []string
		for _, toolCall := range response.ToolCalls {
			toolCalls = append(toolCalls, toolCall.Name)
		}
		span.SetAttributes(attribute.StringSlice("assistant_turn.tool_calls", toolCalls))

		t.Content = response.Content
		t.ToolCalls = response.ToolCalls
	}

	return nil
}

// processResponseText bridges streamed model text into the speech generator,
// marking sentence boundaries so playback progress can be tracked.
func (t *activeTurn) processResponseText(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			t.textBuffer.Clear()
		case <-done:
		}
	}()

	_, span := tracer.Start(ctx, "passing text to tts")
	defer span.End()

	if err := t.generator.init(ctx, t); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for chunk := range t.textBuffer.Chunks {
		if t.cancelled.Load() {
			break
		}
		t.callbacks.OnResponseText(chunk, t.generation)

		if generator := t.generator.get(); generator != nil {
			if err := generator.SendText(chunk); err != nil {
				span.RecordError(fmt.Errorf("failed to send text to tts: %w", err))
			}
			if strings.ContainsAny(chunk, ".?!") {
				if err := generator.Mark(); err != nil {
					span.RecordError(fmt.Errorf("failed to send mark to tts: %w", err))
				}
			}
		}
	}

	if generator := t.generator.get(); generator != nil {
		if err := generator.Mark(); err != nil {
			span.RecordError(fmt.Errorf("failed to send final mark to tts: %w", err))
		}
		if err := generator.EndOfText(); err != nil {
			span.RecordError(fmt.Errorf("failed to send end of text to tts: %w", err))
		}
	} else {
		t.audioBuffer.AllAudioLoaded()
	}

	t.callbacks.OnResponseTextEnd(t.generation)
	return nil
}

// processSpeech drains the audio buffer into the output sink, confirming
// marks as the sink reports them played.
func (t *activeTurn) processSpeech(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			t.audioBuffer.Stop()
		case <-done:
		}
	}()

	t.generator.waitUntilInitialized(ctx)

	_, span := tracer.Start(ctx, "passing speech to audio output")
	defer span.End()

	startedSpeaking := false
bufferReadingLoop:
	for audioOrMark := range t.audioBuffer.Audio {
		switch audioOrMark.Type {
		case audioOrMarkAudio:
			chunk := audioOrMark.Audio
			t.callbacks.OnResponseSpeech(chunk, t.generation)

			if !t.speaking.Load() || t.cancelled.Load() {
				t.components.AudioOutput.Clear()
				break bufferReadingLoop
			}

			if !startedSpeaking {
				startedSpeaking = true
				t.callbacks.OnSpeakingStarted(t.generation)
			}
			speechFramesSentCounter.Add(ctx, 1)
			t.components.AudioOutput.SendAudio(chunk)

		case audioOrMarkMark:
			mark := audioOrMark.Mark
			span.AddEvent("received mark", trace.WithAttributes(attribute.String("mark", mark)))
			t.components.AudioOutput.Mark(mark, func(mark string) {
				span.AddEvent("mark played", trace.WithAttributes(attribute.String("mark", mark)))
				t.audioBuffer.ConfirmMark(mark)
			})
		}
	}

	t.callbacks.OnResponseSpeechEnd(t.audioBuffer.SpokenText(), t.generation)
	t.components.AudioOutput.Clear()

	return nil
}

// turnSpeechGenerator guards the lazily-connected speech generator so the
// speech worker can wait for the text worker to connect it. The initialized
// channel is created with the turn and closed exactly once by init.
type turnSpeechGenerator struct {
	mu          sync.Mutex
	generator   texttospeech.SpeechGenerator
	initialized chan struct{}
}

func (g *turnSpeechGenerator) init(ctx context.Context, turn *activeTurn) error {
	defer close(g.initialized)

	if !turn.components.TextToSpeech.isConfigured() {
		return nil
	}

	generator, err := turn.components.TextToSpeech.NewSpeechGenerator(ctx,
		texttospeech.WithSpeechAudioCallback(turn.audioBuffer.AddAudio),
		texttospeech.WithSpeechMarkCallback(turn.audioBuffer.Mark),
		texttospeech.WithSpeechEndedCallback(func(texttospeech.SpeechEndedReport) {
			turn.audioBuffer.AllAudioLoaded()
		}),
		texttospeech.WithEncodingInfo(turn.components.AudioOutput.EncodingInfo()),
	)
	if err != nil {
		return fmt.Errorf("failed to create speech generator: %w", err)
	}

	g.mu.Lock()
	g.generator = generator
	g.mu.Unlock()
	return nil
}

func (g *turnSpeechGenerator) waitUntilInitialized(ctx context.Context) {
	select {
	case <-g.initialized:
	case <-ctx.Done():
	}
}

func (g *turnSpeechGenerator) get() texttospeech.SpeechGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generator
}
