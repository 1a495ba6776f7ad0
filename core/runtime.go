package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const sessionEventQueueCapacity = 10

type eventQueueItem struct {
	event    events.Event
	queuedAt time.Time
}

type runtimeCallbacks struct {
	turn activeTurnCallbacks
	// onTurnFinalised runs after the finished turn is committed (or discarded)
	// so session state can settle before the next queued event is taken.
	onTurnFinalised func(turn *llms.Turn, generation uint64, interrupted bool)
}

// sessionRuntime serializes turn processing: a single goroutine drains the
// event queue so at most one assistant turn is in flight at any time.
type sessionRuntime struct {
	baseContext context.Context
	callbacks   runtimeCallbacks

	queue   chan eventQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
	// speaking gates speech synthesis for new turns. Turns created while it
	// is off generate text only.
	speaking atomic.Bool
}

func newSessionRuntime() *sessionRuntime {
	runtime := &sessionRuntime{
		baseContext: context.Background(),
		queue:       make(chan eventQueueItem, sessionEventQueueCapacity),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	runtime.speaking.Store(true)
	return runtime
}

func (runtime *sessionRuntime) configure(ctx context.Context, callbacks runtimeCallbacks) {
	if runtime == nil {
		return
	}

	runtime.baseContext = ctx
	runtime.callbacks = callbacks
	if runtime.callbacks.onTurnFinalised == nil {
		runtime.callbacks.onTurnFinalised = func(*llms.Turn, uint64, bool) {}
	}
}

func (runtime *sessionRuntime) setSpeaking(isSpeaking bool) {
	if runtime == nil {
		return
	}

	runtime.speaking.Store(isSpeaking)
}

func (runtime *sessionRuntime) speakingEnabled() bool {
	if runtime == nil {
		return false
	}

	return runtime.speaking.Load()
}

func (runtime *sessionRuntime) isClosed() bool {
	if runtime == nil {
		return false
	}

	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *sessionRuntime) queuedEventCount() int {
	if runtime == nil {
		return 0
	}

	return len(runtime.queue)
}

func (o *Orchestrator) startRuntime() (started bool) {
	runtime := o.runtime
	if runtime == nil || runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		if runtime.isClosed() {
			return
		}

		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case queuedEvent := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					runtime.processQueuedEvent(o, queuedEvent)
				}
			}
		}()
	})

	return started
}

func (o *Orchestrator) endRuntime() {
	runtime := o.runtime
	if runtime == nil {
		return
	}

	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
		if turn := o.conversation.ActiveTurn(); turn != nil {
			turn.Cancel()
		}
	})
}

func (o *Orchestrator) waitUntilEnded() {
	runtime := o.runtime
	if runtime == nil {
		return
	}

	if runtime.started.Load() {
		<-runtime.done
	}
}

func (o *Orchestrator) enqueue(event events.Event) bool {
	runtime := o.runtime
	if runtime == nil || runtime.isClosed() {
		return false
	}

	queueItem := eventQueueItem{event: event, queuedAt: time.Now()}
	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- queueItem:
		return true
	}
}

// processActiveTurn runs one assistant turn as three joined workers: model
// generation, text-to-speech bridging, and speech-to-output delivery. All
// three run on the turn's own cancellable context, so cancelling the turn
// (barge-in, close) signals the model stream and any running tool to stop;
// any worker failing or panicking cancels the other two the same way.
func (runtime *sessionRuntime) processActiveTurn(
	ctx context.Context,
	o *Orchestrator,
	generation uint64,
	generate func(ctx context.Context, history []llms.Turn, buffer *textBuffer, cancelled func() bool) (*llms.Response, error),
	onFinalise func(*activeTurn),
) error {
	if runtime == nil || o == nil {
		return fmt.Errorf("runtime and orchestrator are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workerErr error
	workerErrMu := sync.Mutex{}
	addWorkerErr := func(err error) {
		if err == nil {
			return
		}
		workerErrMu.Lock()
		workerErr = errors.Join(workerErr, err)
		workerErrMu.Unlock()
	}

	history := o.conversation.History()

	if generate == nil {
		generate = func(ctx context.Context, history []llms.Turn, buffer *textBuffer, cancelled func() bool) (*llms.Response, error) {
			return o.llm.generate(ctx, generation, history, buffer, cancelled)
		}
	}

	activeTurn := newActiveTurn(
		ctx,
		generation,
		runtime.speakingEnabled(),
		activeTurnComponents{
			TextToSpeech:     &o.textToSpeech,
			AudioOutput:      o.audioOutput.Snapshot(),
			GenerateResponse: generate,
		},
		runtime.callbacks.turn,
	)

	if err := o.conversation.SetActiveTurn(activeTurn); err != nil {
		return err
	}

	run := func(name string, f func(context.Context) error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				addWorkerErr(fmt.Errorf("%s worker panicked: %v", name, recovered))
				cancel()
			}
		}()

		if err := f(activeTurn.ctx); err != nil {
			addWorkerErr(fmt.Errorf("%s worker failed: %w", name, err))
			cancel()
		}
	}

	wg := &sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		run("response generation", func(ctx context.Context) error {
			return activeTurn.generateResponse(ctx, history)
		})
	}()
	go func() {
		defer wg.Done()
		run("response text processing", activeTurn.processResponseText)
	}()
	go func() {
		defer wg.Done()
		run("speech processing", activeTurn.processSpeech)
	}()

	wg.Wait()

	finaliseErr := func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("active turn finalise panicked: %v", recovered)
			}
		}()

		finalisedTurn := activeTurn.Finalise(o.config.InterruptionPolicy)
		if err := o.conversation.FinaliseActiveTurn(finalisedTurn); err != nil {
			addWorkerErr(fmt.Errorf("active turn finalisation failed: %w", err))
		}
		turnsProcessedCounter.Add(ctx, 1)

		runtime.callbacks.onTurnFinalised(finalisedTurn, generation, activeTurn.interrupted.Load())
		if onFinalise != nil {
			onFinalise(activeTurn)
		}

		return nil
	}()
	addWorkerErr(finaliseErr)

	if workerErr != nil {
		return fmt.Errorf("one or more active turn processes failed: %w", workerErr)
	}

	return nil
}

func (runtime *sessionRuntime) processQueuedEvent(o *Orchestrator, queuedEvent eventQueueItem) {
	if runtime == nil || o == nil {
		return
	}

	turnCtx, turnCancel := context.WithCancel(runtime.baseContext)
	defer turnCancel()

	go func() {
		select {
		case <-runtime.closeCh:
			turnCancel()
		case <-turnCtx.Done():
		}
	}()

	ctx, span := tracer.Start(turnCtx, "process turn")
	defer span.End()

	queuedTime := time.Since(queuedEvent.queuedAt).Seconds()
	span.AddEvent("taken out of queue", trace.WithAttributes(attribute.Float64("assistant_turn.queued_time", queuedTime)))
	span.SetAttributes(
		attribute.Float64("assistant_turn.queued_time", queuedTime),
		attribute.String("assistant_turn.trigger", string(queuedEvent.event.Kind())),
	)

	if o.state.Current() == StateClosed {
		return
	}

	var generate func(ctx context.Context, history []llms.Turn, buffer *textBuffer, cancelled func() bool) (*llms.Response, error)
	if greeting, ok := queuedEvent.event.(events.Greeting); ok {
		generate = scriptedResponse(greeting.Text)
	} else if !runtime.commitUserTurn(o, queuedEvent.event) {
		span.AddEvent("no user content to respond to")
		return
	}

	o.state.TransitionTo(StateThinking)
	generation := o.generations.Bump()
	span.SetAttributes(attribute.Int64("assistant_turn.generation", int64(generation)))

	onFinalise := func(finalisedTurn *activeTurn) {
		span.SetAttributes(
			attribute.Bool("assistant_turn.interrupted", finalisedTurn.interrupted.Load()),
			attribute.Bool("assistant_turn.cancelled", finalisedTurn.IsCancelled()),
			attribute.Int("assistant_turn.queued_events", runtime.queuedEventCount()),
		)
	}
	if err := runtime.processActiveTurn(ctx, o, generation, generate, onFinalise); err != nil {
		err := fmt.Errorf("failed to process active turn: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// commitUserTurn appends the user side of the exchange to history based on
// the trigger event. It reports false when the trigger carries no content,
// in which case no assistant turn is started.
func (runtime *sessionRuntime) commitUserTurn(o *Orchestrator, event events.Event) bool {
	switch e := event.(type) {
	case events.UserPrompt:
		prompt := strings.TrimSpace(e.Prompt)
		if prompt == "" {
			return false
		}
		if e.IsTranscribed {
			// The prompt carries text already accumulated as pending
			// segments; drop them so the turn is not committed twice.
			o.conversation.DiscardPending()
		}
		o.conversation.CommitUserPrompt(prompt)
		return true
	case events.EndOfTurn:
		return o.conversation.CommitPendingUserTurn() != nil
	default:
		return false
	}
}

// scriptedResponse produces a generate function that streams fixed text
// instead of prompting the model. Used for greetings.
func scriptedResponse(text string) func(context.Context, []llms.Turn, *textBuffer, func() bool) (*llms.Response, error) {
	return func(_ context.Context, _ []llms.Turn, buffer *textBuffer, cancelled func() bool) (*llms.Response, error) {
		if cancelled() {
			return nil, nil
		}

		buffer.AddChunk(text)
		return &llms.Response{Content: text}, nil
	}
}
