package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// toolExecutor runs registered tools asynchronously under generation
// discipline: every invocation carries the generation that requested it, and
// results whose generation has been superseded by the time they complete are
// dropped instead of delivered.
type toolExecutor struct {
	mu    sync.RWMutex
	tools map[string]llms.Tool

	generations *generationCounter
	emit        func(events.Event)
}

func newToolExecutor(generations *generationCounter, emit func(events.Event)) *toolExecutor {
	if emit == nil {
		emit = func(events.Event) {}
	}
	return &toolExecutor{
		tools:       map[string]llms.Tool{},
		generations: generations,
		emit:        emit,
	}
}

func (e *toolExecutor) Register(tools ...llms.Tool) {
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tool := range tools {
		e.tools[tool.Name] = tool
	}
}

func (e *toolExecutor) Tools() []llms.Tool {
	if e == nil {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tools := make([]llms.Tool, 0, len(e.tools))
	for _, tool := range e.tools {
		tools = append(tools, tool)
	}
	return tools
}

func (e *toolExecutor) lookup(name string) (llms.Tool, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tool, ok := e.tools[name]
	return tool, ok
}

// Invoke runs the named tool asynchronously. The returned channel delivers at
// most one completed call and is closed without a value when the result went
// stale before delivery. Tool faults are delivered as failure payloads, not
// errors: the model decides how to recover.
func (e *toolExecutor) Invoke(ctx context.Context, call llms.ToolCall, generation uint64) <-chan llms.ToolCall {
	results := make(chan llms.ToolCall, 1)

	tool, ok := e.lookup(call.Name)
	if !ok {
		call.Response = fmt.Sprintf("%v: %s", ErrUnknownTool, call.Name)
		call.Failed = true
		e.emit(events.NewToolCallFailed(call.ID, call.Name, call.Response, generation))
		results <- call
		close(results)
		return results
	}

	e.emit(events.NewToolCallStarted(call.ID, call.Name, call.Arguments, generation))

	go func() {
		defer close(results)

		// Handlers that ignore cancellation are shielded from it and run to
		// completion; their results are dropped as stale on arrival instead.
		execCtx := ctx
		if !tool.SupportsCancellation {
			execCtx = context.WithoutCancel(ctx)
		}

		execCtx, span := tracer.Start(execCtx, "execute tool")
		defer span.End()
		span.SetAttributes(
			attribute.String("tool.name", call.Name),
			attribute.Int64("tool.generation", int64(generation)),
		)

		response, err := tool.Execute(execCtx, call.Arguments)

		if !e.generations.IsCurrent(generation) {
			// Expected race: the generation was superseded while the tool
			// ran. Not an error.
			staleToolResultsCounter.Add(execCtx, 1)
			span.AddEvent("result dropped as stale")
			logger.Debug("Dropped stale tool result", "tool", call.Name, "generation", generation)
			e.emit(events.NewToolCallDropped(call.ID, call.Name, generation))
			return
		}

		if err != nil {
			err = fmt.Errorf("tool %q failed: %w", call.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			call.Response = err.Error()
			call.Failed = true
			e.emit(events.NewToolCallFailed(call.ID, call.Name, call.Response, generation))
			results <- call
			return
		}

		call.Response = response
		e.emit(events.NewToolCallCompleted(call.ID, call.Name, call.Response, generation))
		results <- call
	}()

	return results
}
