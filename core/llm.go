package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/korvid-ai/korvid-core/core/llms"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// llm wraps the configured model client. The model stream is a tagged
// sequence of text deltas and tool call requests; tool calls trigger
// sub-cycles that re-invoke the model with the tool results appended, all
// within the same generation.
type llm struct {
	client LLMWithStream

	instructions string

	executor *toolExecutor
}

func newLLM(executor *toolExecutor) llm {
	return llm{executor: executor}
}

func (runtime *llm) set(client LLMWithStream) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

func (runtime *llm) setInstructions(instructions string) {
	if runtime == nil {
		return
	}

	runtime.instructions = instructions
}

func (runtime *llm) isConfigured() bool {
	return runtime != nil && runtime.client != nil
}

// generate runs the model stream for one generation, feeding text deltas to
// the buffer and executing tool calls between sub-cycles. Text deltas are
// forwarded in the order produced.
func (runtime *llm) generate(
	ctx context.Context,
	generation uint64,
	history []llms.Turn,
	buffer *textBuffer,
	cancelled func() bool,
) (*llms.Response, error) {
	if !runtime.isConfigured() {
		buffer.TextComplete()
		return nil, nil
	}

	span := trace.SpanFromContext(ctx)

	pending := llms.Turn{Role: llms.TurnRoleAssistant}
	var message strings.Builder
	for {
		turns := history
		if len(pending.ToolCalls) > 0 {
			turns = append(append([]llms.Turn(nil), history...), pending)
		}

		stream := runtime.client.PromptWithStream(ctx, nil,
			llms.WithInstructions(runtime.instructions),
			llms.WithTurns(turns...),
			llms.WithTools(runtime.executor.Tools()...),
		)

		toolCalls := []llms.ToolCall{}
		for chunk, err := range stream.Chunks(ctx) {
			if err != nil {
				if ctx.Err() != nil {
					// The generation was cancelled under the stream; an
					// expected race, not a provider failure.
					return nil, nil
				}
				err = fmt.Errorf("failed to stream llm response: %w", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			if cancelled != nil && cancelled() {
				return nil, nil
			}

			switch chunk := chunk.(type) {
			case llms.StreamContentChunk:
				message.WriteString(chunk.Content())
				buffer.AddChunk(chunk.Content())

			case llms.StreamToolCallChunk:
				toolCalls = append(toolCalls, chunk.ToolCall())
			}
		}

		if len(toolCalls) == 0 {
			return &llms.Response{
				Content:   message.String(),
				ToolCalls: pending.ToolCalls,
			}, nil
		}

		for _, toolCall := range toolCalls {
			if toolCall.ID == "" {
				toolCall.ID = uuid.NewString()
			}

			select {
			case completed, ok := <-runtime.executor.Invoke(ctx, toolCall, generation):
				if !ok {
					// Result went stale mid-flight; the whole generation is
					// superseded, stop quietly.
					return nil, nil
				}
				pending.ToolCalls = append(pending.ToolCalls, completed)
			case <-ctx.Done():
				return nil, nil
			}
		}
	}
}
