package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/korvid-ai/korvid-core/core/llms"
	"github.com/korvid-ai/korvid-core/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	url = "https://api.groq.com/openai/v1/chat/completions"

	endMessage  = "[DONE]"
	chunkPrefix = "data:"
)

// Client issues chat completion requests against the Groq API.
type Client struct {
	apiKey string
	model  string

	httpClient *http.Client
}

// NewClient builds a client for the given model. The HTTP transport is
// instrumented so every request produces a client span.
func NewClient(apiKey string, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
}

// PromptWithStream prepares a streaming completion. Nothing is sent until the
// returned stream's Chunks is consumed.
func (c *Client) PromptWithStream(_ context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt.ApplyToPrompt(&options)
	}

	messages := toMessages(options.Instructions, options.Turns)
	if prompt != nil {
		messages = append(messages, message{
			Role:    messageRoleUser,
			Content: *prompt,
		})
	}

	return &Stream{
		apiKey:     c.apiKey,
		model:      c.model,
		httpClient: c.httpClient,
		tools:      toTools(options.Tools),
		messages:   messages,
	}
}

type Stream struct {
	apiKey string

	model      string
	httpClient *http.Client
	tools      []Tool
	messages   []message
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))
		var toolNames []string
		for _, tool := range s.tools {
			toolNames = append(toolNames, tool.Function.Name)
		}
		span.SetAttributes(attribute.StringSlice("request.available_tools", toolNames))

		var toolChoice *string
		if s.tools != nil {
			toolChoice = utils.Ptr("auto")
		}

		reqBody := requestBody{
			Model:      s.model,
			Messages:   s.messages,
			Stream:     true,
			Tools:      s.tools,
			ToolChoice: toolChoice,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := s.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err != nil {
				err = fmt.Errorf("error reading error body: %w", err)
				span.RecordError(err)
			} else {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}

			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		toolCalls := []toolCall{}
		defer func() {
			toolNames := []string{}
			for _, toolCall := range toolCalls {
				toolNames = append(toolNames, toolCall.Function.Name)
			}
			span.SetAttributes(attribute.StringSlice("response.tool_calls", toolNames))
		}()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			err := json.Unmarshal([]byte(chunk), &responseBody)
			if err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield(nil, err) {
					return
				}
				continue
			}
			var finishReason *string
			if len(responseBody.Choices) > 0 {
				delta := responseBody.Choices[0].Delta

				if delta.FinishReason != nil {
					finishReason = delta.FinishReason
				}

				if len(delta.ToolCalls) > 0 {
					toolCalls = append(toolCalls, delta.ToolCalls...)
					for _, toolCall := range delta.ToolCalls {
						if !yield(streamToolCallChunk{
							finishReason: finishReason,
							toolCall: llms.ToolCall{
								ID:        toolCall.ID,
								Name:      toolCall.Function.Name,
								Arguments: toolCall.Function.Arguments,
							},
						}, nil) {
							return
						}
					}
				}

				if delta.Content != "" {
					if !yield(streamContentChunk{
						finishReason: finishReason,
						content:      delta.Content,
					}, nil) {
						return
					}
				}
			}

			if responseBody.Usage != nil {
				span.SetAttributes(attribute.Int("usage.prompt", responseBody.Usage.PromptTokens))
				span.SetAttributes(attribute.Int("usage.completion", responseBody.Usage.CompletionTokens))
				span.SetAttributes(attribute.Int("usage.total", responseBody.Usage.TotalTokens))

				span.SetAttributes(attribute.Float64("usage.queue_time", responseBody.Usage.QueueTime))
				span.SetAttributes(attribute.Float64("usage.prompt_time", responseBody.Usage.PromptTime))
				span.SetAttributes(attribute.Float64("usage.completion_time", responseBody.Usage.CompletionTime))
				span.SetAttributes(attribute.Float64("usage.total_time", responseBody.Usage.TotalTime))
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type requestBody struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Stream     bool      `json:"stream"`
	ToolChoice *string   `json:"tool_choice,omitempty"`
	Tools      []Tool    `json:"tools,omitempty"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Role         string     `json:"role,omitempty"`
			Content      string     `json:"content,omitempty"`
			ToolCalls    []toolCall `json:"tool_calls,omitempty"`
			FinishReason *string    `json:"finish_reason,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		QueueTime        float64 `json:"queue_time"`
		PromptTokens     int     `json:"prompt_tokens"`
		PromptTime       float64 `json:"prompt_time"`
		CompletionTokens int     `json:"completion_tokens"`
		CompletionTime   float64 `json:"completion_time"`
		TotalTokens      int     `json:"total_tokens"`
		TotalTime        float64 `json:"total_time"`
	} `json:"usage"`
}

type streamContentChunk struct {
	finishReason *string
	content      string
}

func (s streamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s streamContentChunk) Content() string {
	return s.content
}

type streamToolCallChunk struct {
	finishReason *string
	toolCall     llms.ToolCall
}

func (s streamToolCallChunk) FinishReason() *string {
	return s.finishReason
}

func (s streamToolCallChunk) ToolCall() llms.ToolCall {
	return s.toolCall
}
