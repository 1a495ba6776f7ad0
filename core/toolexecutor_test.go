package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/llms"
)

type eventCollector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *eventCollector) collect(event events.Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *eventCollector) kinds() []events.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]events.Kind, 0, len(c.events))
	for _, e := range c.events {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

func receiveToolCall(t *testing.T, results <-chan llms.ToolCall) (llms.ToolCall, bool) {
	t.Helper()

	select {
	case call, ok := <-results:
		return call, ok
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for tool result")
		return llms.ToolCall{}, false
	}
}

func TestInvokeDeliversToolResult(t *testing.T) {
	generations := &generationCounter{}
	generation := generations.Bump()

	collector := &eventCollector{}
	executor := newToolExecutor(generations, collector.collect)
	executor.Register(llms.NewTool("echo", "echoes its input", func(_ context.Context, params struct {
		Text string `json:"text"`
	}) (string, error) {
		return params.Text, nil
	}))

	results := executor.Invoke(context.Background(), llms.ToolCall{ID: "1", Name: "echo", Arguments: `{"text":"hi"}`}, generation)

	call, ok := receiveToolCall(t, results)
	if !ok {
		t.Fatalf("expected a delivered result, channel was closed")
	}
	if call.Failed {
		t.Fatalf("expected success, got failure payload %q", call.Response)
	}
	if call.Response != "hi" {
		t.Fatalf("expected response %q, got %q", "hi", call.Response)
	}

	kinds := collector.kinds()
	if len(kinds) != 2 || kinds[0] != events.KindToolCallStarted || kinds[1] != events.KindToolCallCompleted {
		t.Fatalf("expected started and completed events, got %v", kinds)
	}
}

func TestInvokeUnknownToolDeliversFailurePayload(t *testing.T) {
	generations := &generationCounter{}
	generation := generations.Bump()

	collector := &eventCollector{}
	executor := newToolExecutor(generations, collector.collect)

	results := executor.Invoke(context.Background(), llms.ToolCall{ID: "1", Name: "missing"}, generation)

	call, ok := receiveToolCall(t, results)
	if !ok {
		t.Fatalf("expected a failure payload, channel was closed")
	}
	if !call.Failed {
		t.Fatalf("expected failure payload for unknown tool")
	}
	if !strings.Contains(call.Response, ErrUnknownTool.Error()) || !strings.Contains(call.Response, "missing") {
		t.Fatalf("expected payload to name the missing tool, got %q", call.Response)
	}

	kinds := collector.kinds()
	if len(kinds) != 1 || kinds[0] != events.KindToolCallFailed {
		t.Fatalf("expected a single failed event, got %v", kinds)
	}
}

func TestInvokeToolErrorBecomesFailurePayload(t *testing.T) {
	generations := &generationCounter{}
	generation := generations.Bump()

	executor := newToolExecutor(generations, nil)
	executor.Register(llms.NewTool("broken", "always fails", func(context.Context, struct{}) (string, error) {
		return "", errors.New("backend unreachable")
	}))

	results := executor.Invoke(context.Background(), llms.ToolCall{ID: "1", Name: "broken"}, generation)

	call, ok := receiveToolCall(t, results)
	if !ok {
		t.Fatalf("expected a failure payload, channel was closed")
	}
	if !call.Failed {
		t.Fatalf("expected failure payload when the tool errors")
	}
	if !strings.Contains(call.Response, "backend unreachable") {
		t.Fatalf("expected payload to carry the tool error, got %q", call.Response)
	}
}

func TestInvokeDropsStaleResult(t *testing.T) {
	generations := &generationCounter{}
	generation := generations.Bump()

	collector := &eventCollector{}
	executor := newToolExecutor(generations, collector.collect)

	release := make(chan struct{})
	executor.Register(llms.NewTool("slow", "waits for release", func(context.Context, struct{}) (string, error) {
		<-release
		return "too late", nil
	}))

	results := executor.Invoke(context.Background(), llms.ToolCall{ID: "1", Name: "slow"}, generation)

	generations.Bump()
	close(release)

	if _, ok := receiveToolCall(t, results); ok {
		t.Fatalf("expected stale result to be dropped, channel delivered a value")
	}

	kinds := collector.kinds()
	if len(kinds) != 2 || kinds[1] != events.KindToolCallDropped {
		t.Fatalf("expected the stale result to emit a dropped event, got %v", kinds)
	}
}

func TestRegisterOverwritesByName(t *testing.T) {
	generations := &generationCounter{}
	generation := generations.Bump()

	executor := newToolExecutor(generations, nil)
	executor.Register(llms.NewTool("answer", "first", func(context.Context, struct{}) (string, error) {
		return "first", nil
	}))
	executor.Register(llms.NewTool("answer", "second", func(context.Context, struct{}) (string, error) {
		return "second", nil
	}))

	if tools := executor.Tools(); len(tools) != 1 {
		t.Fatalf("expected one registered tool, got %d", len(tools))
	}

	call, _ := receiveToolCall(t, executor.Invoke(context.Background(), llms.ToolCall{ID: "1", Name: "answer"}, generation))
	if call.Response != "second" {
		t.Fatalf("expected the latest registration to win, got %q", call.Response)
	}
}
