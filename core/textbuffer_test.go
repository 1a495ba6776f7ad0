package orchestration

import (
	"strings"
	"testing"
	"time"
)

func TestChunksYieldsInOrderUntilComplete(t *testing.T) {
	b := newTextBuffer()
	b.AddChunk("Hello")
	b.AddChunk(", ")
	b.AddChunk("world.")
	b.TextComplete()

	var chunks []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for chunk := range b.Chunks {
			chunks = append(chunks, chunk)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the chunk loop to finish")
	}

	if got := strings.Join(chunks, ""); got != "Hello, world." {
		t.Fatalf("unexpected chunk sequence %v", chunks)
	}
}

func TestChunksBlocksUntilMoreTextArrives(t *testing.T) {
	b := newTextBuffer()
	b.AddChunk("first")

	received := make(chan string, 2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for chunk := range b.Chunks {
			received <- chunk
		}
	}()

	select {
	case chunk := <-received:
		if chunk != "first" {
			t.Fatalf("unexpected first chunk %q", chunk)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the first chunk")
	}

	select {
	case chunk := <-received:
		t.Fatalf("expected the loop to block, got %q", chunk)
	case <-time.After(50 * time.Millisecond):
	}

	b.AddChunk("second")
	b.TextComplete()

	select {
	case chunk := <-received:
		if chunk != "second" {
			t.Fatalf("unexpected second chunk %q", chunk)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the second chunk")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the chunk loop to finish")
	}
}

func TestClearEndsTheChunkLoop(t *testing.T) {
	b := newTextBuffer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range b.Chunks {
		}
	}()

	b.Clear()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the cleared loop to finish")
	}
}

func TestStringJoinsAllChunks(t *testing.T) {
	b := newTextBuffer()
	b.AddChunk("The answer ")
	b.AddChunk("is 42.")

	if got := b.String(); got != "The answer is 42." {
		t.Fatalf("unexpected buffer text %q", got)
	}
}
