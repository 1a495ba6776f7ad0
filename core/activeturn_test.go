package orchestration

import (
	"context"
	"testing"
	"time"
)

func newTestActiveTurn() *activeTurn {
	return newActiveTurn(context.Background(), 1, true, activeTurnComponents{
		TextToSpeech: &textToSpeech{},
		AudioOutput:  &audioOutput{},
	}, activeTurnCallbacks{})
}

func TestSpeechWorkerWaitsForGeneratorInitialization(t *testing.T) {
	turn := newTestActiveTurn()

	released := make(chan struct{})
	go func() {
		turn.generator.waitUntilInitialized(context.Background())
		close(released)
	}()

	select {
	case <-released:
		t.Fatalf("expected the speech worker to block until the generator is connected")
	case <-time.After(20 * time.Millisecond):
	}

	if err := turn.generator.init(context.Background(), turn); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for initialization to release the speech worker")
	}
}

func TestCancelledContextReleasesTheSpeechWorkerWithoutInit(t *testing.T) {
	turn := newTestActiveTurn()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	released := make(chan struct{})
	go func() {
		turn.generator.waitUntilInitialized(ctx)
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for cancellation to release the speech worker")
	}
}
