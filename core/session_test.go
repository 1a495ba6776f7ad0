package orchestration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

// flakyTranscriptionStub fails the first failures calls to Transcribe and
// succeeds afterwards.
type flakyTranscriptionStub struct {
	failures int32
	attempts atomic.Int32
}

func (stub *flakyTranscriptionStub) Transcribe(context.Context, ...speechtotext.TranscriptionOption) error {
	if stub.attempts.Add(1) <= stub.failures {
		return errors.New("connection refused")
	}
	return nil
}

func (stub *flakyTranscriptionStub) SendAudio([]byte) error { return nil }

func sessionTestConfig() Config {
	config := DefaultConfig()
	config.ProviderRetryAttempts = 3
	config.ProviderRetryBackoff = time.Millisecond
	return config
}

func TestRunRetriesProviderFailuresUntilStartupSucceeds(t *testing.T) {
	stt := &flakyTranscriptionStub{failures: 2}
	o := NewOrchestrator(WithConfig(sessionTestConfig()), WithSpeechToTextClient(stt))
	controller := NewSessionController(o)
	defer controller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Run(ctx); err != nil {
		t.Fatalf("expected startup to succeed after retries, got %v", err)
	}
	if attempts := stt.attempts.Load(); attempts != 3 {
		t.Fatalf("expected 3 transcription attempts, got %d", attempts)
	}
	if o.State() != StateListening {
		t.Fatalf("expected a listening session, got %s", o.State())
	}
}

func TestRunClosesSessionWhenRetriesAreExhausted(t *testing.T) {
	stt := &flakyTranscriptionStub{failures: 100}
	o := NewOrchestrator(WithConfig(sessionTestConfig()), WithSpeechToTextClient(stt))
	controller := NewSessionController(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := controller.Run(ctx)
	if err == nil {
		t.Fatalf("expected an error when retries are exhausted")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected a provider error, got %v", err)
	}
	// The configured attempt limit plus the initial try.
	if attempts := stt.attempts.Load(); attempts != 4 {
		t.Fatalf("expected 4 transcription attempts, got %d", attempts)
	}
	if o.State() != StateClosed {
		t.Fatalf("expected the session to be closed, got %s", o.State())
	}
}

func TestRunDoesNotRetryConfigurationErrors(t *testing.T) {
	config := sessionTestConfig()
	config.TurnDetector.SilenceThreshold = 0

	stt := &flakyTranscriptionStub{}
	o := NewOrchestrator(WithConfig(config), WithSpeechToTextClient(stt))
	controller := NewSessionController(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := controller.Run(ctx)
	if err == nil {
		t.Fatalf("expected a configuration error")
	}

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected a config error, got %v", err)
	}
	if attempts := stt.attempts.Load(); attempts != 0 {
		t.Fatalf("expected no transcription attempts for invalid configuration, got %d", attempts)
	}
	if o.State() != StateClosed {
		t.Fatalf("expected the session to be closed, got %s", o.State())
	}
}

func TestTransportErrorTriggersReconnect(t *testing.T) {
	stt := &flakyTranscriptionStub{}
	o := NewOrchestrator(WithConfig(sessionTestConfig()), WithSpeechToTextClient(stt))
	controller := NewSessionController(o)
	defer controller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Run(ctx); err != nil {
		t.Fatalf("unexpected startup error: %v", err)
	}

	o.handleTransportError(errors.New("websocket closed"))

	waitForCondition(t, 2*time.Second, "transcription stream to reconnect", func() bool {
		return stt.attempts.Load() == 2
	})
	if o.State() == StateClosed {
		t.Fatalf("expected the session to survive a recoverable transport failure")
	}
}

func TestExhaustedReconnectClosesSession(t *testing.T) {
	stt := &flakyTranscriptionStub{failures: 100}
	config := sessionTestConfig()
	o := NewOrchestrator(WithConfig(config), WithSpeechToTextClient(stt))
	controller := NewSessionController(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start with a working stream, then make every reconnect fail.
	stt.failures = 0
	if err := controller.Run(ctx); err != nil {
		t.Fatalf("unexpected startup error: %v", err)
	}
	stt.failures = 100

	o.handleTransportError(errors.New("websocket closed"))

	waitForCondition(t, 5*time.Second, "session to close after failed recovery", func() bool {
		return o.State() == StateClosed
	})
}
