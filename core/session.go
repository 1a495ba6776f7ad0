package orchestration

import (
	"context"
	"errors"
	"time"
)

// SessionController supervises an orchestrator's lifecycle: startup with
// bounded retries on provider failures, reconnection of the transcription
// stream after transport errors, and escalation to a closed session when
// recovery is exhausted.
type SessionController struct {
	orchestrator *Orchestrator

	attempts int
	backoff  time.Duration
}

func NewSessionController(orchestrator *Orchestrator) *SessionController {
	return &SessionController{
		orchestrator: orchestrator,
		attempts:     orchestrator.config.ProviderRetryAttempts,
		backoff:      orchestrator.config.ProviderRetryBackoff,
	}
}

// Run starts the session. Provider startup failures are retried with
// exponential backoff up to the configured attempt limit; configuration
// errors are not retried. When startup cannot be completed the session is
// closed and all collected errors are returned.
func (s *SessionController) Run(ctx context.Context, opts ...OrchestrateOption) error {
	s.orchestrator.onTransportError = func(error) { s.recoverTransport(ctx) }

	var errs error
	backoff := s.backoff
	for attempt := 0; ; attempt++ {
		err := s.orchestrator.Orchestrate(ctx, opts...)
		if err == nil {
			return nil
		}
		errs = errors.Join(errs, err)

		var providerErr *ProviderError
		if !errors.As(err, &providerErr) || attempt >= s.attempts {
			break
		}

		logger.WarnContext(ctx, "session startup failed, retrying",
			"provider", providerErr.Provider, "attempt", attempt+1, "backoff", backoff.String())

		select {
		case <-ctx.Done():
			errs = errors.Join(errs, ctx.Err())
			attempt = s.attempts
		case <-time.After(backoff):
		}
		if attempt >= s.attempts {
			break
		}
		backoff *= 2
	}

	return errors.Join(errs, s.orchestrator.Close())
}

// Close shuts the supervised session down.
func (s *SessionController) Close() error {
	return s.orchestrator.Close()
}

// recoverTransport tries to reopen the transcription stream after a
// mid-session transport failure. If every attempt fails the session is
// closed rather than left silently deaf.
func (s *SessionController) recoverTransport(ctx context.Context) {
	backoff := s.backoff
	for attempt := 0; attempt <= s.attempts; attempt++ {
		if s.orchestrator.runtime.isClosed() || ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		err := s.orchestrator.reconnectSpeechToText(ctx)
		if err == nil {
			logger.InfoContext(ctx, "transcription stream reconnected", "attempt", attempt+1)
			return
		}
		logger.WarnContext(ctx, "transcription reconnect failed",
			"attempt", attempt+1, "error", err)

		backoff *= 2
	}

	logger.ErrorContext(ctx, "transcription stream could not be recovered, closing session")
	_ = s.orchestrator.Close()
}
