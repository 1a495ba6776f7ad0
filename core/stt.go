package orchestration

import (
	"context"
	"fmt"

	"github.com/korvid-ai/korvid-core/core/audio"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

// speechToText is the facade normalizing optional transcription clients so
// the orchestrator can run without one configured.
type speechToText struct {
	client SpeechToText
}

type speechToTextCallbacks struct {
	onSpeechStarted     func()
	onSpeechEnded       func()
	onInterimTranscript func(transcript speechtotext.Transcript)
	onTranscript        func(transcript speechtotext.Transcript)
	onError             func(err error)
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechToText) start(ctx context.Context, callbacks speechToTextCallbacks, encodingInfo *audio.EncodingInfo) error {
	if !s.isConfigured() {
		return nil
	}

	sttOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithSpeechStartedCallback(callbacks.onSpeechStarted),
		speechtotext.WithSpeechEndedCallback(callbacks.onSpeechEnded),
		speechtotext.WithInterimTranscriptCallback(callbacks.onInterimTranscript),
		speechtotext.WithTranscriptCallback(callbacks.onTranscript),
		speechtotext.WithErrorCallback(callbacks.onError),
	}
	if encodingInfo != nil {
		sttOptions = append(sttOptions, speechtotext.WithEncodingInfo(*encodingInfo))
	}

	if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	return nil
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ StopStream() error }:
		if err := c.StopStream(); err != nil {
			return fmt.Errorf("failed to stop speech-to-text stream: %w", err)
		}
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}
