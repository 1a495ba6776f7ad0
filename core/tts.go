package orchestration

import (
	"context"

	"github.com/korvid-ai/korvid-core/core/texttospeech"
)

// textToSpeech is the facade normalizing optional synthesis clients. Each
// turn opens its own speech generator so cancelling one turn never affects
// the next.
type textToSpeech struct {
	client TextToSpeech
}

func (t *textToSpeech) set(client TextToSpeech) {
	if t != nil {
		t.client = client
	}
}

func (t *textToSpeech) isConfigured() bool {
	return t != nil && t.client != nil
}

func (t *textToSpeech) NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error) {
	if !t.isConfigured() {
		return nil, nil
	}

	return t.client.NewSpeechGenerator(ctx, opts...)
}
