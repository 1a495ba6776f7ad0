package deepgram

import (
	"context"
	"fmt"
	"slices"

	"github.com/korvid-ai/korvid-core/core/audio"
)

// TextToSpeechClient produces speech generators backed by Deepgram's speak
// endpoint. Each generator owns its own websocket; the client only carries
// the shared configuration.
type TextToSpeechClient struct {
	voice        deepgramVoice
	encodingInfo audio.EncodingInfo
}

func NewTextToSpeechClient(_ context.Context, voice deepgramVoice) (*TextToSpeechClient, error) {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	return &TextToSpeechClient{
		voice:        voice,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}, nil
}

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}
