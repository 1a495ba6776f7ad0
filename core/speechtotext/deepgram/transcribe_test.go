package deepgram

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/korvid-ai/korvid-core/core/audio"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

func resultMessage(transcript string, confidence, start, duration float64, isFinal, speechFinal bool) []byte {
	return fmt.Appendf(nil,
		`{"type":%q,"start":%f,"duration":%f,"is_final":%t,"speech_final":%t,`+
			`"channel":{"alternatives":[{"transcript":%q,"confidence":%f}]}}`,
		api.TypeMessageResponse, start, duration, isFinal, speechFinal, transcript, confidence)
}

func TestProcessMessageAccumulatesFinalsUntilSpeechFinal(t *testing.T) {
	client := NewTranscriptionClient()

	var transcripts []speechtotext.Transcript
	speechEndedCalls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		TranscriptCallback:  func(transcript speechtotext.Transcript) { transcripts = append(transcripts, transcript) },
		SpeechEndedCallback: func() { speechEndedCalls.Add(1) },
	}

	ctx := context.Background()
	client.processMessage(ctx, resultMessage("what's the weather", 0.95, 0.5, 1.0, true, false), options)
	client.processMessage(ctx, resultMessage("in berlin", 0.90, 1.5, 0.8, true, true), options)

	if len(transcripts) != 1 {
		t.Fatalf("expected one combined transcript, got %d", len(transcripts))
	}
	combined := transcripts[0]
	if combined.Text != "what's the weather in berlin" {
		t.Fatalf("unexpected combined transcript %q", combined.Text)
	}
	if !combined.IsFinal {
		t.Fatalf("expected a final transcript")
	}
	if combined.Confidence != 0.90 {
		t.Fatalf("expected the lowest segment confidence, got %f", combined.Confidence)
	}
	if combined.Start != 500*time.Millisecond {
		t.Fatalf("expected transcript to start at the first segment, got %s", combined.Start)
	}
	if combined.End != 2300*time.Millisecond {
		t.Fatalf("expected transcript to end with the last segment, got %s", combined.End)
	}
	if speechEndedCalls.Load() != 1 {
		t.Fatalf("expected one speech-ended callback, got %d", speechEndedCalls.Load())
	}
}

func TestProcessMessageDoesNotEmitEmptyTranscripts(t *testing.T) {
	client := NewTranscriptionClient()

	transcriptCalls := atomic.Int32{}
	speechEndedCalls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		TranscriptCallback:  func(speechtotext.Transcript) { transcriptCalls.Add(1) },
		SpeechEndedCallback: func() { speechEndedCalls.Add(1) },
	}

	client.processMessage(context.Background(), resultMessage("", 0, 0, 0.5, true, true), options)

	if transcriptCalls.Load() != 0 {
		t.Fatalf("expected no transcript for silence, got %d", transcriptCalls.Load())
	}
	if speechEndedCalls.Load() != 1 {
		t.Fatalf("expected the speech-ended signal even without text, got %d", speechEndedCalls.Load())
	}
}

func TestProcessMessageInterimIncludesAccumulatedFinals(t *testing.T) {
	client := NewTranscriptionClient()

	var interims []speechtotext.Transcript
	options := speechtotext.TranscriptionOptions{
		InterimTranscriptCallback: func(transcript speechtotext.Transcript) { interims = append(interims, transcript) },
	}

	ctx := context.Background()
	client.processMessage(ctx, resultMessage("what's the", 0.95, 0.5, 1.0, true, false), options)
	client.processMessage(ctx, resultMessage("weather like", 0.80, 1.5, 0.6, false, false), options)

	if len(interims) != 1 {
		t.Fatalf("expected one interim transcript, got %d", len(interims))
	}
	interim := interims[0]
	if interim.Text != "what's the weather like" {
		t.Fatalf("unexpected interim text %q", interim.Text)
	}
	if interim.IsFinal {
		t.Fatalf("expected an interim transcript")
	}
	if interim.Start != 500*time.Millisecond {
		t.Fatalf("expected interim to start with the accumulated segment, got %s", interim.Start)
	}
}

func TestUtteranceEndFlushesUnendedSegment(t *testing.T) {
	client := NewTranscriptionClient()

	var transcripts []speechtotext.Transcript
	speechStartedCalls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		TranscriptCallback:    func(transcript speechtotext.Transcript) { transcripts = append(transcripts, transcript) },
		SpeechStartedCallback: func() { speechStartedCalls.Add(1) },
	}

	ctx := context.Background()
	client.processMessage(ctx, fmt.Appendf(nil, `{"type":%q}`, api.TypeSpeechStartedResponse), options)
	client.processMessage(ctx, resultMessage("trailing words", 0.9, 0, 1.0, true, false), options)
	client.processMessage(ctx, fmt.Appendf(nil, `{"type":%q}`, api.TypeUtteranceEndResponse), options)

	if speechStartedCalls.Load() != 1 {
		t.Fatalf("expected one speech-started callback, got %d", speechStartedCalls.Load())
	}
	if len(transcripts) != 1 || transcripts[0].Text != "trailing words" {
		t.Fatalf("expected the utterance end to flush the segment, got %v", transcripts)
	}
}

func TestUtteranceEndWithoutOpenSegmentIsIgnored(t *testing.T) {
	client := NewTranscriptionClient()

	speechEndedCalls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		SpeechEndedCallback: func() { speechEndedCalls.Add(1) },
	}

	client.processMessage(context.Background(), fmt.Appendf(nil, `{"type":%q}`, api.TypeUtteranceEndResponse), options)

	if speechEndedCalls.Load() != 0 {
		t.Fatalf("expected no speech-ended callback without an open segment, got %d", speechEndedCalls.Load())
	}
}

func TestSendAudioWithoutConnectionFails(t *testing.T) {
	client := NewTranscriptionClient()

	if err := client.SendAudio([]byte{0, 0}); err == nil {
		t.Fatalf("expected an error when the stream is not open")
	}
}

func TestConvertEncoding(t *testing.T) {
	tests := []struct {
		name     string
		encoding audio.EncodingInfo
		want     *encodingInfo
		wantErr  bool
	}{
		{
			name:     "linear16 at 16kHz",
			encoding: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingLinear16},
			want:     &encodingInfo{SampleRate: 16000, Format: encodingLinear16},
		},
		{
			name:     "mulaw at 8kHz",
			encoding: audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw},
			want:     &encodingInfo{SampleRate: 8000, Format: encodingMulaw},
		},
		{
			name:     "mulaw above 8kHz",
			encoding: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingMulaw},
			wantErr:  true,
		},
		{
			name:     "unsupported sample rate",
			encoding: audio.EncodingInfo{SampleRate: 44100, Format: audio.EncodingLinear16},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertEncoding(tt.encoding)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != *tt.want {
				t.Fatalf("unexpected encoding %+v, want %+v", got, tt.want)
			}
		})
	}
}
