package speechtotext

import "time"

// Transcript is a single transcription result. Interim transcripts are
// provisional and may be revised; a final transcript supersedes every interim
// that preceded it for the same stretch of audio.
type Transcript struct {
	Text       string
	IsFinal    bool
	Confidence float64

	// Start and End position the transcript within the audio stream,
	// relative to the start of transcription.
	Start time.Duration
	End   time.Duration
}
