package audio

import (
	"math"
	"time"
)

// Frame is a single block of PCM samples captured from an input stream.
// Frames are immutable once produced: the capture side never reuses the PCM
// slice after handing the frame off.
type Frame struct {
	PCM       []byte
	Timestamp time.Time
	Seq       uint64
}

// Duration returns the playback time of the frame at the given encoding.
func (f Frame) Duration(encodingInfo EncodingInfo) time.Duration {
	return encodingInfo.BytesToDuration(len(f.PCM))
}

// RMS computes the root-mean-square energy of the frame, normalized to
// [0, 1]. Only linear16 payloads carry meaningful energy; other encodings
// report zero and rely on the transcription engine's activity signals.
func (f Frame) RMS(encodingInfo EncodingInfo) float64 {
	if encodingInfo.Format != EncodingLinear16 || len(f.PCM) < 2 {
		return 0
	}

	var sum float64
	samples := len(f.PCM) / 2
	for i := 0; i < samples*2; i += 2 {
		sample := int16(uint16(f.PCM[i]) | uint16(f.PCM[i+1])<<8)
		normalized := float64(sample) / math.MaxInt16
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}
