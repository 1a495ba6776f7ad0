package audio

import "time"

const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// BytesToDuration converts a payload length in bytes to playback time at this
// encoding.
func (e EncodingInfo) BytesToDuration(n int) time.Duration {
	if e.IsZero() {
		return 0
	}

	samples := n / e.Format.ByteSize()
	return time.Duration(float64(samples) / float64(e.SampleRate) * float64(time.Second))
}

// DurationToBytes converts a playback duration to the payload length in bytes
// at this encoding.
func (e EncodingInfo) DurationToBytes(d time.Duration) int {
	if e.IsZero() {
		return 0
	}

	samples := int(float64(d) / float64(time.Second) * float64(e.SampleRate))
	return samples * e.Format.ByteSize()
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
