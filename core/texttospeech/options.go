package texttospeech

import "github.com/korvid-ai/korvid-core/core/audio"

type TextToSpeechOptions struct {
	// SpeechAudioCallback is called when the TTS client produces audio
	SpeechAudioCallback func(audio []byte)
	// SpeechMarkCallback is called when the TTS client produces speech until the
	// marked text. Each mark is called once.
	SpeechMarkCallback func(string)
	// SpeechEndedCallback is called when the TTS client has finished producing
	// speech and provides a report of the speech generation
	SpeechEndedCallback func(SpeechEndedReport)
	// ErrorCallback is called when the TTS client encounters an error, this
	// usually means the TTS client has been cancelled
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithSpeechAudioCallback(callback func([]byte)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.SpeechAudioCallback = callback
	}
}

func WithSpeechMarkCallback(callback func(string)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.SpeechMarkCallback = callback
	}
}

// WithSpeechEndedCallback sets the callback for when the TTS client has
// finished producing all required speech
func WithSpeechEndedCallback(callback func(SpeechEndedReport)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.SpeechEndedCallback = callback }
}

func WithErrorCallback(callback func(error)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

type SpeechGenerator interface {
	// SendText sends text to the [SpeechGenerator]. It is guaranteed that the
	// speech will be generated in the order text is sent.
	//
	// SendText will error if EndOfText, Cancel or Close has been called.
	SendText(string) error
	// Mark marks the current point in the text. It is guaranteed that the mark
	// will be returned after the text sent up to the mark has been generated.
	// There is no guarantee that the mark will be returned exactly at the point
	// where it was marked.
	//
	// Mark will error if EndOfText, Cancel or Close has been called.
	Mark() error
	// EndOfText sends a signal to the [SpeechGenerator] that no more text will
	// be sent. After EndOfText is called, the [SpeechGenerator] will Close after
	// all the speech has been generated.
	//
	// EndOfText will error if Cancel or Close has been called.
	// Repeated calls to EndOfText are ignored.
	EndOfText() error
	// Cancel immediately cancels further speech generation. It also closes
	// the [SpeechGenerator].
	//
	// This will error if Close has been called.
	// Repeated calls to Cancel are ignored.
	Cancel() error
	// Close immediately closes the [SpeechGenerator]. It is guaranteed that no
	// more speech will be generated after this call.
	//
	// Repeated calls to Close are ignored.
	Close() error
}

type SpeechEndedReport struct{}
