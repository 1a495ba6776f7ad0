package orchestration

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/korvid-ai/korvid-core/core/audio"
)

// audioBuffer sits between speech synthesis and the output sink. It buffers
// synthesized chunks, interleaves transcript marks with them, and tracks two
// playheads: internal (what has been handed to the sink) and external (what
// the sink has confirmed audible via mark confirmations).
//
// The external playhead is what makes interruption policies possible: pausing
// rewinds the internal playhead onto the confirmed position plus elapsed wall
// time, and SpokenText reports the transcript prefix that was actually heard.
type audioBuffer struct {
	mu sync.Mutex

	encodingInfo audio.EncodingInfo

	audio          [][]byte
	allAudioLoaded bool

	internalPlayhead int
	externalPlayhead int

	playbackResumedAt time.Time

	marks []audioBufferMark

	stopped bool
	paused  bool

	updateSignal chan struct{}
}

type audioBufferMark struct {
	ID          string
	transcript  string
	position    int
	broadcasted bool
	confirmed   bool
}

func newAudioBuffer(encodingInfo audio.EncodingInfo) *audioBuffer {
	return &audioBuffer{
		encodingInfo: encodingInfo,
		updateSignal: make(chan struct{}, 1),
	}
}

func (b *audioBuffer) AddAudio(audio []byte) {
	b.mu.Lock()
	b.audio = append(b.audio, audio)
	b.mu.Unlock()
	b.signalUpdate()
}

// Audio is a pull loop that yields buffered chunks and marks in order. It
// blocks while the buffer is paused or starved and returns once the buffer is
// stopped or everything loaded has been confirmed played.
func (b *audioBuffer) Audio(yield func(audioOrMark) bool) {
	firstStart := sync.Once{}
	for {
		for {
			if ok := b.waitIfPaused(); !ok {
				return
			}

			chunk, ok := b.consumeNextChunk()
			if !ok {
				break
			}

			firstStart.Do(func() {
				b.StartedPlaying()
			})

			if !yield(audioOrMark{Type: audioOrMarkAudio, Audio: chunk}) {
				return
			}
			if ok := b.broadcastMarks(yield); !ok {
				return
			}
		}
		if ok := b.waitForNextAudio(yield); !ok {
			return
		}
	}
}

func (b *audioBuffer) waitIfPaused() (ok bool) {
	for {
		b.mu.Lock()
		paused := b.paused
		stopped := b.stopped
		b.mu.Unlock()

		if stopped {
			return false
		}
		if !paused {
			return true
		}

		<-b.updateSignal
	}
}

func (b *audioBuffer) consumeNextChunk() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.audio) <= b.internalPlayhead {
		return nil, false
	}

	chunk := b.audio[b.internalPlayhead]
	b.internalPlayhead++
	return chunk, true
}

func (b *audioBuffer) broadcastMarks(yield func(audioOrMark) bool) (ok bool) {
	b.mu.Lock()
	marksToBroadcast := []string{}
	for i, mark := range b.marks {
		if mark.confirmed || mark.broadcasted {
			continue
		} else if mark.position > b.internalPlayhead {
			break
		}

		b.marks[i].broadcasted = true
		marksToBroadcast = append(marksToBroadcast, mark.ID)
	}
	b.mu.Unlock()

	for _, markID := range marksToBroadcast {
		if !yield(audioOrMark{Type: audioOrMarkMark, Mark: markID}) {
			return false
		}
	}

	return true
}

func (b *audioBuffer) waitForNextAudio(yield func(audioOrMark) bool) (ok bool) {
	for {
		b.mu.Lock()
		starved := len(b.audio) == b.internalPlayhead
		stopped := b.stopped
		done := b.playbackDoneLocked()
		b.mu.Unlock()

		if !starved {
			return !(stopped || done)
		}

		if stopped || done {
			return false
		}

		<-b.updateSignal
		// Marks can arrive after their audio has been fully handed off; keep
		// broadcasting so the confirmation loop is not starved.
		if ok := b.broadcastMarks(yield); !ok {
			return false
		}
	}
}

func (b *audioBuffer) playbackDoneLocked() bool {
	return b.allAudioLoaded && b.externalPlayhead == len(b.audio)
}

// Mark records a transcript mark at the current load position. The mark is
// yielded to the sink after the audio preceding it and, once the sink
// confirms it, the transcript up to the mark counts as spoken.
func (b *audioBuffer) Mark(transcript string) {
	b.mu.Lock()
	b.marks = append(b.marks, audioBufferMark{
		ID:         uuid.NewString(),
		transcript: transcript,
		position:   len(b.audio),
	})
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) ConfirmMark(id string) {
	b.mu.Lock()
	shouldSignal := false
	for i, mark := range b.marks {
		if mark.confirmed {
			continue
		} else if !mark.broadcasted {
			break
		}
		if mark.ID == id {
			b.marks[i].confirmed = true
			b.externalPlayhead = mark.position
			b.startedPlayingLocked()
			if b.playbackDoneLocked() {
				shouldSignal = true
			}
			break
		}
	}
	b.mu.Unlock()

	if shouldSignal {
		b.signalUpdate()
	}
}

// SpokenText returns the concatenated transcripts of all confirmed marks,
// i.e. the prefix of the response the user actually heard.
func (b *audioBuffer) SpokenText() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var spoken strings.Builder
	for _, mark := range b.marks {
		if !mark.confirmed {
			break
		}
		spoken.WriteString(mark.transcript)
	}
	return spoken.String()
}

func (b *audioBuffer) StartedPlaying() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startedPlayingLocked()
}

func (b *audioBuffer) startedPlayingLocked() {
	b.playbackResumedAt = time.Now()
}

func (b *audioBuffer) AllAudioLoaded() {
	b.mu.Lock()
	b.allAudioLoaded = true
	b.mu.Unlock()
	b.signalUpdate()
}

// Pause halts the pull loop and rewinds the internal playhead to the position
// playback is estimated to have actually reached, so a later Resume continues
// from where the listener stopped hearing audio.
func (b *audioBuffer) Pause() {
	b.mu.Lock()
	if b.playbackDoneLocked() || b.paused {
		b.mu.Unlock()
		return
	}

	b.paused = true
	b.rewindLocked()
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) rewindLocked() {
	playedDuration := time.Since(b.playbackResumedAt)
	bytesPlayed := b.encodingInfo.DurationToBytes(playedDuration)
	chunksPlayed := 0
	for _, chunk := range b.audio[b.externalPlayhead:] {
		bytesPlayed -= len(chunk)
		if bytesPlayed < 0 {
			break
		}
		chunksPlayed++
	}
	b.externalPlayhead += chunksPlayed
	b.internalPlayhead = b.externalPlayhead
	for i, mark := range b.marks {
		if mark.position > b.internalPlayhead && !mark.confirmed {
			b.marks[i].broadcasted = false
		}
	}
}

func (b *audioBuffer) Resume() {
	b.mu.Lock()
	if b.playbackDoneLocked() || !b.paused {
		b.mu.Unlock()
		return
	}

	b.paused = false
	b.startedPlayingLocked()
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) IsPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

func (b *audioBuffer) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}

type audioOrMarkType string

const (
	audioOrMarkAudio audioOrMarkType = "audio"
	audioOrMarkMark  audioOrMarkType = "mark"
)

type audioOrMark struct {
	Type  audioOrMarkType
	Audio []byte
	Mark  string
}
