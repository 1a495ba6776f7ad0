package orchestration

import (
	"bytes"
	"testing"
	"time"

	"github.com/korvid-ai/korvid-core/core/audio"
)

// testEncoding is linear16 at 10Hz: 20 bytes per second, so 10-byte chunks
// are half a second each.
func testEncoding() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: 10, Format: audio.EncodingLinear16}
}

func TestAudioYieldsChunksAndMarksInOrder(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	b.AddAudio([]byte{1, 2})
	b.Mark("one.")
	b.AddAudio([]byte{3, 4})
	b.Mark("two.")
	b.AllAudioLoaded()

	var sequence []audioOrMark
	done := make(chan struct{})
	go func() {
		defer close(done)
		for item := range b.Audio {
			sequence = append(sequence, item)
			if item.Type == audioOrMarkMark {
				// The sink confirms each mark as soon as it is handed over.
				b.ConfirmMark(item.Mark)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the pull loop to finish")
	}

	if len(sequence) != 4 {
		t.Fatalf("expected 4 yielded items, got %d", len(sequence))
	}
	wantTypes := []audioOrMarkType{audioOrMarkAudio, audioOrMarkMark, audioOrMarkAudio, audioOrMarkMark}
	for i, want := range wantTypes {
		if sequence[i].Type != want {
			t.Fatalf("expected item %d to be %s, got %s", i, want, sequence[i].Type)
		}
	}
	if !bytes.Equal(sequence[0].Audio, []byte{1, 2}) || !bytes.Equal(sequence[2].Audio, []byte{3, 4}) {
		t.Fatalf("unexpected chunk contents %v and %v", sequence[0].Audio, sequence[2].Audio)
	}

	if spoken := b.SpokenText(); spoken != "one.two." {
		t.Fatalf("expected full spoken text after confirmations, got %q", spoken)
	}
}

func TestAudioEndsImmediatelyWhenStopped(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	b.AddAudio([]byte{1, 2})
	b.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range b.Audio {
			t.Errorf("expected no items from a stopped buffer")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the pull loop to finish")
	}
}

func TestSpokenTextIsConfirmedPrefixOnly(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	b.AddAudio([]byte{1, 2})
	b.Mark("hello ")
	b.AddAudio([]byte{3, 4})
	b.Mark("world.")

	b.mu.Lock()
	first := b.marks[0].ID
	b.marks[0].broadcasted = true
	b.marks[1].broadcasted = true
	b.mu.Unlock()

	b.ConfirmMark(first)

	if spoken := b.SpokenText(); spoken != "hello " {
		t.Fatalf("expected only the confirmed prefix, got %q", spoken)
	}
}

func TestConfirmMarkIgnoresUnbroadcastedMarks(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	b.AddAudio([]byte{1, 2})
	b.Mark("never handed over")

	b.mu.Lock()
	id := b.marks[0].ID
	b.mu.Unlock()

	b.ConfirmMark(id)

	if spoken := b.SpokenText(); spoken != "" {
		t.Fatalf("expected no spoken text for an unbroadcasted mark, got %q", spoken)
	}
}

func TestPauseRewindsToEstimatedPlaybackPosition(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	for range 4 {
		b.AddAudio(make([]byte, 10)) // half a second each
	}

	b.mu.Lock()
	b.internalPlayhead = 4
	b.externalPlayhead = 0
	b.playbackResumedAt = time.Now().Add(-1100 * time.Millisecond)
	b.mu.Unlock()

	b.Pause()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.paused {
		t.Fatalf("expected buffer to be paused")
	}
	// 1.1s at 20 bytes per second is 22 bytes, i.e. two full chunks.
	if b.externalPlayhead != 2 || b.internalPlayhead != 2 {
		t.Fatalf("expected playheads rewound to 2, got external %d internal %d", b.externalPlayhead, b.internalPlayhead)
	}
}

func TestPauseRebroadcastsMarksPastTheRewoundPlayhead(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	b.AddAudio(make([]byte, 10))
	b.AddAudio(make([]byte, 10))
	b.Mark("unheard tail")

	b.mu.Lock()
	b.internalPlayhead = 2
	b.externalPlayhead = 0
	b.marks[0].broadcasted = true
	b.playbackResumedAt = time.Now().Add(-100 * time.Millisecond)
	b.mu.Unlock()

	b.Pause()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.marks[0].broadcasted {
		t.Fatalf("expected the mark past the rewound playhead to be rebroadcast on resume")
	}
}

func TestResumeUnblocksThePullLoop(t *testing.T) {
	b := newAudioBuffer(testEncoding())
	b.AddAudio([]byte{1, 2})

	b.mu.Lock()
	b.paused = true
	b.mu.Unlock()

	received := make(chan []byte, 1)
	go func() {
		for item := range b.Audio {
			if item.Type == audioOrMarkAudio {
				received <- item.Audio
				b.Stop()
			}
		}
	}()

	select {
	case <-received:
		t.Fatalf("expected no chunks while paused")
	case <-time.After(50 * time.Millisecond):
	}

	b.Resume()

	select {
	case chunk := <-received:
		if !bytes.Equal(chunk, []byte{1, 2}) {
			t.Fatalf("unexpected chunk %v", chunk)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the resumed chunk")
	}
}
