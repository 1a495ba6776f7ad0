package orchestration

import (
	"strings"
	"sync"
)

// textBuffer carries streamed response text from the model worker to the
// speech worker. Chunks is a pull loop that blocks until more text arrives,
// the producer marks the text complete, or the buffer is cleared.
type textBuffer struct {
	mu             sync.Mutex
	chunks         []string
	chunksConsumed int
	textComplete   bool
	cleared        bool

	updateSignal chan struct{}
}

func newTextBuffer() *textBuffer {
	return &textBuffer{
		updateSignal: make(chan struct{}, 1),
	}
}

func (b *textBuffer) AddChunk(chunk string) {
	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *textBuffer) TextComplete() {
	b.mu.Lock()
	b.textComplete = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *textBuffer) Chunks(yield func(string) bool) {
	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return
		}

		if b.chunksConsumed < len(b.chunks) {
			chunk := b.chunks[b.chunksConsumed]
			b.chunksConsumed++
			b.mu.Unlock()
			if !yield(chunk) {
				return
			}
			continue
		}

		if b.textComplete {
			b.mu.Unlock()
			return
		}

		b.mu.Unlock()
		<-b.updateSignal
	}
}

func (b *textBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return strings.Join(b.chunks, "")
}

func (b *textBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *textBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}
