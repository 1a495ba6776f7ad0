package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/korvid-ai/korvid-core/core/audio"
)

// Client is a blocking-IO alternative to the miniaudio client, useful on
// hosts where the miniaudio backend misbehaves.
type Client struct {
	bufferSize   int
	stream       *portaudio.Stream
	pendingAudio []byte
	seq          uint64

	in  []int16
	out []int16

	mu sync.Mutex
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

func (c *Client) Stream(ctx context.Context, onFrame func(frame audio.Frame)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := c.stream.Read(); err != nil {
					continue
				}

				audioBuffer := bytes.Buffer{}
				_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)

				c.mu.Lock()
				seq := c.seq
				c.seq++
				c.mu.Unlock()

				onFrame(audio.Frame{PCM: audioBuffer.Bytes(), Timestamp: time.Now(), Seq: seq})
			}
		}
	}()

	return nil
}

func (c *Client) Close() {
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

func (c *Client) SendAudio(audio []byte) error {
	bufferSize := c.bufferSize * 2

	c.mu.Lock()
	audio = append(c.pendingAudio, audio...)
	c.pendingAudio = nil
	c.mu.Unlock()

	for i := range len(audio)/bufferSize + 1 {
		if (i+1)*bufferSize > len(audio) {
			c.mu.Lock()
			c.pendingAudio = make([]byte, len(audio)-i*bufferSize)
			copy(c.pendingAudio, audio[i*bufferSize:])
			c.mu.Unlock()
			break
		}

		_ = binary.Read(bytes.NewBuffer(audio[i*bufferSize:(i+1)*bufferSize]), binary.LittleEndian, c.out)
		_ = c.stream.Write()
	}

	return nil
}

// Mark confirms immediately. Writes to the stream are blocking, so all audio
// sent before the mark has already been handed to the device.
func (c *Client) Mark(mark string, callback func(string)) error {
	go callback(mark)
	return nil
}

func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingAudio = make([]byte, 0)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
