package orchestration

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/korvid-ai/korvid-core/core/audio"
)

// audioInput is the facade over an optional capture client. Frames flow
// through onFrame on the capture device's own goroutine; the facade only
// gates whether they are forwarded, it never buffers them.
type audioInput struct {
	// base stores the configured input client used for streaming audio.
	base AudioInput
	// captureControls is set when the input client supports stopping capture
	// without closing the device.
	captureControls AudioInputWithCaptureControls

	// connected reports whether a concrete input client is currently configured.
	connected atomic.Bool
	// isCapturing reports whether the input client is currently streaming frames.
	isCapturing atomic.Bool
	// shouldForward gates frame forwarding without touching the device. The
	// recording control tool flips this so muting is instant even on clients
	// that cannot stop capture.
	shouldForward atomic.Bool

	// onFrame is called for every captured frame that passes the gate
	onFrame func(frame audio.Frame)
}

func newAudioInput(client AudioInput, onFrame func(frame audio.Frame)) *audioInput {
	if onFrame == nil {
		onFrame = func(audio.Frame) {}
	}

	audioInput := audioInput{onFrame: onFrame}
	audioInput.shouldForward.Store(true)
	audioInput.set(client)
	return &audioInput
}

func (a *audioInput) set(client AudioInput) {
	if a == nil {
		return
	}

	a.base = client
	a.captureControls = nil
	a.connected.Store(false)
	a.isCapturing.Store(false)

	if client == nil {
		return
	}

	a.connected.Store(true)
	if controls, ok := client.(AudioInputWithCaptureControls); ok {
		a.captureControls = controls
	}
}

func (a *audioInput) isConfigured() bool { return a != nil && a.connected.Load() }
func (a *audioInput) IsCapturing() bool  { return a != nil && a.isCapturing.Load() }
func (a *audioInput) IsForwarding() bool { return a == nil || a.shouldForward.Load() }

// EnableForwarding resumes passing captured frames downstream.
func (a *audioInput) EnableForwarding() {
	if a != nil {
		a.shouldForward.Store(true)
	}
}

// DisableForwarding drops captured frames without stopping the device, so
// re-enabling does not pay a device restart.
func (a *audioInput) DisableForwarding() {
	if a != nil {
		a.shouldForward.Store(false)
	}
}

func (a *audioInput) Start(ctx context.Context) error {
	if !a.isConfigured() {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(false, true) {
		return nil
	}

	if err := a.base.Stream(ctx, a.handleFrame); err != nil {
		a.isCapturing.Store(false)
		return err
	}

	return nil
}

func (a *audioInput) StopCapture() error {
	if a == nil || a.captureControls == nil {
		return nil
	}

	if err := a.captureControls.StopCapture(); err != nil {
		return err
	}

	a.isCapturing.Store(false)
	return nil
}

func (a *audioInput) Close() error {
	var errs error
	if a != nil && a.base != nil && a.isConfigured() {
		if a.captureControls != nil {
			if err := a.captureControls.StopCapture(); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		a.base.Close()
		a.connected.Store(false)
	}
	if a != nil {
		a.isCapturing.Store(false)
	}

	return errs
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.base == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}

func (a *audioInput) handleFrame(frame audio.Frame) {
	if !a.IsForwarding() {
		return
	}

	a.onFrame(frame)
}
