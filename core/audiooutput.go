package orchestration

import (
	"reflect"

	"github.com/korvid-ai/korvid-core/core/audio"
)

// audioOutput is the facade over an optional playback client used by
// orchestration turns.
//
// A turn should use a Snapshot() so later runtime reconfiguration does not
// change behavior mid-turn.
//
// NOTE: methods do best-effort forwarding and swallow client errors because
// the pipeline treats playback as a non-fatal side effect.
type audioOutput struct {
	base AudioOutput
}

func newAudioOutput(client AudioOutput) *audioOutput {
	audioOutput := audioOutput{}
	audioOutput.set(client)
	return &audioOutput
}

// set replaces the configured output client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioOutput) set(client AudioOutput) {
	if a == nil {
		return
	}

	a.base = nil
	if isNilAudioOutput(client) {
		return
	}

	a.base = client
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.base != nil
}

// Snapshot returns a per-turn copy of the facade. The copy keeps the same
// underlying client while freezing routing for the lifetime of the turn.
func (a *audioOutput) Snapshot() *audioOutput {
	if a == nil {
		return a
	}

	return newAudioOutput(a.base)
}

func (a *audioOutput) SendAudio(audio []byte) {
	if a.isConfigured() {
		_ = a.base.SendAudio(audio)
	}
}

// Mark coordinates transcript marks with playback. Without output configured
// the callback is invoked immediately so turn state keeps progressing.
func (a *audioOutput) Mark(mark string, callback func(string)) {
	if a.isConfigured() {
		_ = a.base.Mark(mark, callback)
		return
	}

	callback(mark)
}

func (a *audioOutput) Clear() {
	if a.isConfigured() {
		a.base.ClearBuffer()
	}
}

func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}

// isNilAudioOutput detects nil and typed-nil interface values so set does not
// store unusable interface wrappers as configured clients.
func isNilAudioOutput(client AudioOutput) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
