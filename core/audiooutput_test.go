package orchestration

import (
	"testing"

	"github.com/korvid-ai/korvid-core/core/audio"
)

func TestAudioOutputWithoutClientConfirmsMarksImmediately(t *testing.T) {
	output := newAudioOutput(nil)

	confirmed := ""
	output.Mark("m1", func(mark string) { confirmed = mark })

	if confirmed != "m1" {
		t.Fatalf("expected the mark to be confirmed immediately, got %q", confirmed)
	}
	if encodingInfo := output.EncodingInfo(); encodingInfo != audio.GetDefaultEncodingInfo() {
		t.Fatalf("expected the default encoding, got %+v", encodingInfo)
	}
}

func TestAudioOutputTypedNilClientIsUnconfigured(t *testing.T) {
	var client *confirmingAudioOutput
	output := newAudioOutput(client)

	if output.isConfigured() {
		t.Fatalf("expected a typed-nil client to count as unconfigured")
	}
}

func TestAudioOutputSnapshotKeepsClientAcrossReconfiguration(t *testing.T) {
	client := &confirmingAudioOutput{}
	output := newAudioOutput(client)

	snapshot := output.Snapshot()
	output.set(nil)

	snapshot.SendAudio([]byte{1, 2})
	if client.sentChunks() != 1 {
		t.Fatalf("expected the snapshot to keep routing to the original client")
	}

	output.SendAudio([]byte{3, 4})
	if client.sentChunks() != 1 {
		t.Fatalf("expected the reconfigured facade to drop audio")
	}
}

func TestAudioOutputForwardsToConfiguredClient(t *testing.T) {
	client := &confirmingAudioOutput{}
	output := newAudioOutput(client)

	output.SendAudio([]byte{1})
	output.Clear()

	if client.sentChunks() != 1 {
		t.Fatalf("expected one sent chunk, got %d", client.sentChunks())
	}
	if client.clearCalls() != 1 {
		t.Fatalf("expected one clear call, got %d", client.clearCalls())
	}
}
