package orchestration

import (
	"context"

	"github.com/korvid-ai/korvid-core/core/llms"
)

type recordingControlParams struct {
	IsRecording bool `json:"is_recording" jsonschema_description:"Whether to record or not"`
}

type speakingControlParams struct {
	IsSpeaking bool `json:"is_speaking" jsonschema_description:"Whether to speak or not"`
}

func orchestrationTools(o *Orchestrator) []llms.Tool {
	return []llms.Tool{
		llms.NewTool("recording_control", "Turn on or off sound recording, might be referred to as 'listening'",
			func(_ context.Context, parameters recordingControlParams) (string, error) {
				o.SetRecording(parameters.IsRecording)
				return "Success. Respond with a very short phrase", nil
			}),
		llms.NewTool("speaking_control", "Turn off agent's speaking ability. Might be referred to as 'muting'",
			func(_ context.Context, parameters speakingControlParams) (string, error) {
				o.SetSpeaking(parameters.IsSpeaking)
				return "Success. Respond with a very short phrase", nil
			}),
	}
}
