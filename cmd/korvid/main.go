package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/korvid-ai/korvid-core/core"
	"github.com/korvid-ai/korvid-core/core/audio/miniaudio"
	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/llms/groq"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
	sttdeepgram "github.com/korvid-ai/korvid-core/core/speechtotext/deepgram"
	ttsdeepgram "github.com/korvid-ai/korvid-core/core/texttospeech/deepgram"
)

const instructions = `You are Korvid, a helpful voice assistant. Keep replies
short and conversational; they are spoken aloud. Use the get_weather tool when
asked about weather.`

const groqModel = "llama-3.3-70b-versatile"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	groqKey := os.Getenv("GROQ_API_KEY")
	if groqKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if os.Getenv("DEEPGRAM_API_KEY") == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required")
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	defer audioClient.Close()

	ttsClient, err := ttsdeepgram.NewTextToSpeechClient(ctx, ttsdeepgram.VoiceThalia)
	if err != nil {
		return fmt.Errorf("failed to initialize text-to-speech: %w", err)
	}

	config := orchestration.DefaultConfig()
	config.Instructions = instructions
	config.Greeting = "Hey, I'm Korvid. What can I do for you?"
	if words := os.Getenv("KORVID_IGNORE_WORDS"); words != "" {
		config.TurnDetector.SoftWords = splitWords(words)
	}
	if words := os.Getenv("KORVID_INTERRUPT_WORDS"); words != "" {
		config.TurnDetector.HardWords = splitWords(words)
	}

	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithConfig(config),
		orchestration.WithStreamingLLM(groq.NewClient(groqKey, groqModel)),
		orchestration.WithSpeechToTextClient(sttdeepgram.NewTranscriptionClient()),
		orchestration.WithTextToSpeechClient(ttsClient),
		orchestration.WithAudioInput(audioClient),
		orchestration.WithAudioOutput(audioClient),
		orchestration.WithTools(weatherTool()),
		orchestration.WithOrchestrationTools(),
	)

	program := tea.NewProgram(newModel(orchestrator), tea.WithAltScreen())

	controller := orchestration.NewSessionController(orchestrator)
	go func() {
		err := controller.Run(ctx,
			orchestration.WithInterimTranscriptCallback(func(transcript speechtotext.Transcript) {
				program.Send(interimMsg(transcript.Text))
			}),
			orchestration.WithTranscriptCallback(func(transcript speechtotext.Transcript) {
				program.Send(transcriptMsg(transcript.Text))
			}),
			orchestration.WithResponseCallback(func(response string) {
				program.Send(responseMsg(response))
			}),
			orchestration.WithResponseEndCallback(func() {
				program.Send(responseEndMsg{})
			}),
			orchestration.WithAudioEndedCallback(func(spokenText string) {
				program.Send(playbackEndedMsg(spokenText))
			}),
			orchestration.WithStateChangedCallback(func(change events.StateChanged) {
				program.Send(stateMsg(change.To))
			}),
		)
		if err != nil {
			program.Send(sessionEndedMsg{err: err})
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	cancel()
	return controller.Close()
}

func splitWords(csv string) []string {
	var words []string
	for _, word := range strings.Split(csv, ",") {
		if word = strings.TrimSpace(word); word != "" {
			words = append(words, word)
		}
	}
	return words
}
