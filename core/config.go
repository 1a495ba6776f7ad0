package orchestration

import (
	"strings"
	"time"
)

// InterruptionPolicy decides what happens to the partially-spoken assistant
// turn when a barge-in is confirmed.
type InterruptionPolicy int

const (
	// CommitSpokenPrefix commits the text that was confirmed audible before
	// the interruption as a partial assistant turn.
	CommitSpokenPrefix InterruptionPolicy = iota
	// DiscardUncommitted drops the interrupted assistant turn entirely.
	DiscardUncommitted
)

// TurnDetectorConfig tunes end-of-turn and barge-in decisions.
type TurnDetectorConfig struct {
	// SilenceThreshold is how long the user has to stay quiet after a final
	// transcript before the turn is declared over.
	SilenceThreshold time.Duration
	// RequireFinalTranscript gates end-of-turn on having received a final
	// transcript for the utterance. When false, silence alone ends the turn.
	RequireFinalTranscript bool
	// MaxTurnDuration forces an end-of-turn decision for unbounded user
	// turns. Zero disables the fallback.
	MaxTurnDuration time.Duration

	// BargeInEnergyThreshold is the normalized RMS energy above which input
	// audio counts as speech while the assistant is speaking.
	BargeInEnergyThreshold float64
	// BargeInMinDuration is how long energy has to stay above the threshold
	// before a barge-in fires. This debounces transient noise.
	BargeInMinDuration time.Duration

	// MinInterruptionWords is the minimum word count for a transcript to
	// confirm an interruption. Shorter transcripts are treated as noise or
	// backchannel.
	MinInterruptionWords int
	// SoftWords are backchannel words ("yeah", "ok") that never interrupt
	// the assistant. A transcript made up entirely of soft words is discarded
	// while the assistant speaks.
	SoftWords []string
	// HardWords force an immediate interruption regardless of debounce or
	// word-count gates.
	HardWords []string

	// FalseInterruptionTimeout is how long playback stays paused after an
	// energy barge-in waiting for a confirming transcript. Without one,
	// playback resumes. Zero disables the resume path.
	FalseInterruptionTimeout time.Duration
}

// Config is the static session configuration consumed at startup.
type Config struct {
	TurnDetector       TurnDetectorConfig
	InterruptionPolicy InterruptionPolicy

	// Instructions are the system instructions handed to the model on every
	// generation.
	Instructions string

	// Greeting, when set, is spoken verbatim when the session starts, before
	// any user input.
	Greeting string

	// ProviderRetryAttempts bounds reconnect attempts after a provider
	// failure before the session escalates to Closed.
	ProviderRetryAttempts int
	// ProviderRetryBackoff is the initial backoff between reconnect attempts;
	// it doubles per attempt.
	ProviderRetryBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		TurnDetector: TurnDetectorConfig{
			SilenceThreshold:         700 * time.Millisecond,
			RequireFinalTranscript:   true,
			MaxTurnDuration:          30 * time.Second,
			BargeInEnergyThreshold:   0.06,
			BargeInMinDuration:       250 * time.Millisecond,
			MinInterruptionWords:     2,
			SoftWords:                []string{"yeah", "yes", "ok", "okay", "mm", "mhm", "uh-huh", "right", "sure"},
			HardWords:                []string{"stop", "wait", "cancel", "hold on"},
			FalseInterruptionTimeout: 2 * time.Second,
		},
		InterruptionPolicy:    CommitSpokenPrefix,
		ProviderRetryAttempts: 3,
		ProviderRetryBackoff:  500 * time.Millisecond,
	}
}

// Validate fails fast on configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.TurnDetector.SilenceThreshold <= 0 {
		return &ConfigError{Field: "TurnDetector.SilenceThreshold", Reason: "must be positive"}
	}
	if c.TurnDetector.MaxTurnDuration < 0 {
		return &ConfigError{Field: "TurnDetector.MaxTurnDuration", Reason: "must not be negative"}
	}
	if c.TurnDetector.MaxTurnDuration > 0 && c.TurnDetector.MaxTurnDuration <= c.TurnDetector.SilenceThreshold {
		return &ConfigError{Field: "TurnDetector.MaxTurnDuration", Reason: "must exceed the silence threshold"}
	}
	if c.TurnDetector.BargeInEnergyThreshold < 0 || c.TurnDetector.BargeInEnergyThreshold > 1 {
		return &ConfigError{Field: "TurnDetector.BargeInEnergyThreshold", Reason: "must be within [0, 1]"}
	}
	if c.TurnDetector.BargeInMinDuration < 0 {
		return &ConfigError{Field: "TurnDetector.BargeInMinDuration", Reason: "must not be negative"}
	}
	if c.TurnDetector.MinInterruptionWords < 0 {
		return &ConfigError{Field: "TurnDetector.MinInterruptionWords", Reason: "must not be negative"}
	}
	if c.TurnDetector.FalseInterruptionTimeout < 0 {
		return &ConfigError{Field: "TurnDetector.FalseInterruptionTimeout", Reason: "must not be negative"}
	}
	if c.InterruptionPolicy != CommitSpokenPrefix && c.InterruptionPolicy != DiscardUncommitted {
		return &ConfigError{Field: "InterruptionPolicy", Reason: "unknown policy"}
	}
	if c.ProviderRetryAttempts < 0 {
		return &ConfigError{Field: "ProviderRetryAttempts", Reason: "must not be negative"}
	}
	if c.ProviderRetryBackoff < 0 {
		return &ConfigError{Field: "ProviderRetryBackoff", Reason: "must not be negative"}
	}
	return nil
}

// normalizeWord lowercases and strips the punctuation transcription engines
// like to attach to short utterances.
func normalizeWord(word string) string {
	return strings.Trim(strings.ToLower(word), ".,!?;: ")
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if normalized := normalizeWord(w); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}
