package orchestration

import (
	"strings"
	"sync"
	"time"

	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

// Decision is the outcome of one detector observation.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionEndOfTurn
	DecisionBargeIn
)

// TurnDetector decides when the user's turn has ended and when user speech
// should interrupt an in-progress assistant response.
//
// It observes two signals: input audio energy (per captured frame) and
// transcripts. End-of-turn is declared when silence outlasts the configured
// threshold after a final transcript; barge-in when speech energy is
// sustained, or a hard word or long-enough transcript arrives, while the
// assistant is speaking. When both could fire at once, barge-in wins.
type TurnDetector struct {
	mu  sync.Mutex
	cfg TurnDetectorConfig

	softWords map[string]struct{}
	hardWords []string

	// clock and startTimer are injectable so decisions can be replayed
	// deterministically in tests.
	clock      func() time.Time
	startTimer func(d time.Duration, f func()) *time.Timer

	onDecision func(decision Decision, event events.Event)

	assistantSpeaking bool

	turnOpen     bool
	turnStarted  time.Time
	hasFinal     bool
	silenceTimer *time.Timer
	maxTurnTimer *time.Timer

	energyAboveSince *time.Time
	bargeInPending   bool
}

func NewTurnDetector(cfg TurnDetectorConfig, onDecision func(Decision, events.Event)) *TurnDetector {
	if onDecision == nil {
		onDecision = func(Decision, events.Event) {}
	}

	hardWords := make([]string, 0, len(cfg.HardWords))
	for _, w := range cfg.HardWords {
		if normalized := normalizeWord(w); normalized != "" {
			hardWords = append(hardWords, normalized)
		}
	}

	return &TurnDetector{
		cfg:        cfg,
		softWords:  wordSet(cfg.SoftWords),
		hardWords:  hardWords,
		clock:      time.Now,
		startTimer: time.AfterFunc,
		onDecision: onDecision,
	}
}

// SetAssistantSpeaking flips the detector between end-of-turn mode and
// barge-in mode. The debounce state is reset on every flip.
func (d *TurnDetector) SetAssistantSpeaking(speaking bool) {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.assistantSpeaking = speaking
	d.energyAboveSince = nil
	d.bargeInPending = false
	d.mu.Unlock()
}

// SpeechStarted opens a user turn. Repeated calls while a turn is open only
// cancel the pending silence decision.
func (d *TurnDetector) SpeechStarted() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelSilenceTimerLocked()
	if d.turnOpen {
		return
	}

	d.turnOpen = true
	d.turnStarted = d.clock()
	d.hasFinal = false
	if d.cfg.MaxTurnDuration > 0 {
		d.maxTurnTimer = d.startTimer(d.cfg.MaxTurnDuration, d.forceEndOfTurn)
	}
}

// SpeechEnded arms the silence countdown that declares end-of-turn.
func (d *TurnDetector) SpeechEnded() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.turnOpen || d.assistantSpeaking {
		return
	}
	d.armSilenceTimerLocked()
}

// ObserveActivity feeds one input frame's energy reading. While the
// assistant speaks, sustained energy above the threshold produces a barge-in;
// otherwise activity only postpones the end-of-turn decision.
func (d *TurnDetector) ObserveActivity(energy float64, at time.Time) {
	if d == nil {
		return
	}

	d.mu.Lock()

	if !d.assistantSpeaking {
		d.energyAboveSince = nil
		if energy >= d.cfg.BargeInEnergyThreshold && d.turnOpen {
			d.cancelSilenceTimerLocked()
		}
		d.mu.Unlock()
		return
	}

	if energy < d.cfg.BargeInEnergyThreshold {
		d.energyAboveSince = nil
		d.mu.Unlock()
		return
	}

	if d.energyAboveSince == nil {
		started := at
		d.energyAboveSince = &started
		d.mu.Unlock()
		return
	}

	if at.Sub(*d.energyAboveSince) < d.cfg.BargeInMinDuration || d.bargeInPending {
		d.mu.Unlock()
		return
	}

	d.bargeInPending = true
	d.cancelSilenceTimerLocked()
	d.mu.Unlock()

	d.onDecision(DecisionBargeIn, events.NewBargeIn(events.BargeInSourceEnergy))
}

// ObserveTranscript feeds one transcription result through the decision
// logic.
func (d *TurnDetector) ObserveTranscript(transcript speechtotext.Transcript) {
	if d == nil {
		return
	}

	d.mu.Lock()
	speaking := d.assistantSpeaking
	d.mu.Unlock()

	if speaking {
		d.observeTranscriptWhileSpeaking(transcript)
		return
	}

	if !transcript.IsFinal {
		d.mu.Lock()
		d.cancelSilenceTimerLocked()
		d.mu.Unlock()
		return
	}

	d.mu.Lock()
	if !d.turnOpen {
		// Finals can arrive without a preceding speech-started signal, e.g.
		// when the activity events are not configured.
		d.turnOpen = true
		d.turnStarted = d.clock()
		if d.cfg.MaxTurnDuration > 0 {
			d.maxTurnTimer = d.startTimer(d.cfg.MaxTurnDuration, d.forceEndOfTurn)
		}
	}
	d.hasFinal = true
	d.armSilenceTimerLocked()
	d.mu.Unlock()
}

// observeTranscriptWhileSpeaking arbitrates user speech overlapping assistant
// speech: hard words interrupt immediately, backchannel is discarded, and
// anything long enough counts as a real interruption.
func (d *TurnDetector) observeTranscriptWhileSpeaking(transcript speechtotext.Transcript) {
	if d.containsHardWord(transcript.Text) {
		d.mu.Lock()
		alreadyPending := d.bargeInPending
		d.bargeInPending = true
		d.mu.Unlock()
		if !alreadyPending {
			d.onDecision(DecisionBargeIn, events.NewBargeIn(events.BargeInSourceHardWord))
		}
		return
	}

	if !transcript.IsFinal {
		return
	}

	words := strings.Fields(transcript.Text)
	if d.allSoftWords(words) {
		return
	}
	if len(words) < d.cfg.MinInterruptionWords {
		return
	}

	d.mu.Lock()
	alreadyPending := d.bargeInPending
	d.bargeInPending = true
	d.mu.Unlock()
	if !alreadyPending {
		d.onDecision(DecisionBargeIn, events.NewBargeIn(events.BargeInSourceTranscript))
	}
}

// ConfirmsInterruption reports whether a transcript received while playback
// is paused confirms the pending interruption as real.
func (d *TurnDetector) ConfirmsInterruption(transcript speechtotext.Transcript) bool {
	if d == nil {
		return false
	}

	if d.containsHardWord(transcript.Text) {
		return true
	}
	if !transcript.IsFinal {
		return false
	}

	words := strings.Fields(transcript.Text)
	if d.allSoftWords(words) {
		return false
	}
	return len(words) >= d.cfg.MinInterruptionWords
}

func (d *TurnDetector) containsHardWord(text string) bool {
	normalized := " " + strings.ToLower(text) + " "
	for _, hard := range d.hardWords {
		if strings.Contains(normalized, " "+hard+" ") ||
			strings.Contains(normalized, " "+hard+", ") ||
			strings.Contains(normalized, " "+hard+". ") ||
			strings.Contains(normalized, " "+hard+"! ") {
			return true
		}
	}
	return false
}

func (d *TurnDetector) allSoftWords(words []string) bool {
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if _, ok := d.softWords[normalizeWord(w)]; !ok {
			return false
		}
	}
	return true
}

func (d *TurnDetector) armSilenceTimerLocked() {
	if d.cfg.RequireFinalTranscript && !d.hasFinal {
		return
	}

	d.cancelSilenceTimerLocked()
	d.silenceTimer = d.startTimer(d.cfg.SilenceThreshold, d.silenceElapsed)
}

func (d *TurnDetector) cancelSilenceTimerLocked() {
	if d.silenceTimer != nil {
		d.silenceTimer.Stop()
		d.silenceTimer = nil
	}
}

func (d *TurnDetector) silenceElapsed() {
	d.mu.Lock()
	// A barge-in decided in the meantime takes precedence over the queued
	// silence decision.
	if !d.turnOpen || d.assistantSpeaking || d.bargeInPending {
		d.mu.Unlock()
		return
	}
	d.closeTurnLocked()
	d.mu.Unlock()

	d.onDecision(DecisionEndOfTurn, events.NewEndOfTurn(false))
}

func (d *TurnDetector) forceEndOfTurn() {
	d.mu.Lock()
	if !d.turnOpen || d.bargeInPending {
		d.mu.Unlock()
		return
	}
	d.closeTurnLocked()
	d.mu.Unlock()

	d.onDecision(DecisionEndOfTurn, events.NewEndOfTurn(true))
}

func (d *TurnDetector) closeTurnLocked() {
	d.turnOpen = false
	d.hasFinal = false
	d.cancelSilenceTimerLocked()
	if d.maxTurnTimer != nil {
		d.maxTurnTimer.Stop()
		d.maxTurnTimer = nil
	}
}

// Reset clears turn and debounce state, e.g. after a turn was consumed or an
// interruption was resolved.
func (d *TurnDetector) Reset() {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.closeTurnLocked()
	d.energyAboveSince = nil
	d.bargeInPending = false
	d.mu.Unlock()
}
