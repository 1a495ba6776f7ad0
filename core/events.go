package orchestration

import (
	"time"

	"github.com/korvid-ai/korvid-core/core/events"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

// respondToEvent routes events by urgency. Barge-ins and cancellations act
// on the live turn immediately; turn triggers go through the queue so only
// one assistant turn is ever in flight.
func (o *Orchestrator) respondToEvent(event events.Event) {
	switch t := event.(type) {
	case events.BargeIn:
		o.emit(t)
		o.handleBargeIn(t)
	case events.TurnCancelled:
		o.emit(t)
		o.cancelActiveTurn()
	case events.EndOfTurn:
		o.emit(t)
		o.enqueue(t)
	case events.UserPrompt:
		o.emit(t)
		o.enqueue(t)
	case events.Greeting:
		o.emit(t)
		o.enqueue(t)
	default:
		o.emit(event)
	}
}

// onTurnDecision receives the turn detector's decisions. It runs on timer
// and transcription goroutines, so it only dispatches.
func (o *Orchestrator) onTurnDecision(decision Decision, event events.Event) {
	switch decision {
	case DecisionEndOfTurn:
		o.respondToEvent(event)
	case DecisionBargeIn:
		o.respondToEvent(event)
	}
}

// handleBargeIn reacts to user speech over assistant playback.
//
// Energy-based detections are treated as provisional: playback pauses and a
// timer waits for transcription to confirm real speech. Detections backed by
// words (hard interrupt words, long-enough transcripts) confirm immediately.
func (o *Orchestrator) handleBargeIn(event events.BargeIn) {
	o.interruptionMu.Lock()
	defer o.interruptionMu.Unlock()

	turn := o.conversation.ActiveTurn()
	if turn == nil || turn.IsCancelled() {
		return
	}

	switch event.Source {
	case events.BargeInSourceEnergy:
		if o.state.Current() == StateInterrupted {
			return
		}
		if !o.state.TransitionFrom(StateInterrupted, StateSpeaking, StateThinking) {
			return
		}

		turn.Pause()
		o.armFalseInterruptionTimerLocked()
	default:
		o.confirmInterruptionLocked(turn)
	}
}

// confirmInterruptionIfPaused promotes a provisional interruption once the
// paused turn's transcript confirms the user really is speaking over it.
func (o *Orchestrator) confirmInterruptionIfPaused(transcript speechtotext.Transcript) {
	o.interruptionMu.Lock()
	defer o.interruptionMu.Unlock()

	if o.state.Current() != StateInterrupted {
		return
	}

	if !o.detector.ConfirmsInterruption(transcript) {
		return
	}

	turn := o.conversation.ActiveTurn()
	if turn == nil {
		return
	}

	o.confirmInterruptionLocked(turn)
}

// confirmInterruptionLocked commits to the interruption: the generation is
// bumped so in-flight tool results go stale, the turn is cancelled, and the
// session returns to listening. Callers hold interruptionMu.
func (o *Orchestrator) confirmInterruptionLocked(turn *activeTurn) {
	o.clearFalseInterruptionTimerLocked()

	interruptionsCounter.Add(o.baseContext, 1)
	o.generations.Bump()

	turn.MarkInterrupted()
	turn.Cancel()
	o.audioOutput.Clear()
	o.detector.SetAssistantSpeaking(false)
	o.state.TransitionTo(StateListening)
}

// armFalseInterruptionTimerLocked schedules playback to resume if no
// transcript confirms the provisional interruption in time.
func (o *Orchestrator) armFalseInterruptionTimerLocked() {
	o.clearFalseInterruptionTimerLocked()
	o.falseInterruptionTimer = time.AfterFunc(o.config.TurnDetector.FalseInterruptionTimeout, o.resumeAfterFalseInterruption)
}

func (o *Orchestrator) resumeAfterFalseInterruption() {
	o.interruptionMu.Lock()
	defer o.interruptionMu.Unlock()

	o.falseInterruptionTimer = nil
	if o.state.Current() != StateInterrupted {
		return
	}

	turn := o.conversation.ActiveTurn()
	if turn == nil || turn.IsCancelled() {
		o.state.TransitionTo(StateListening)
		return
	}

	// The pause turned out to be noise or backchannel: rewind playback to
	// the last confirmed point and keep talking.
	turn.Resume()
	o.detector.SetAssistantSpeaking(true)
	o.state.TransitionFrom(StateSpeaking, StateInterrupted)
	resumedAfterFalseCounter.Add(o.baseContext, 1)
	o.emit(events.NewTurnResumed())
}

func (o *Orchestrator) clearFalseInterruptionTimer() {
	o.interruptionMu.Lock()
	defer o.interruptionMu.Unlock()
	o.clearFalseInterruptionTimerLocked()
}

func (o *Orchestrator) clearFalseInterruptionTimerLocked() {
	if o.falseInterruptionTimer != nil {
		o.falseInterruptionTimer.Stop()
		o.falseInterruptionTimer = nil
	}
}

// cancelActiveTurn discards the in-progress turn without treating it as a
// user interruption.
func (o *Orchestrator) cancelActiveTurn() {
	o.interruptionMu.Lock()
	defer o.interruptionMu.Unlock()

	o.clearFalseInterruptionTimerLocked()

	turn := o.conversation.ActiveTurn()
	if turn == nil {
		return
	}

	o.generations.Bump()
	turn.Cancel()
	o.audioOutput.Clear()
	o.detector.SetAssistantSpeaking(false)
	o.state.TransitionFrom(StateListening, StateThinking, StateSpeaking, StateInterrupted)
}
