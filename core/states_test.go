package orchestration

import (
	"testing"

	"github.com/korvid-ai/korvid-core/core/events"
)

func TestStateMachineAllowsConfiguredTransitions(t *testing.T) {
	tests := []struct {
		from SessionState
		to   SessionState
	}{
		{StateIdle, StateListening},
		{StateListening, StateThinking},
		{StateThinking, StateSpeaking},
		{StateThinking, StateListening},
		{StateThinking, StateInterrupted},
		{StateSpeaking, StateListening},
		{StateSpeaking, StateInterrupted},
		{StateInterrupted, StateListening},
		{StateInterrupted, StateSpeaking},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+" to "+tt.to.String(), func(t *testing.T) {
			m := newSessionStateMachine(nil)
			m.state = tt.from

			if !m.TransitionTo(tt.to) {
				t.Fatalf("expected transition %s -> %s to be allowed", tt.from, tt.to)
			}
			if m.Current() != tt.to {
				t.Fatalf("expected state %s, got %s", tt.to, m.Current())
			}
		})
	}
}

func TestStateMachineRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		from SessionState
		to   SessionState
	}{
		{StateIdle, StateThinking},
		{StateIdle, StateSpeaking},
		{StateListening, StateSpeaking},
		{StateListening, StateInterrupted},
		{StateSpeaking, StateThinking},
		{StateInterrupted, StateThinking},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+" to "+tt.to.String(), func(t *testing.T) {
			m := newSessionStateMachine(nil)
			m.state = tt.from

			if m.TransitionTo(tt.to) {
				t.Fatalf("expected transition %s -> %s to be rejected", tt.from, tt.to)
			}
			if m.Current() != tt.from {
				t.Fatalf("expected state to stay %s, got %s", tt.from, m.Current())
			}
		})
	}
}

func TestStateMachineClosedIsTerminal(t *testing.T) {
	m := newSessionStateMachine(nil)
	if !m.TransitionTo(StateClosed) {
		t.Fatalf("expected transition into closed to always be allowed")
	}

	for _, target := range []SessionState{StateIdle, StateListening, StateThinking, StateSpeaking, StateInterrupted} {
		if m.TransitionTo(target) {
			t.Fatalf("expected no transition out of closed, but %s was allowed", target)
		}
	}
	if m.Current() != StateClosed {
		t.Fatalf("expected state to remain closed, got %s", m.Current())
	}
}

func TestStateMachineClosedReachableFromEveryState(t *testing.T) {
	for _, from := range []SessionState{StateIdle, StateListening, StateThinking, StateSpeaking, StateInterrupted} {
		m := newSessionStateMachine(nil)
		m.state = from

		if !m.TransitionTo(StateClosed) {
			t.Fatalf("expected close to be allowed from %s", from)
		}
	}
}

func TestStateMachineSelfTransitionIsNoOp(t *testing.T) {
	changes := 0
	m := newSessionStateMachine(func(events.StateChanged) { changes++ })

	if m.TransitionTo(StateIdle) {
		t.Fatalf("expected self transition to report false")
	}
	if changes != 0 {
		t.Fatalf("expected no state-changed events for a self transition, got %d", changes)
	}
}

func TestStateMachineTransitionFromRequiresMatchingState(t *testing.T) {
	m := newSessionStateMachine(nil)
	m.state = StateThinking

	if m.TransitionFrom(StateListening, StateSpeaking, StateInterrupted) {
		t.Fatalf("expected transition to be rejected when current state is not listed")
	}
	if !m.TransitionFrom(StateListening, StateThinking) {
		t.Fatalf("expected transition to be allowed when current state is listed")
	}
	if m.Current() != StateListening {
		t.Fatalf("expected state listening, got %s", m.Current())
	}
}

func TestStateMachineReportsTransitionsThroughCallback(t *testing.T) {
	var observed []events.StateChanged
	m := newSessionStateMachine(func(e events.StateChanged) { observed = append(observed, e) })

	m.TransitionTo(StateListening)
	m.TransitionTo(StateThinking)

	if len(observed) != 2 {
		t.Fatalf("expected 2 state-changed events, got %d", len(observed))
	}
	if observed[0].From != "idle" || observed[0].To != "listening" {
		t.Fatalf("unexpected first transition: %s -> %s", observed[0].From, observed[0].To)
	}
	if observed[1].From != "listening" || observed[1].To != "thinking" {
		t.Fatalf("unexpected second transition: %s -> %s", observed[1].From, observed[1].To)
	}
}
