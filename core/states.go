package orchestration

import (
	"sync"

	"github.com/korvid-ai/korvid-core/core/events"
)

// SessionState is the single authoritative state of a session. Only the
// orchestrator mutates it; everything else observes transitions through the
// state-changed event.
type SessionState int

const (
	StateIdle SessionState = iota
	StateListening
	StateThinking
	StateSpeaking
	StateInterrupted
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	case StateInterrupted:
		return "interrupted"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// validTransitions enumerates the allowed edges of the session state machine.
// Closed is reachable from every state and omitted here.
var validTransitions = map[SessionState][]SessionState{
	StateIdle:        {StateListening},
	StateListening:   {StateThinking},
	StateThinking:    {StateSpeaking, StateListening, StateInterrupted},
	StateSpeaking:    {StateListening, StateInterrupted},
	StateInterrupted: {StateListening, StateSpeaking},
}

type sessionStateMachine struct {
	mu    sync.Mutex
	state SessionState

	onChange func(event events.StateChanged)
}

func newSessionStateMachine(onChange func(events.StateChanged)) *sessionStateMachine {
	if onChange == nil {
		onChange = func(events.StateChanged) {}
	}
	return &sessionStateMachine{state: StateIdle, onChange: onChange}
}

func (m *sessionStateMachine) Current() SessionState {
	if m == nil {
		return StateIdle
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// TransitionTo moves the machine to the target state if the edge is valid.
// It reports whether the transition happened. Transitions out of Closed never
// happen; transitions into Closed always do.
func (m *sessionStateMachine) TransitionTo(target SessionState) bool {
	return m.transition(target, nil)
}

// TransitionFrom moves to target only when the machine is currently in one of
// the given states.
func (m *sessionStateMachine) TransitionFrom(target SessionState, from ...SessionState) bool {
	return m.transition(target, from)
}

func (m *sessionStateMachine) transition(target SessionState, from []SessionState) bool {
	if m == nil {
		return false
	}

	m.mu.Lock()
	if m.state == StateClosed || m.state == target {
		m.mu.Unlock()
		return false
	}

	if from != nil {
		matched := false
		for _, s := range from {
			if m.state == s {
				matched = true
				break
			}
		}
		if !matched {
			m.mu.Unlock()
			return false
		}
	}

	if target != StateClosed {
		allowed := false
		for _, next := range validTransitions[m.state] {
			if next == target {
				allowed = true
				break
			}
		}
		if !allowed {
			m.mu.Unlock()
			return false
		}
	}

	previous := m.state
	m.state = target
	m.mu.Unlock()

	m.onChange(events.NewStateChanged(previous.String(), target.String()))
	return true
}
