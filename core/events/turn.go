package events

const (
	// KindEndOfTurn identifies the turn detector deciding the user finished
	// speaking and a response should begin.
	KindEndOfTurn Kind = "turn.end_of_turn"
	// KindBargeIn identifies user speech interrupting an in-progress
	// assistant response.
	KindBargeIn Kind = "turn.barge_in"
	// KindTurnCancelled identifies cancellation of the current turn.
	KindTurnCancelled Kind = "turn.cancelled"
	// KindTurnResumed identifies playback resuming after an interruption was
	// classified as false.
	KindTurnResumed Kind = "turn.resumed"
	// KindStateChanged identifies a session state transition.
	KindStateChanged Kind = "turn.state_changed"
)

// BargeInSource describes what triggered a barge-in decision.
type BargeInSource string

const (
	// BargeInSourceEnergy marks barge-ins triggered by sustained speech
	// energy while the assistant was speaking.
	BargeInSourceEnergy BargeInSource = "energy"
	// BargeInSourceHardWord marks barge-ins triggered by an explicit
	// interrupt word in a transcript.
	BargeInSourceHardWord BargeInSource = "hard_word"
	// BargeInSourceTranscript marks barge-ins triggered by a long-enough
	// overlapping transcript.
	BargeInSourceTranscript BargeInSource = "transcript"
)

// EndOfTurn marks the detector's decision that the user turn ended.
type EndOfTurn struct {
	Base
	// Forced is true when the decision came from the max-turn-duration
	// fallback rather than observed silence.
	Forced bool
}

// NewEndOfTurn creates an end-of-turn event.
func NewEndOfTurn(forced bool) EndOfTurn {
	return EndOfTurn{Base: NewBase(KindEndOfTurn), Forced: forced}
}

// BargeIn marks user speech interrupting the assistant mid-response.
type BargeIn struct {
	Base
	Source BargeInSource
}

// NewBargeIn creates a barge-in event.
func NewBargeIn(source BargeInSource) BargeIn {
	return BargeIn{Base: NewBase(KindBargeIn), Source: source}
}

// TurnCancelled marks cancellation of the current turn.
type TurnCancelled struct{ Base }

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled() TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled)}
}

// TurnResumed marks playback resuming after a false interruption.
type TurnResumed struct{ Base }

// NewTurnResumed creates a turn resumed event.
func NewTurnResumed() TurnResumed {
	return TurnResumed{Base: NewBase(KindTurnResumed)}
}

// StateChanged reports a session state transition.
type StateChanged struct {
	Base
	From string
	To   string
}

// NewStateChanged creates a state changed event.
func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}
