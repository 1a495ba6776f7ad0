package orchestration

import (
	"errors"
	"testing"

	"github.com/korvid-ai/korvid-core/core/llms"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

func TestPendingSegmentsJoinIntoOneUserTurn(t *testing.T) {
	c := &conversation{}
	c.AppendTranscript(speechtotext.Transcript{Text: "what's the weather", IsFinal: true})
	c.AppendTranscript(speechtotext.Transcript{Text: "in berlin tomorrow", IsFinal: true})

	if pending := c.PendingUser(); pending != "what's the weather in berlin tomorrow" {
		t.Fatalf("unexpected pending user text %q", pending)
	}

	turn := c.CommitPendingUserTurn()
	if turn == nil {
		t.Fatalf("expected a committed turn")
	}
	if turn.Role != llms.TurnRoleUser {
		t.Fatalf("expected user role, got %q", turn.Role)
	}
	if turn.Content != "what's the weather in berlin tomorrow" {
		t.Fatalf("unexpected turn content %q", turn.Content)
	}
	if turn.ID == "" {
		t.Fatalf("expected a turn ID")
	}

	if pending := c.PendingUser(); pending != "" {
		t.Fatalf("expected pending buffer to be cleared, got %q", pending)
	}
	if history := c.History(); len(history) != 1 || history[0].ID != turn.ID {
		t.Fatalf("expected the committed turn in history, got %v", history)
	}
}

func TestCommitPendingUserTurnReturnsNilWhenEmpty(t *testing.T) {
	c := &conversation{}
	if turn := c.CommitPendingUserTurn(); turn != nil {
		t.Fatalf("expected nil for an empty pending buffer, got %v", turn)
	}
	if history := c.History(); len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
}

func TestDiscardPendingDropsSegments(t *testing.T) {
	c := &conversation{}
	c.AppendTranscript(speechtotext.Transcript{Text: "never mind", IsFinal: true})
	c.DiscardPending()

	if turn := c.CommitPendingUserTurn(); turn != nil {
		t.Fatalf("expected discarded segments not to commit, got %v", turn)
	}
}

func TestCommitUserPromptBypassesPendingBuffer(t *testing.T) {
	c := &conversation{}
	c.AppendTranscript(speechtotext.Transcript{Text: "spoken but uncommitted", IsFinal: true})

	turn := c.CommitUserPrompt("typed prompt")
	if turn.Content != "typed prompt" {
		t.Fatalf("unexpected prompt content %q", turn.Content)
	}
	if pending := c.PendingUser(); pending != "spoken but uncommitted" {
		t.Fatalf("expected pending segments to survive a typed prompt, got %q", pending)
	}
}

func TestHistoryIsAppendOnlyAcrossCommits(t *testing.T) {
	c := &conversation{}
	c.CommitUserPrompt("first")
	c.CommitUserPrompt("second")

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	if history[0].Content != "first" || history[1].Content != "second" {
		t.Fatalf("expected commit order preserved, got %q then %q", history[0].Content, history[1].Content)
	}
}

func TestSetActiveTurnRejectsSecondTurn(t *testing.T) {
	c := &conversation{}
	first := &activeTurn{}
	if err := c.SetActiveTurn(first); err != nil {
		t.Fatalf("unexpected error setting the first active turn: %v", err)
	}
	if err := c.SetActiveTurn(&activeTurn{}); err == nil {
		t.Fatalf("expected an error when an active turn is already set")
	}
	if c.ActiveTurn() != first {
		t.Fatalf("expected the first active turn to stay in place")
	}
}

func TestFinaliseActiveTurnCommitsAndClearsSlot(t *testing.T) {
	c := &conversation{}
	active := &activeTurn{Turn: llms.Turn{ID: "turn-1", Role: llms.TurnRoleAssistant}}
	if err := c.SetActiveTurn(active); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	finalised := llms.Turn{ID: "turn-1", Role: llms.TurnRoleAssistant, Content: "hello there"}
	if err := c.FinaliseActiveTurn(&finalised); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.ActiveTurn() != nil {
		t.Fatalf("expected the active slot to be cleared")
	}
	history := c.History()
	if len(history) != 1 || history[0].Content != "hello there" {
		t.Fatalf("expected the finalised turn in history, got %v", history)
	}
}

func TestFinaliseActiveTurnNilClearsWithoutCommitting(t *testing.T) {
	c := &conversation{}
	if err := c.SetActiveTurn(&activeTurn{Turn: llms.Turn{ID: "turn-1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.FinaliseActiveTurn(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ActiveTurn() != nil {
		t.Fatalf("expected the active slot to be cleared")
	}
	if history := c.History(); len(history) != 0 {
		t.Fatalf("expected nothing committed, got %v", history)
	}
}

func TestFinaliseActiveTurnReportsIDMismatch(t *testing.T) {
	c := &conversation{}
	if err := c.SetActiveTurn(&activeTurn{Turn: llms.Turn{ID: "turn-1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := c.FinaliseActiveTurn(&llms.Turn{ID: "turn-2", Content: "mismatched"})
	if !errors.Is(err, errActiveTurnIDMismatch) {
		t.Fatalf("expected ID mismatch error, got %v", err)
	}
	// The turn is still committed so no response is lost.
	if history := c.History(); len(history) != 1 || history[0].ID != "turn-2" {
		t.Fatalf("expected the mismatched turn committed anyway, got %v", history)
	}
	if c.ActiveTurn() != nil {
		t.Fatalf("expected the active slot to be cleared despite the mismatch")
	}
}

func TestFinaliseActiveTurnReportsMissingActiveTurn(t *testing.T) {
	c := &conversation{}
	err := c.FinaliseActiveTurn(&llms.Turn{ID: "turn-1", Content: "orphaned"})
	if !errors.Is(err, errActiveTurnMissing) {
		t.Fatalf("expected missing active turn error, got %v", err)
	}
	if history := c.History(); len(history) != 1 {
		t.Fatalf("expected the orphaned turn committed anyway, got %v", history)
	}
}

func TestSnapshotIsDetachedFromLiveState(t *testing.T) {
	c := &conversation{}
	c.CommitUserPrompt("first")
	c.AppendTranscript(speechtotext.Transcript{Text: "pending words", IsFinal: true})

	snapshot := c.Snapshot()
	c.CommitUserPrompt("second")

	if len(snapshot.History) != 1 {
		t.Fatalf("expected snapshot history to stay at 1 turn, got %d", len(snapshot.History))
	}
	if snapshot.PendingUser != "pending words" {
		t.Fatalf("unexpected snapshot pending text %q", snapshot.PendingUser)
	}
	if snapshot.ActiveTurn != nil {
		t.Fatalf("expected no active turn in snapshot")
	}
}
