package orchestration

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/korvid-ai/korvid-core/core/llms"
	"github.com/korvid-ai/korvid-core/core/speechtotext"
)

var (
	errActiveTurnIDMismatch = errors.New("active turn finalisation failed: turn IDs do not match")
	errActiveTurnMissing    = errors.New("active turn finalisation failed: active turn missing")
)

// conversation owns the session's dialogue state: the append-only history of
// committed turns, the transcript segments accumulating towards the next user
// turn, and the in-flight assistant turn. At most one assistant turn is in
// flight at a time.
type conversation struct {
	mu sync.RWMutex

	turns []llms.Turn

	pendingSegments []speechtotext.Transcript

	activeTurn *activeTurn
}

// ConversationSnapshot is a point-in-time view of conversation state. The
// history is deep-copied so callers can hold onto it safely.
type ConversationSnapshot struct {
	History     []llms.Turn
	PendingUser string
	ActiveTurn  *llms.Turn
}

func (c *conversation) Snapshot() ConversationSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var history []llms.Turn
	copier.Copy(&history, c.turns)

	var active *llms.Turn
	if c.activeTurn != nil {
		snapshot := c.activeTurn.Turn
		active = &snapshot
	}

	return ConversationSnapshot{
		History:     history,
		PendingUser: c.pendingUserLocked(),
		ActiveTurn:  active,
	}
}

func (c *conversation) History() []llms.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history := make([]llms.Turn, len(c.turns))
	copy(history, c.turns)
	return history
}

// AppendTranscript accumulates a final transcript segment towards the
// pending user turn.
func (c *conversation) AppendTranscript(transcript speechtotext.Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pendingSegments = append(c.pendingSegments, transcript)
}

func (c *conversation) PendingUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingUserLocked()
}

func (c *conversation) pendingUserLocked() string {
	if len(c.pendingSegments) == 0 {
		return ""
	}

	texts := make([]string, 0, len(c.pendingSegments))
	for _, segment := range c.pendingSegments {
		texts = append(texts, segment.Text)
	}
	return strings.Join(texts, " ")
}

// CommitPendingUserTurn commits the accumulated transcript segments as a user
// turn and clears the pending buffer. It returns nil when nothing is pending.
func (c *conversation) CommitPendingUserTurn() *llms.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	content := c.pendingUserLocked()
	if content == "" {
		return nil
	}
	c.pendingSegments = nil

	turn := llms.Turn{
		ID:        uuid.NewString(),
		Role:      llms.TurnRoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.turns = append(c.turns, turn)
	return &turn
}

// CommitUserPrompt commits a typed prompt as a user turn, bypassing the
// transcript path.
func (c *conversation) CommitUserPrompt(prompt string) llms.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	turn := llms.Turn{
		ID:        uuid.NewString(),
		Role:      llms.TurnRoleUser,
		Content:   prompt,
		Timestamp: time.Now(),
	}
	c.turns = append(c.turns, turn)
	return turn
}

func (c *conversation) DiscardPending() {
	c.mu.Lock()
	c.pendingSegments = nil
	c.mu.Unlock()
}

func (c *conversation) SetActiveTurn(turn *activeTurn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeTurn != nil {
		return errors.New("active turn already set")
	}
	c.activeTurn = turn
	return nil
}

func (c *conversation) ActiveTurn() *activeTurn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeTurn
}

// FinaliseActiveTurn commits the finished assistant turn to history and
// clears the active slot. Empty turns (fully discarded interruptions) clear
// the slot without committing anything.
func (c *conversation) FinaliseActiveTurn(finalised *llms.Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if finalised == nil {
		c.activeTurn = nil
		return nil
	}

	if c.activeTurn == nil {
		c.turns = append(c.turns, *finalised)
		return errActiveTurnMissing
	}
	if c.activeTurn.Turn.ID != finalised.ID {
		c.turns = append(c.turns, *finalised)
		c.activeTurn = nil
		return errActiveTurnIDMismatch
	}

	c.turns = append(c.turns, *finalised)
	c.activeTurn = nil
	return nil
}
