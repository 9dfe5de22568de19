// Package memory maintains the rolling conversation window shared by the
// orchestrator and the generation backend.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/kalchan12/echomind/core"
)

const DefaultMaxTurns = 40

// Turn is one message in the conversation, attributed to the user or the
// assistant. Immutable once appended.
type Turn struct {
	Role      core.LLMMessageRole `json:"role"`
	Text      string              `json:"text"`
	Timestamp time.Time           `json:"timestamp"`
}

// FormatError reports malformed data passed to Import. Memory contents are
// left untouched when Import fails with one.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversation format: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("conversation format: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// snapshot is the portable export shape.
type snapshot struct {
	MaxTurns    int       `json:"max_turns"`
	Turns       []Turn    `json:"turns"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// ConversationMemory holds an ordered, bounded sequence of turns. When the
// window is full the oldest turn is dropped on append.
type ConversationMemory struct {
	mu        sync.Mutex
	maxTurns  int
	turns     []Turn
	createdAt time.Time
}

// NewConversationMemory creates a memory bounded to maxTurns entries.
// Non-positive maxTurns falls back to DefaultMaxTurns.
func NewConversationMemory(maxTurns int) *ConversationMemory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &ConversationMemory{
		maxTurns:  maxTurns,
		turns:     make([]Turn, 0, maxTurns),
		createdAt: time.Now(),
	}
}

// NewTurn builds a timestamped turn from a role and text. Timestamps are UTC
// so a turn survives an export/import round trip bit-for-bit.
func NewTurn(role core.LLMMessageRole, text string) Turn {
	return Turn{Role: role, Text: strings.TrimSpace(text), Timestamp: time.Now().UTC()}
}

// Append stores a turn, evicting the oldest when over capacity. Blank turns
// are dropped so a partial or failed exchange never pollutes the context.
func (m *ConversationMemory) Append(turn Turn) {
	if strings.TrimSpace(turn.Text) == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
}

// Turns returns a copy of the stored turns in chronological order.
func (m *ConversationMemory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// PromptContext projects the most recent maxTurns turns into generation
// messages. maxTurns <= 0 includes the whole window.
func (m *ConversationMemory) PromptContext(maxTurns int) []core.LLMMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	messages := make([]core.LLMMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, core.LLMMessage{Role: t.Role, Message: t.Text})
	}
	return messages
}

// Clear empties the conversation.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = m.turns[:0]
}

// Count returns the number of stored turns.
func (m *ConversationMemory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// IsEmpty reports whether no turns are stored.
func (m *ConversationMemory) IsEmpty() bool {
	return m.Count() == 0
}

// MaxTurns returns the window capacity.
func (m *ConversationMemory) MaxTurns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxTurns
}

// CreatedAt returns when this conversation window was created or last
// imported.
func (m *ConversationMemory) CreatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createdAt
}

// Export serializes the conversation to its portable JSON form.
func (m *ConversationMemory) Export() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := snapshot{
		MaxTurns:    m.maxTurns,
		Turns:       m.turns,
		Count:       len(m.turns),
		CreatedAt:   m.createdAt,
		LastUpdated: time.Now(),
	}
	data, err := sonic.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("export conversation: %w", err)
	}
	return data, nil
}

// Import replaces the conversation contents with a previously exported
// snapshot. Malformed input fails with a *FormatError and leaves the
// existing contents untouched.
func (m *ConversationMemory) Import(data []byte) error {
	var snap snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return &FormatError{Reason: "malformed snapshot", Err: err}
	}
	for i, t := range snap.Turns {
		if t.Role != core.LLMMessageRoleUser && t.Role != core.LLMMessageRoleAssistant {
			return &FormatError{Reason: fmt.Sprintf("turn %d has unknown role %q", i, t.Role)}
		}
		if strings.TrimSpace(t.Text) == "" {
			return &FormatError{Reason: fmt.Sprintf("turn %d has empty text", i)}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.MaxTurns > 0 {
		m.maxTurns = snap.MaxTurns
	}
	turns := snap.Turns
	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.turns = make([]Turn, len(turns))
	copy(m.turns, turns)
	if !snap.CreatedAt.IsZero() {
		m.createdAt = snap.CreatedAt
	}
	return nil
}
