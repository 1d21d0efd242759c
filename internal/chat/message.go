// Package chat holds the conversation log and the session driver that feeds
// it from the streaming query endpoint.
package chat

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"helios/internal/activity"
	"helios/internal/stream"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one entry in the conversation log. User messages are immutable
// after creation. The agent placeholder message for the current turn is
// mutated in place while the stream is live and frozen afterwards: Content
// is append-only, Sources are replaced wholesale, Activity tracks the
// inferred pipeline stage.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Sources   []stream.Source
	Activity  *activity.Snapshot

	// Failed marks the terminal failure message appended when a turn
	// aborts, so renderers can distinguish it from agent output.
	Failed bool
}

// Store is the ordered, append-mostly log of chat messages. It survives
// across turns; there is no persistence beyond the process. A rendering
// collaborator may read concurrently with the session driver's mutations,
// so access is serialized and reads return copies.
type Store struct {
	mu    sync.RWMutex
	order []*Message
	byID  map[string]*Message
}

// NewStore returns an empty conversation log.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Message)}
}

// Append adds a new message, assigning its ID and timestamp, and returns a
// copy of the stored message.
func (s *Store) Append(msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()

	stored := msg
	if msg.Activity != nil {
		snap := *msg.Activity
		stored.Activity = &snap
	}
	stored.Sources = slices.Clone(msg.Sources)

	s.order = append(s.order, &stored)
	s.byID[stored.ID] = &stored
	return copyMessage(&stored)
}

// Update applies fn to the message with the given id while holding the
// store lock. It reports whether the message exists. The in-flight agent
// reply is looked up and mutated this way rather than appended.
func (s *Store) Update(id string, fn func(*Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return false
	}
	fn(msg)
	return true
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}
	return copyMessage(msg), true
}

// Messages returns a copy of the full ordered history.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.order))
	for i, msg := range s.order {
		out[i] = copyMessage(msg)
	}
	return out
}

// Len returns the number of messages in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func copyMessage(msg *Message) Message {
	out := *msg
	out.Sources = slices.Clone(msg.Sources)
	if msg.Activity != nil {
		snap := *msg.Activity
		out.Activity = &snap
	}
	return out
}
