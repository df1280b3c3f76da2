package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the ordered message log. Insertion order is display order: the
// log is only ever appended to or mutated in place by id, never reordered.
// All mutation goes through Store methods; every method takes the lock, so an
// append pair or a resolve is atomic with respect to any concurrent exchange.
type Store struct {
	mu       sync.Mutex
	messages []Message
	index    map[string]int // message id -> position in messages
	now      func() time.Time
}

// NewStore creates an empty log.
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
		now:   time.Now,
	}
}

// AppendExchange appends a resolved user bubble followed immediately by a
// pending assistant placeholder, as one atomic operation. The placeholder id
// is the handle for the exchange's later resolve.
func (s *Store) AppendExchange(userText string) (user, pending Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user = Message{
		ID:     uuid.NewString(),
		Role:   RoleUser,
		Text:   userText,
		Status: StatusResolved,
		At:     s.now(),
	}
	pending = Message{
		ID:     uuid.NewString(),
		Role:   RoleAssistant,
		Text:   PlaceholderText,
		Status: StatusPending,
		At:     s.now(),
	}
	s.append(user)
	s.append(pending)
	return user, pending
}

// AppendPending appends a lone pending assistant bubble at the end of the
// log. Used by clarify sub-flows, whose follow-up answer appears below the
// clarify bubble rather than replacing it.
func (s *Store) AppendPending() Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := Message{
		ID:     uuid.NewString(),
		Role:   RoleAssistant,
		Text:   PlaceholderText,
		Status: StatusPending,
		At:     s.now(),
	}
	s.append(pending)
	return pending
}

// Resolve replaces the pending message with the rendered outcome, in place,
// preserving id and position so bubble ordering never shifts. It returns
// false when the id is unknown or the message already left Pending; a
// pending bubble resolves exactly once.
func (s *Store) Resolve(id string, out Outcome, utterance string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok || s.messages[pos].Status != StatusPending {
		return false
	}

	status := StatusResolved
	if out.Errored() {
		status = StatusErrored
	}
	s.messages[pos] = Message{
		ID:             id,
		Role:           RoleAssistant,
		Text:           out.Text,
		Status:         status,
		Kind:           out.Kind,
		More:           out.More,
		ClarifyOptions: out.ClarifyOptions,
		Utterance:      utterance,
		ErrKind:        out.ErrKind,
		Translated:     out.Translated,
		Duplicate:      out.Duplicate,
		At:             s.now(),
	}
	return true
}

// Reopen puts a resolved clarify message back into Pending with the
// placeholder text, keeping its id, position and remembered utterance. This
// is the in-place half of the clarify state machine: a forced store/retrieve
// choice re-runs the original utterance through the same bubble.
func (s *Store) Reopen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false
	}
	msg := s.messages[pos]
	if msg.Kind != KindClarify || msg.Status != StatusResolved {
		return false
	}
	s.messages[pos] = Message{
		ID:        id,
		Role:      RoleAssistant,
		Text:      PlaceholderText,
		Status:    StatusPending,
		Utterance: msg.Utterance,
		At:        s.now(),
	}
	return true
}

// ToggleMore flips the overflow visibility for one retrieve message. It is a
// pure local state change (no network) and idempotent over two calls.
func (s *Store) ToggleMore(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false
	}
	msg := &s.messages[pos]
	if msg.Kind != KindRetrieve || len(msg.More) == 0 {
		return false
	}
	msg.Expanded = !msg.Expanded
	return true
}

// Get returns a copy of one message by id.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[pos], true
}

// Messages returns a snapshot copy of the log in display order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages in the log.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// append assumes the lock is held.
func (s *Store) append(m Message) {
	s.index[m.ID] = len(s.messages)
	s.messages = append(s.messages, m)
}
