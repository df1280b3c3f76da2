// Package conversation owns the chat state machine: the ordered message log,
// classification of decision-service replies, and the orchestration of
// concurrent pending exchanges, including clarify sub-flows.
package conversation

import "time"

// Role identifies who a message bubble belongs to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status tracks the lifecycle of a message. A Pending message is awaiting a
// decision-service reply; Resolved and Errored are terminal.
type Status int

const (
	StatusPending Status = iota
	StatusResolved
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Kind is the tagged variant of an assistant message. Fields on Message that
// belong to another kind are zero and must be ignored.
type Kind int

const (
	// KindPlain covers user bubbles and simple assistant answers (store
	// confirmations, "No results").
	KindPlain Kind = iota
	// KindRetrieve carries ranked candidates beyond the primary answer.
	KindRetrieve
	// KindClarify carries an open clarification sub-flow.
	KindClarify
	// KindError carries an ErrorKind from the failure taxonomy.
	KindError
)

// Candidate is one ranked retrieve result. Order from the service is the
// ranking order; index 0 is always promoted to the bubble text.
type Candidate struct {
	ID   string
	Text string
}

// PlaceholderText is shown in a pending assistant bubble until its exchange
// resolves.
const PlaceholderText = "…"

// Message is one bubble in the log. IDs are unique for the lifetime of the
// conversation and never reused; the Store assigns them.
type Message struct {
	ID     string
	Role   Role
	Text   string
	Status Status
	Kind   Kind

	// KindRetrieve: candidates beyond the first, and whether the overflow
	// list is currently shown.
	More     []Candidate
	Expanded bool

	// KindClarify: the service's suggested forced actions and the utterance
	// that triggered the question, kept so a forced choice can re-send it.
	ClarifyOptions []string
	Utterance      string

	// KindError: which taxonomy bucket produced the text.
	ErrKind ErrorKind

	// Translated marks answers whose language did not match the requested
	// preferred language.
	Translated bool
	// Duplicate marks store confirmations where the service flagged an
	// existing near-identical memory.
	Duplicate bool

	At time.Time
}

// MoreCount reports how many candidates exist beyond the primary answer.
func (m Message) MoreCount() int { return len(m.More) }

// Terminal reports whether the message has left the Pending state.
func (m Message) Terminal() bool { return m.Status != StatusPending }
