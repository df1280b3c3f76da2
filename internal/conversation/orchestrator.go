package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memochat/internal/decision"
)

// Orchestrator errors surfaced to the input layer. These are caller mistakes,
// not exchange failures; exchange failures always land in the message log.
var (
	ErrEmptyInput     = errors.New("input is empty")
	ErrBusy           = errors.New("a primary exchange is already in flight")
	ErrUnknownMessage = errors.New("no such message")
	ErrNotClarify     = errors.New("message is not an open clarification")
	ErrBadAction      = errors.New("forced action must be store or retrieve")
)

// Decider is the slice of the decision client the orchestrator needs.
type Decider interface {
	Auto(ctx context.Context, text string, opts decision.AutoOptions) (decision.Envelope, error)
}

// Event announces that the message identified by MessageID changed state.
// Consumers re-read the log; the event carries no payload.
type Event struct {
	MessageID string
}

// Options configures an Orchestrator.
type Options struct {
	// PreferredLanguage is sent as a hint on primary exchanges. Clarify
	// follow-ups are dispatched without it.
	PreferredLanguage string
	// Timeout bounds each decision-service call. Defaults to 30s.
	Timeout time.Duration
	// EventBuffer sizes the event channel. Defaults to 16; events are dropped
	// rather than blocking when the consumer falls behind.
	EventBuffer int
	Logger      *zap.Logger
}

// Orchestrator drives the conversation: it appends exchanges to the Store,
// dispatches decision-service calls, and resolves pending bubbles with the
// classified outcome. Each in-flight exchange is keyed by its own generated
// id and resolves independently; only the primary input is serialized.
type Orchestrator struct {
	mu          sync.Mutex
	store       *Store
	client      Decider
	log         *zap.Logger
	lang        string
	timeout     time.Duration
	events      chan Event
	exchanges   map[string]string // exchange id -> message id
	primaryBusy bool
	// epoch invalidates in-flight resolutions after Shutdown; a resolution
	// carrying a stale epoch is a no-op instead of an update-after-teardown.
	epoch  uint64
	closed bool
}

// New creates an Orchestrator over a fresh Store.
func New(client Decider, opts Options) *Orchestrator {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.EventBuffer == 0 {
		opts.EventBuffer = 16
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		store:     NewStore(),
		client:    client,
		log:       opts.Logger,
		lang:      opts.PreferredLanguage,
		timeout:   opts.Timeout,
		events:    make(chan Event, opts.EventBuffer),
		exchanges: make(map[string]string),
	}
}

// Submit starts a primary exchange: one user bubble plus one pending
// assistant bubble appended atomically, then a decision call with the
// preferred-language hint. Only one primary exchange may be in flight;
// callers should disable the send affordance while Busy reports true.
// Returns the pending assistant message id.
func (o *Orchestrator) Submit(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}

	o.mu.Lock()
	if o.primaryBusy {
		o.mu.Unlock()
		return "", ErrBusy
	}
	o.primaryBusy = true
	lang := o.lang
	o.mu.Unlock()

	_, pending := o.store.AppendExchange(trimmed)
	o.dispatch(pending.ID, trimmed, decision.AutoOptions{PreferredLanguage: lang}, true)
	return pending.ID, nil
}

// FollowUp starts a clarify sub-flow from the inline widget on a resolved
// clarify message: a new pending assistant bubble is appended below it and
// resolved independently, with no preferred-language hint and no interaction
// with the primary input's busy state. Returns the new message id.
func (o *Orchestrator) FollowUp(clarifyID, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	target, ok := o.store.Get(clarifyID)
	if !ok {
		return "", ErrUnknownMessage
	}
	if target.Kind != KindClarify || target.Status != StatusResolved {
		return "", ErrNotClarify
	}

	pending := o.store.AppendPending()
	o.dispatch(pending.ID, trimmed, decision.AutoOptions{}, false)
	return pending.ID, nil
}

// Choose answers a clarify message with a forced action. The clarify bubble
// itself goes back to Pending and is replaced in place by the outcome of
// re-sending its original utterance with force_action set.
func (o *Orchestrator) Choose(clarifyID, action string) error {
	if action != "store" && action != "retrieve" {
		return ErrBadAction
	}
	target, ok := o.store.Get(clarifyID)
	if !ok {
		return ErrUnknownMessage
	}
	if !o.store.Reopen(clarifyID) {
		return ErrNotClarify
	}

	o.mu.Lock()
	lang := o.lang
	o.mu.Unlock()

	o.dispatch(clarifyID, target.Utterance, decision.AutoOptions{
		ForceAction:       action,
		PreferredLanguage: lang,
	}, false)
	return nil
}

// ToggleMore flips the "more results" overflow on a retrieve message.
func (o *Orchestrator) ToggleMore(id string) bool {
	if !o.store.ToggleMore(id) {
		return false
	}
	o.emit(id)
	return true
}

// Busy reports whether a primary exchange is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.primaryBusy
}

// SetLanguage changes the preferred-language hint for future primary
// exchanges. In-flight exchanges keep the hint they were sent with.
func (o *Orchestrator) SetLanguage(lang string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lang = lang
}

// Messages returns a snapshot of the log in display order.
func (o *Orchestrator) Messages() []Message { return o.store.Messages() }

// Get returns one message by id.
func (o *Orchestrator) Get(id string) (Message, bool) { return o.store.Get(id) }

// Events is the change feed. One Event arrives per message state change;
// consume promptly, the channel drops rather than blocks.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Shutdown invalidates all in-flight exchanges and closes the event channel.
// Resolutions that arrive later are dropped; nothing is mutated after
// teardown.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.epoch++
	o.exchanges = make(map[string]string)
	o.primaryBusy = false
	close(o.events)
}

// dispatch starts the asynchronous half of an exchange. The exchange id is
// bound to exactly one message id up front, so concurrent resolutions can
// never touch another exchange's bubble.
func (o *Orchestrator) dispatch(messageID, text string, opts decision.AutoOptions, primary bool) {
	exchangeID := uuid.NewString()

	o.mu.Lock()
	o.exchanges[exchangeID] = messageID
	epoch := o.epoch
	o.mu.Unlock()

	o.log.Debug("dispatching exchange",
		zap.String("exchange", exchangeID),
		zap.String("message", messageID),
		zap.String("force_action", opts.ForceAction),
		zap.Bool("primary", primary))

	go func() {
		defer func() {
			// The pending placeholder must always resolve; a panicking client
			// is treated the same as a server error.
			if r := recover(); r != nil {
				o.log.Error("exchange panicked", zap.Any("panic", r))
				o.complete(exchangeID, epoch, primary, text, Outcome{
					Kind: KindError, ErrKind: ErrServer, Text: ErrServer.Message(),
				})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()

		env, err := o.client.Auto(ctx, text, opts)
		var out Outcome
		if err != nil {
			// The client contract is to never error on transport problems, so
			// an error here is a client-side fault. Same terminal state.
			o.log.Warn("decision client error", zap.Error(err))
			out = Outcome{Kind: KindError, ErrKind: ErrServer, Text: ErrServer.Message()}
		} else {
			out = Classify(env, opts.PreferredLanguage, text)
		}
		o.complete(exchangeID, epoch, primary, text, out)
	}()
}

// complete applies one exchange's outcome. Stale epochs and unknown exchange
// ids are no-ops, so a resolution can neither outlive a Shutdown nor fire
// twice.
func (o *Orchestrator) complete(exchangeID string, epoch uint64, primary bool, utterance string, out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if epoch != o.epoch {
		o.log.Debug("dropping stale resolution", zap.String("exchange", exchangeID))
		return
	}
	messageID, ok := o.exchanges[exchangeID]
	if !ok {
		return
	}
	delete(o.exchanges, exchangeID)

	if !o.store.Resolve(messageID, out, utterance) {
		o.log.Warn("resolve missed", zap.String("message", messageID))
	}
	if primary {
		o.primaryBusy = false
	}
	o.emitLocked(messageID)
}

func (o *Orchestrator) emit(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emitLocked(id)
}

// emitLocked assumes the lock is held.
func (o *Orchestrator) emitLocked(id string) {
	if o.closed {
		return
	}
	select {
	case o.events <- Event{MessageID: id}:
	default:
		o.log.Warn("event dropped", zap.String("message", id))
	}
}
