package runtime

import (
	"sync"

	"github.com/voicekey-io/voicekey/internal/command"
	"github.com/voicekey-io/voicekey/internal/fsm"
)

// Diagnostic is a user-facing problem report attached to an update.
type Diagnostic struct {
	Code        string
	Message     string
	Remediation string
}

// Update describes the outcome of processing one input: a transcript, a
// timer expiry, a control request, or a runtime error. Exactly one update is
// published per processed input, in processing order.
type Update struct {
	Seq  uint64
	Mode fsm.Mode
	// State is the runtime state after the input was handled.
	State fsm.State
	// Transitions lists the state changes this input caused, in order.
	// Empty when the input left the state untouched.
	Transitions []fsm.Result

	// Partial marks an advisory transcript that only fed activity tracking.
	Partial bool

	WakeDetected bool
	WakeScore    float64

	ParseKind    command.Kind
	CommandID    string
	RouteAllowed bool
	// RouteReason explains the routing outcome, whether allowed or blocked.
	RouteReason string
	// RoutedText is the literal text queued for typing. Populated only when
	// transcript logging is enabled; otherwise left empty.
	RoutedText string
	Dispatched bool

	Diagnostic *Diagnostic
}

// subscriberBuffer bounds each subscriber channel; a slow consumer loses
// updates rather than stalling the coordinator.
const subscriberBuffer = 16

// Broadcaster fans updates out to subscribers. Publishing never blocks.
type Broadcaster struct {
	mu     sync.Mutex
	seq    uint64
	subs   []chan Update
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new consumer. The channel closes with the
// broadcaster.
func (b *Broadcaster) Subscribe() <-chan Update {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish assigns the next sequence number and delivers the update to every
// subscriber, dropping it for any whose buffer is full.
func (b *Broadcaster) Publish(u Update) Update {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	u.Seq = b.seq
	if b.closed {
		return u
	}
	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
	return u
}

// Close ends all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
