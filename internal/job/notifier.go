package job

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mlxvideo/api/internal/model"
)

// Sink receives events for one job. Delivery is synchronous from the job's
// goroutine; a sink that returns an error is simply skipped for that event.
type Sink func(model.Event) error

type sinkEntry struct {
	token uint64
	sink  Sink
}

// Notifier holds at most one live sink per job id and delivers every state
// change best-effort. Delivery failures are swallowed; they must never leak
// into job control flow.
type Notifier struct {
	mu    sync.Mutex
	sinks map[string]sinkEntry
	next  uint64

	log zerolog.Logger
}

// NewNotifier returns an empty Notifier.
func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{
		sinks: make(map[string]sinkEntry),
		log:   log,
	}
}

// Register installs the sink for a job, silently replacing any previous one.
// The returned token identifies this registration for Unregister, so a
// replaced subscriber tearing down late cannot remove its successor.
func (n *Notifier) Register(jobID string, sink Sink) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	n.sinks[jobID] = sinkEntry{token: n.next, sink: sink}
	return n.next
}

// Unregister clears the job's sink if it still belongs to the given token.
// The job's goroutine continues running unaffected.
func (n *Notifier) Unregister(jobID string, token uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if e, ok := n.sinks[jobID]; ok && e.token == token {
		delete(n.sinks, jobID)
	}
}

// Notify delivers an event to the job's sink, if any.
func (n *Notifier) Notify(jobID string, ev model.Event) {
	n.mu.Lock()
	entry, ok := n.sinks[jobID]
	n.mu.Unlock()

	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			n.log.Warn().Str("job", jobID).Interface("panic", r).Msg("subscriber sink panicked")
		}
	}()

	if err := entry.sink(ev); err != nil {
		n.log.Debug().Str("job", jobID).Err(err).Msg("subscriber delivery failed")
	}
}
