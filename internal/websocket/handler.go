// Package websocket bridges job subscriber connections onto the job engine's
// notifier: one live connection per job, full status on connect, best-effort
// event pushes and keep-alive pings while idle.
package websocket

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/mlxvideo/api/internal/job"
	"github.com/mlxvideo/api/internal/model"
)

// Handler serves the per-job progress endpoints.
type Handler struct {
	orch        *job.Orchestrator
	idleTimeout time.Duration
	log         zerolog.Logger
}

// NewHandler creates a Handler. idleTimeout bounds how long a connection sits
// quiet before a keep-alive ping is pushed.
func NewHandler(orch *job.Orchestrator, idleTimeout time.Duration, log zerolog.Logger) *Handler {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	return &Handler{
		orch:        orch,
		idleTimeout: idleTimeout,
		log:         log.With().Str("component", "ws").Logger(),
	}
}

// conn serializes writes: event delivery comes from the job's goroutine
// while pings originate from the keep-alive goroutine.
type conn struct {
	ws *websocket.Conn

	mu        sync.Mutex
	lastWrite time.Time
}

func (c *conn) write(ev model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastWrite = time.Now()
	return c.ws.WriteJSON(ev)
}

func (c *conn) idleSince() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastWrite)
}

// HandleConnection subscribes the connection to a job's events until the
// client disconnects or the job finishes. A newer connection for the same
// job silently displaces this one as the event sink.
func (h *Handler) HandleConnection(ws *websocket.Conn, jobID string) {
	c := &conn{ws: ws, lastWrite: time.Now()}

	cancel, err := h.orch.Subscribe(jobID, c.write)
	if err != nil {
		_ = c.write(model.Event{Type: model.EventError, JobID: jobID, Error: "Job not found"})
		return
	}
	defer cancel()

	h.log.Debug().Str("job", jobID).Msg("subscriber connected")
	defer h.log.Debug().Str("job", jobID).Msg("subscriber disconnected")

	// Keep-alive and terminal watch. Closing the websocket unblocks the
	// reader loop below.
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(h.idleTimeout / 3)
		defer ticker.Stop()

		sawTerminal := false
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if snap, err := h.orch.Status(jobID); err == nil && snap.Status.IsTerminal() {
					// Close only on the second terminal tick so the
					// final complete/error event has flushed.
					if sawTerminal {
						ws.Close()
						return
					}
					sawTerminal = true
				}
				if c.idleSince() >= h.idleTimeout {
					if err := c.write(model.Event{Type: model.EventPing}); err != nil {
						ws.Close()
						return
					}
				}
			}
		}
	}()

	// Reader loop: the client only ever sends ping/keep-alive chatter, but
	// reading is what detects disconnects promptly.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
