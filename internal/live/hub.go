// Package live runs one set of reveal controllers per open page. A page
// mounts when its websocket connects and unmounts when the socket goes away,
// whichever way that happens.
package live

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/reveal"
)

// Options tune the controllers each session mounts. A nil Jitter means
// reveal.DefaultJitter; a zero Jitter freezes the gauges.
type Options struct {
	TogglePeriod time.Duration
	TickerPeriod time.Duration
	Jitter       *reveal.Jitter
	Rand         reveal.Rand
	ScrollRate   rate.Limit
	ScrollBurst  int
}

func (o Options) withDefaults() Options {
	if o.TogglePeriod <= 0 {
		o.TogglePeriod = reveal.DefaultTogglePeriod
	}
	if o.TickerPeriod <= 0 {
		o.TickerPeriod = reveal.DefaultTickerPeriod
	}
	if o.Jitter == nil {
		j := reveal.DefaultJitter
		o.Jitter = &j
	}
	if o.ScrollRate <= 0 {
		o.ScrollRate = 30
	}
	if o.ScrollBurst <= 0 {
		o.ScrollBurst = 10
	}
	return o
}

// Hub maintains the set of mounted sessions.
type Hub struct {
	scheduler reveal.Scheduler
	catalog   *content.Catalog
	opts      Options

	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	quit       chan struct{}
	mu         sync.RWMutex
}

func NewHub(s reveal.Scheduler, catalog *content.Catalog, opts Options) *Hub {
	return &Hub{
		scheduler:  s,
		catalog:    catalog,
		opts:       opts.withDefaults(),
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		quit:       make(chan struct{}),
	}
}

// Run owns the session registry until ctx is done, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			n := len(h.sessions)
			h.mu.Unlock()
			log.Printf("Session %s mounted. Total: %d", s.ID, n)

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
			}
			n := len(h.sessions)
			h.mu.Unlock()
			log.Printf("Session %s unmounted. Total: %d", s.ID, n)

		case <-ctx.Done():
			close(h.quit)

			h.mu.Lock()
			open := make([]*Session, 0, len(h.sessions))
			for s := range h.sessions {
				open = append(open, s)
			}
			h.sessions = make(map[*Session]bool)
			h.mu.Unlock()

			for _, s := range open {
				s.Close()
			}
			log.Printf("Hub stopped, closed %d sessions", len(open))
			return
		}
	}
}

// Count reports how many sessions are mounted.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Attach mounts a session on conn and starts its pumps. It returns nil if the
// hub has already stopped.
func (h *Hub) Attach(conn *websocket.Conn) *Session {
	s := newSession(h, conn)
	s.mount()

	select {
	case h.register <- s:
	case <-h.quit:
		s.unmount()
		conn.Close()
		return nil
	}

	go s.writePump()
	go s.readPump()
	return s
}

func (h *Hub) detach(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.quit:
	}
}
