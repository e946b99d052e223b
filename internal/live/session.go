package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/reveal"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 512                 // Maximum message size allowed from peer.
	sendBuffer     = 64
)

// Session is one mounted page. It owns its controllers; nothing else starts
// or stops them.
type Session struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	toggle  *reveal.Toggle
	ticker  *reveal.MetricTicker
	scroll  *reveal.ScrollReveal
	samples chan reveal.ScrollSample
	limiter *rate.Limiter
	cancel  context.CancelFunc
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	opts := h.opts
	s := &Session{
		ID:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		samples: make(chan reveal.ScrollSample, 16),
		limiter: rate.NewLimiter(opts.ScrollRate, opts.ScrollBurst),
	}

	s.toggle = reveal.NewToggle(h.scheduler, opts.TogglePeriod)
	s.ticker = reveal.NewMetricTicker(h.scheduler, h.catalog.Metrics(),
		reveal.WithTickerPeriod(opts.TickerPeriod),
		reveal.WithJitter(*opts.Jitter),
		reveal.WithRand(opts.Rand),
	)
	s.scroll = reveal.NewScrollReveal(len(h.catalog.Containers))

	s.toggle.OnChange(func(side reveal.Side) {
		s.push(TypeToggle, ToggleState{Side: side})
	})
	s.ticker.OnTick(func(metrics []content.MetricData) {
		s.push(TypeMetrics, metrics)
	})
	s.scroll.OnFrame(func(f reveal.Frame) {
		s.push(TypeReveal, f)
	})

	return s
}

// mount queues the initial state and arms every controller.
func (s *Session) mount() {
	s.push(TypeHello, Hello{
		Session:      s.ID,
		TogglePeriod: s.toggle.Period().Milliseconds(),
		TickerPeriod: s.ticker.Period().Milliseconds(),
	})
	s.push(TypeToggle, ToggleState{Side: s.toggle.Side()})
	s.push(TypeMetrics, s.ticker.Snapshot())
	s.push(TypeReveal, s.scroll.Frame())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.toggle.Start()
	s.ticker.Start()
	s.scroll.Subscribe(ctx, s.samples)
}

// unmount releases every controller exactly once, on whichever path ends the
// session first. The write pump sees done, says goodbye and closes the
// connection, which in turn ends the read pump.
func (s *Session) unmount() {
	s.once.Do(func() {
		s.toggle.Stop()
		s.ticker.Stop()
		s.scroll.Stop()
		if s.cancel != nil {
			s.cancel()
		}
		close(s.done)
		s.hub.detach(s)
	})
}

// Close unmounts the session.
func (s *Session) Close() {
	s.unmount()
}

func (s *Session) Frame() reveal.Frame {
	return s.scroll.Frame()
}

// push never blocks: it runs inside controller callbacks.
func (s *Session) push(typ string, payload any) {
	msg, err := encode(typ, payload)
	if err != nil {
		log.Printf("Error marshalling %s for session %s: %v", typ, s.ID, err)
		return
	}

	select {
	case <-s.done:
	case s.send <- msg:
	default:
		log.Printf("Session %s send buffer full, dropping %s", s.ID, typ)
	}
}

// readPump feeds scroll samples to the reveal controller. Its exit is the
// unmount signal for every way a connection can end.
func (s *Session) readPump() {
	defer s.unmount()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error for session %s: %v", s.ID, err)
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil || in.Type != TypeScroll {
			continue
		}
		if !s.limiter.Allow() {
			continue
		}

		select {
		case s.samples <- in.ScrollSample:
		default:
		}
	}
}

// writePump is the only goroutine writing to the connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("WebSocket write error for session %s: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
