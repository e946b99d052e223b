package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/reveal"
)

type harness struct {
	hub    *Hub
	sched  *reveal.ManualScheduler
	server *httptest.Server
	cancel context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, Options{
		Rand:        func() float64 { return 1 },
		ScrollRate:  1000,
		ScrollBurst: 1000,
	})
}

func newHarnessWith(t *testing.T, opts Options) *harness {
	t.Helper()

	sched := reveal.NewManualScheduler()
	hub := NewHub(sched, content.Default(), opts)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn)
	}))

	h := &harness{hub: hub, sched: sched, server: server, cancel: cancel}
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return h
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func next(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg rawMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			return msg.Payload
		}
	}
}

func TestSessionMountSendsInitialState(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	var hello Hello
	require.NoError(t, json.Unmarshal(next(t, conn, TypeHello), &hello))
	assert.NotEmpty(t, hello.Session)
	assert.EqualValues(t, 5000, hello.TogglePeriod)
	assert.EqualValues(t, 3000, hello.TickerPeriod)

	assert.JSONEq(t, `{"side":"blue"}`, string(next(t, conn, TypeToggle)))

	var metrics []content.MetricData
	require.NoError(t, json.Unmarshal(next(t, conn, TypeMetrics), &metrics))
	assert.Len(t, metrics, 6)

	var frame reveal.Frame
	require.NoError(t, json.Unmarshal(next(t, conn, TypeReveal), &frame))
	assert.Equal(t, 0, frame.Count)
	assert.Equal(t, 8, frame.Total)

	assert.Eventually(t, func() bool { return h.hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, h.sched.Jobs())
}

func TestSessionPushesTicks(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	next(t, conn, TypeReveal)

	h.sched.Advance(reveal.DefaultTogglePeriod)
	assert.JSONEq(t, `{"side":"green"}`, string(next(t, conn, TypeToggle)))

	var metrics []content.MetricData
	require.NoError(t, json.Unmarshal(next(t, conn, TypeMetrics), &metrics))
	for _, m := range metrics {
		assert.LessOrEqual(t, m.Value, reveal.MaxValue, m.Name)
	}
	// rand pinned at 1 pushes CPU from 65 to 70
	assert.InDelta(t, 70.0, metrics[0].Value, 1e-9)
}

func TestSessionRevealFollowsScroll(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	next(t, conn, TypeReveal)

	send := func(scrollY float64) reveal.Frame {
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "scroll", "scrollY": scrollY, "sectionTop": 2000, "viewportHeight": 800,
		}))
		var f reveal.Frame
		require.NoError(t, json.Unmarshal(next(t, conn, TypeReveal), &f))
		return f
	}

	assert.Equal(t, []int{0, 1, 2, 3}, send(1600).Visible)
	assert.Len(t, send(2400).Visible, 8)
	assert.Equal(t, []int{0, 1, 2, 3}, send(1600).Visible)
	assert.Empty(t, send(0).Visible)
}

func TestSessionIgnoresGarbage(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	next(t, conn, TypeReveal)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "click"}))
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "scroll", "scrollY": 2000, "sectionTop": 2000, "viewportHeight": 800,
	}))

	var f reveal.Frame
	require.NoError(t, json.Unmarshal(next(t, conn, TypeReveal), &f))
	assert.Equal(t, 8, f.Count)
}

func TestSessionUnmountReleasesControllers(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	next(t, conn, TypeReveal)
	require.Eventually(t, func() bool { return h.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	// abrupt close, no close frame
	conn.UnderlyingConn().Close()

	assert.Eventually(t, func() bool {
		return h.hub.Count() == 0 && h.sched.Jobs() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// nothing fires after unmount
	h.sched.Advance(time.Hour)
	assert.Equal(t, 0, h.sched.Jobs())
}

func TestHubShutdownClosesSessions(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	next(t, conn, TypeReveal)
	require.Eventually(t, func() bool { return h.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	h.cancel()

	assert.Eventually(t, func() bool { return h.sched.Jobs() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.hub.Count())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestSessionScrollRateLimit(t *testing.T) {
	sched := reveal.NewManualScheduler()
	hub := NewHub(sched, content.Default(), Options{ScrollRate: 1, ScrollBurst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	var session *Session
	attached := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session = hub.Attach(conn)
		close(attached)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-attached
	next(t, conn, TypeReveal)

	for _, y := range []float64{1600, 2400, 2400} {
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "scroll", "scrollY": y, "sectionTop": 2000, "viewportHeight": 800,
		}))
	}

	// only the first sample fits the burst
	var f reveal.Frame
	require.NoError(t, json.Unmarshal(next(t, conn, TypeReveal), &f))
	assert.Equal(t, 4, f.Count)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 4, session.Frame().Count)
}

func TestAttachAfterShutdown(t *testing.T) {
	sched := reveal.NewManualScheduler()
	hub := NewHub(sched, content.Default(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	upgrader := websocket.Upgrader{}
	result := make(chan *Session, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		result <- hub.Attach(conn)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Nil(t, <-result)
	assert.Equal(t, 0, sched.Jobs())
}

func TestOptionsJitterDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	require.NotNil(t, opts.Jitter)
	assert.Equal(t, reveal.DefaultJitter, *opts.Jitter)

	opts = Options{Jitter: &reveal.Jitter{}}.withDefaults()
	assert.Equal(t, reveal.Jitter{}, *opts.Jitter)
}

func TestSessionZeroJitterFreezesGauges(t *testing.T) {
	h := newHarnessWith(t, Options{
		Jitter:      &reveal.Jitter{},
		Rand:        func() float64 { return 1 },
		ScrollRate:  1000,
		ScrollBurst: 1000,
	})
	conn := h.dial(t)
	next(t, conn, TypeReveal)

	h.sched.Advance(reveal.DefaultTickerPeriod)

	var metrics []content.MetricData
	require.NoError(t, json.Unmarshal(next(t, conn, TypeMetrics), &metrics))
	for i, m := range content.Default().Gauges {
		assert.InDelta(t, m.Value, metrics[i].Value, 1e-9, m.Name)
	}
}
