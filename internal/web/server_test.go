package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/devops-journey/internal/config"
	"github.com/Zachkp/devops-journey/internal/contact"
	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/live"
	"github.com/Zachkp/devops-journey/internal/reveal"
	"github.com/Zachkp/devops-journey/internal/store"
)

type fakeAnalytics struct {
	mu      sync.Mutex
	visits  []store.Visit
	pingErr error
}

func (f *fakeAnalytics) RecordVisit(_ context.Context, ip, userAgent, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits = append(f.visits, store.Visit{
		ID:        len(f.visits) + 1,
		HashedIP:  f.HashIP(ip),
		UserAgent: userAgent,
		Path:      path,
		Timestamp: time.Now(),
	})
	return nil
}

func (f *fakeAnalytics) Stats(context.Context) (*store.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &store.Stats{TotalVisitors: int64(len(f.visits))}, nil
}

func (f *fakeAnalytics) RecentVisits(context.Context, int) ([]store.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Visit(nil), f.visits...), nil
}

func (f *fakeAnalytics) Cleanup(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeAnalytics) HashIP(ip string) string {
	return "hashed-" + ip
}

func (f *fakeAnalytics) Ping(context.Context) error {
	return f.pingErr
}

type fakeMailer struct {
	err  error
	sent []contact.Message
}

func (f *fakeMailer) Send(msg contact.Message) error {
	if f.err != nil {
		return f.err
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testServer struct {
	*Server
	mailer *fakeMailer
	sched  *reveal.ManualScheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", AllowedOrigins: []string{"*"}},
		Reveal: config.RevealConfig{
			TogglePeriod: reveal.DefaultTogglePeriod,
			TickerPeriod: reveal.DefaultTickerPeriod,
			Spread:       reveal.DefaultSpread,
			UptimeStep:   reveal.DefaultUptimeStep,
			ScrollRate:   100,
			ScrollBurst:  100,
		},
		Store: config.StoreConfig{Retention: 24 * time.Hour},
		Admin: config.AdminConfig{Username: "captain", Password: "s3cret"},
		App:   config.AppConfig{Name: "devops-journey", Version: "test"},
	}

	catalog := content.Default()
	sched := reveal.NewManualScheduler()
	hub := live.NewHub(sched, catalog, live.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	mailer := &fakeMailer{}
	srv, err := New(cfg, catalog, hub, &fakeAnalytics{}, mailer)
	require.NoError(t, err)

	return &testServer{Server: srv, mailer: mailer, sched: sched}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (ts *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req)
}

func TestIndexRendersEverySection(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, id := range []string{`id="landing"`, `id="container-ship"`, `id="islands"`, `id="clouds"`, `id="tower"`, `id="lighthouse"`} {
		assert.Contains(t, body, id)
	}
	assert.Contains(t, body, `data-toggle-period="5000"`)
	assert.Contains(t, body, "Kubernetes Cluster")
	assert.Contains(t, body, "0/8")
	assert.NotContains(t, body, `class="container visible"`)
}

func TestSectionFragments(t *testing.T) {
	ts := newTestServer(t)

	for name := range sections {
		t.Run(name, func(t *testing.T) {
			rec := ts.get("/sections/" + name)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "<html")
		})
	}

	rec := ts.get("/sections/engine-room")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No such section")
}

func TestProjectDialog(t *testing.T) {
	ts := newTestServer(t)
	project := ts.catalog.Projects[0]

	rec := ts.get("/projects/" + project.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), project.Problem)

	rec = ts.get("/projects/atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevealEndpoint(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		visible []int
	}{
		{"halfway", "scrollY=1600&sectionTop=2000&viewportHeight=800", []int{0, 1, 2, 3}},
		{"above section", "scrollY=0&sectionTop=2000&viewportHeight=800", []int{}},
		{"past section", "scrollY=5000&sectionTop=2000&viewportHeight=800", []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{"custom item count", "scrollY=1600&sectionTop=2000&viewportHeight=800&n=4", []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.get("/api/reveal?" + tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var frame reveal.Frame
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
			assert.Equal(t, tt.visible, frame.Visible)
			assert.Equal(t, len(tt.visible), frame.Count)
		})
	}

	rec := ts.get("/api/reveal?scrollY=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.get("/api/reveal?scrollY=5000&sectionTop=2000&viewportHeight=800&n=1000")
	require.Equal(t, http.StatusOK, rec.Code)
	var frame reveal.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
	assert.Equal(t, 1000, frame.Count)

	for _, n := range []string{"1001", "5000000", "4611686018427387904"} {
		rec = ts.get("/api/reveal?scrollY=5000&sectionTop=2000&viewportHeight=800&n=" + n)
		assert.Equal(t, http.StatusBadRequest, rec.Code, n)
		assert.Contains(t, rec.Body.String(), "at most 1000", n)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for range 20 {
		rec := ts.get("/api/metrics")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Metrics []content.MetricData `json:"metrics"`
			Alerts  []content.Alert      `json:"alerts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Metrics, len(ts.catalog.Gauges))
		assert.Len(t, body.Alerts, len(ts.catalog.Alerts))

		for i, m := range body.Metrics {
			assert.GreaterOrEqual(t, m.Value, reveal.MinValue)
			assert.LessOrEqual(t, m.Value, reveal.MaxValue)
			if m.Monotonic {
				assert.GreaterOrEqual(t, m.Value, ts.catalog.Gauges[i].Value)
			}
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Zero(t, health.Sessions)

	ts.analytics.(*fakeAnalytics).pingErr = errors.New("database is locked")
	rec = ts.get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
}

func TestContact(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.postForm("/contact", url.Values{
			"fullName": {"Ada"},
			"email":    {"ada@example.com"},
			"message":  {"Ahoy"},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Thank you")
		require.Len(t, ts.mailer.sent, 1)
		assert.Equal(t, "Ada", ts.mailer.sent[0].Name)
	})

	t.Run("invalid input", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.postForm("/contact", url.Values{"fullName": {"Ada"}, "email": {"nope"}})
		assert.Contains(t, rec.Body.String(), "valid email")
		assert.Empty(t, ts.mailer.sent)
	})

	t.Run("delivery failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.mailer.err = errors.Wrap(contact.ErrNotConfigured, "send")
		rec := ts.postForm("/contact", url.Values{
			"fullName": {"Ada"},
			"email":    {"ada@example.com"},
			"message":  {"Ahoy"},
		})
		assert.Contains(t, rec.Body.String(), "try again later")
	})
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/admin/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = ts.postForm("/admin/login", url.Values{"username": {"captain"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = ts.postForm("/admin/login", url.Values{"username": {"captain"}, "password": {"s3cret"}})
	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = ts.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Live sessions")
}

func TestVisitorTracking(t *testing.T) {
	ts := newTestServer(t)
	analytics := ts.analytics.(*fakeAnalytics)

	ts.get("/")
	ts.get("/health")
	req := httptest.NewRequest(http.MethodGet, "/sections/tower", nil)
	req.Header.Set("DNT", "1")
	ts.do(req)

	assert.Eventually(t, func() bool {
		visits, _ := analytics.RecentVisits(context.Background(), 10)
		return len(visits) == 1 && visits[0].Path == "/"
	}, time.Second, 10*time.Millisecond)
}

func TestWebsocketSession(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.Handler())
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg live.Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, live.TypeHello, msg.Type)

	assert.Eventually(t, func() bool { return ts.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return ts.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return ts.sched.Jobs() == 0 }, time.Second, 10*time.Millisecond)
}
