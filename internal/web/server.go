// Package web serves the portfolio page, its HTMX fragments, the JSON API,
// the live websocket and the admin area.
package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/Zachkp/devops-journey/internal/config"
	"github.com/Zachkp/devops-journey/internal/contact"
	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/live"
	"github.com/Zachkp/devops-journey/internal/store"
)

// Analytics is the visit log the admin area reads from.
type Analytics interface {
	RecordVisit(ctx context.Context, ip, userAgent, path string) error
	Stats(ctx context.Context) (*store.Stats, error)
	RecentVisits(ctx context.Context, limit int) ([]store.Visit, error)
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
	HashIP(ip string) string
	Ping(ctx context.Context) error
}

type Mailer interface {
	Send(msg contact.Message) error
}

type Server struct {
	cfg       *config.Config
	catalog   *content.Catalog
	hub       *live.Hub
	analytics Analytics
	mailer    Mailer
	upgrader  websocket.Upgrader

	adminToken string
	engine     *gin.Engine
}

func New(cfg *config.Config, catalog *content.Catalog, hub *live.Hub, analytics Analytics, mailer Mailer) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		catalog:    catalog,
		hub:        hub,
		analytics:  analytics,
		mailer:     mailer,
		upgrader:   newUpgrader(cfg.Server.AllowedOrigins),
		adminToken: store.RandomToken(),
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	r.Use(s.visitorTrackingMiddleware())

	if err := loadTemplates(r, cfg.Content.TemplatesDir); err != nil {
		return nil, errors.Wrap(err, "failed to load templates")
	}
	if err := mountStatic(r, cfg.Content.StaticDir, cfg.Content.ImagesDir); err != nil {
		return nil, errors.Wrap(err, "failed to mount static assets")
	}

	s.engine = r
	s.setupPageRoutes(r)
	s.setupAPIRoutes(r)
	s.setupAdminRoutes(r)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, "HX-Request", "HX-Target", "HX-Current-URL")
	return c
}

func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] || allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}
