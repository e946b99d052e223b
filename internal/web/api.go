package web

import (
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/devops-journey/internal/reveal"
)

var randFloat reveal.Rand = rand.Float64

// maxRevealItems bounds the n a client may ask a reveal frame for.
const maxRevealItems = 1000

type revealQuery struct {
	reveal.ScrollSample
	Items int `form:"n"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

func (s *Server) setupAPIRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if err := s.analytics.Ping(c.Request.Context()); err != nil {
			log.Printf("Health check: visitor database unreachable: %v", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, HealthResponse{
			Status:   status,
			Service:  s.cfg.App.Name,
			Version:  s.cfg.App.Version,
			Sessions: s.hub.Count(),
		})
	})

	api := r.Group("/api")

	// Stateless reveal frame for one scroll position
	api.GET("/reveal", func(c *gin.Context) {
		var q revealQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if q.Items > maxRevealItems {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("n must be at most %d", maxRevealItems)})
			return
		}
		n := q.Items
		if n <= 0 {
			n = len(s.catalog.Containers)
		}
		c.JSON(http.StatusOK, reveal.RevealFrame(q.Progress(), n))
	})

	// One fabricated dashboard reading
	api.GET("/metrics", func(c *gin.Context) {
		metrics := reveal.Perturb(s.catalog.Metrics(), s.cfg.Reveal.Jitter(), randFloat)
		c.JSON(http.StatusOK, gin.H{
			"metrics": metrics,
			"alerts":  s.catalog.Alerts,
			"cluster": s.catalog.Cluster,
		})
	})

	api.GET("/content", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.catalog)
	})

	r.GET("/ws", func(c *gin.Context) {
		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		if s.hub.Attach(conn) == nil {
			log.Printf("WebSocket refused, server shutting down: %s", conn.RemoteAddr())
		}
	})
}
