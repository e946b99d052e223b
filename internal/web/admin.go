// admin.go - privacy-conscious admin area
package web

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/devops-journey/internal/store"
)

const adminCookie = "admin_token"

// untracked paths never reach the visit log.
var untracked = []string{"/static/", "/images/", "/admin/", "/favicon", "/privacy", "/ws", "/api/", "/health"}

// Middleware to check admin authentication
func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Privacy-conscious visitor tracking middleware
func (s *Server) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untracked {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		go func() {
			if err := s.analytics.RecordVisit(context.Background(), ip, ua, path); err != nil {
				log.Printf("Error recording visitor: %v", err)
			}
		}()
		c.Next()
	}
}

// adminCredentials falls back to admin/admin123 in debug mode only. In
// release mode an unset password disables the login.
func (s *Server) adminCredentials() (string, string, bool) {
	user, pass := s.cfg.Admin.Username, s.cfg.Admin.Password
	if user == "" {
		user = "admin"
	}
	if pass == "" {
		if gin.Mode() != gin.DebugMode {
			return "", "", false
		}
		log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
		pass = "admin123"
	}
	return user, pass, true
}

func (s *Server) setupAdminRoutes(r *gin.Engine) {
	log.Printf("Admin access available at: /admin/login")

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		user, pass, enabled := s.adminCredentials()
		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(user)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(pass)) == 1

		if enabled && userOK && passOK {
			// Set secure cookie (24 hours)
			c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", false, true)
			log.Printf("Admin login successful from %s", s.analytics.HashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}

		log.Printf("Failed admin login attempt from %s", s.analytics.HashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	// Protected admin routes group
	admin := r.Group("/admin")
	admin.Use(s.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.stats(c.Request.Context())
		if err != nil {
			log.Printf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	// Admin API endpoints for HTMX/AJAX
	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.analytics.RecentVisits(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"visitors": visitors})
	})

	// Privacy compliance: drop visits past the retention window now
	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		removed, err := s.analytics.Cleanup(c.Request.Context(), s.cfg.Store.Retention)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Privacy cleanup: Removed %d visitor records", removed)
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	})

	// Admin statistics export (for backups or analysis)
	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		log.Printf("Admin stats exported by %s", s.analytics.HashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}

func (s *Server) stats(ctx context.Context) (*store.Stats, error) {
	stats, err := s.analytics.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.LiveSessions = s.hub.Count()
	return stats, nil
}
