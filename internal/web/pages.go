package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/Zachkp/devops-journey/internal/contact"
	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/reveal"
)

// sections maps fragment names to their templates.
var sections = map[string]string{
	"landing":    "section-landing",
	"ship":       "section-ship",
	"islands":    "section-islands",
	"clouds":     "section-clouds",
	"tower":      "section-tower",
	"lighthouse": "section-lighthouse",
}

// pageData is the server-side first frame of every controller. The live
// session takes over from here once the websocket connects.
type pageData struct {
	Copy           Copy
	Catalog        *content.Catalog
	Side           reveal.Side
	Metrics        []content.MetricData
	Frame          reveal.Frame
	CloudsFirst    []content.CloudService
	CloudsRest     []content.CloudService
	TogglePeriodMs int64
	TickerPeriodMs int64
	Year           int
}

func (s *Server) page() pageData {
	aws := s.catalog.Clouds.AWS
	split := min(3, len(aws))

	return pageData{
		Copy:           SiteCopy,
		Catalog:        s.catalog,
		Side:           reveal.Blue,
		Metrics:        s.catalog.Metrics(),
		Frame:          reveal.RevealFrame(0, len(s.catalog.Containers)),
		CloudsFirst:    aws[:split],
		CloudsRest:     aws[split:],
		TogglePeriodMs: s.cfg.Reveal.TogglePeriod.Milliseconds(),
		TickerPeriodMs: s.cfg.Reveal.TickerPeriod.Milliseconds(),
		Year:           time.Now().Year(),
	}
}

func (s *Server) setupPageRoutes(r *gin.Engine) {
	// Home page route
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", s.page())
	})

	// HTMX section fragments
	r.GET("/sections/:name", func(c *gin.Context) {
		name, ok := sections[c.Param("name")]
		if !ok {
			c.HTML(http.StatusNotFound, "error.html", gin.H{"error": "No such section"})
			return
		}
		c.HTML(http.StatusOK, name, s.page())
	})

	// Project detail dialog
	r.GET("/projects/:id", func(c *gin.Context) {
		project, ok := s.catalog.Project(c.Param("id"))
		if !ok {
			c.HTML(http.StatusNotFound, "error.html", gin.H{"error": "No such project"})
			return
		}
		c.HTML(http.StatusOK, "project-dialog.html", project)
	})

	// HTMX Contact form endpoint - returns just the form HTML
	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})

	// Handle contact form submission with HTMX
	r.POST("/contact", func(c *gin.Context) {
		msg := contact.Message{
			Name:  c.PostForm("fullName"),
			Email: c.PostForm("email"),
			Body:  c.PostForm("message"),
		}

		if err := s.mailer.Send(msg); err != nil {
			text := "Sorry, there was an error sending your message. Please try again later."
			if errors.Is(err, contact.ErrInvalidInput) {
				text = "Please fill in your name, a valid email and a message."
			}
			c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": text})
			return
		}

		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	})

	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})
}
