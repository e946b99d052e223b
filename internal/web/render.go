package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/reveal"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"mul": func(a, b int) int { return a * b },
	"pct": func(count, total int) float64 {
		if total == 0 {
			return 0
		}
		return float64(count) / float64(total) * 100
	},
	"fixed": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"emphasis": func(side reveal.Side, want string) string {
		if side.String() == want {
			return "emphasized"
		}
		return ""
	},
	"statusClass": func(s content.Status) string {
		switch s {
		case content.StatusHealthy:
			return "status-healthy"
		case content.StatusWarning:
			return "status-warning"
		case content.StatusCritical:
			return "status-critical"
		}
		return "status-unknown"
	},
	"severityClass": func(s content.Severity) string {
		return "severity-" + string(s)
	},
}

// loadTemplates installs the page templates on r, from dir when set and from
// the embedded copies otherwise.
func loadTemplates(r *gin.Engine, dir string) error {
	var (
		tmpl *template.Template
		err  error
	)
	if dir != "" {
		tmpl, err = template.New("").Funcs(funcs).ParseGlob(filepath.Join(dir, "*.html"))
	} else {
		tmpl, err = template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	}
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	return nil
}

func mountStatic(r *gin.Engine, staticDir, imagesDir string) error {
	if staticDir != "" {
		r.Static("/static", staticDir)
	} else {
		sub, err := fs.Sub(staticFS, "static")
		if err != nil {
			return err
		}
		r.StaticFS("/static", http.FS(sub))
	}

	if imagesDir != "" {
		r.Static("/images", imagesDir)
	}
	return nil
}
