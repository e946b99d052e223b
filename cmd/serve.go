package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Zachkp/devops-journey/internal/config"
	"github.com/Zachkp/devops-journey/internal/contact"
	"github.com/Zachkp/devops-journey/internal/content"
	"github.com/Zachkp/devops-journey/internal/live"
	"github.com/Zachkp/devops-journey/internal/reveal"
	"github.com/Zachkp/devops-journey/internal/store"
	"github.com/Zachkp/devops-journey/internal/web"
)

// cleanupInterval is how often visits past the retention window are purged.
const cleanupInterval = 24 * time.Hour

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the portfolio web server.

Every open page gets its own live session over a websocket: a blue/green
toggle, a metric ticker and a scroll reveal, all stopped when the page goes
away.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	var cfg *config.Config
	cfg, err = config.Load(getConfigDir())
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	var catalog *content.Catalog
	catalog, err = content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}

	var db *store.Store
	db, err = store.Open(cfg.Store.Path)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	defer db.Close()
	log.Printf("Visitor database ready at %s", cfg.Store.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := reveal.NewCronScheduler()
	defer sched.Close()

	purge := func() {
		removed, perr := db.Cleanup(ctx, cfg.Store.Retention)
		if perr != nil {
			log.Printf("Error cleaning old visitor data: %v", perr)
			return
		}
		if removed > 0 {
			log.Printf("Privacy cleanup: Removed %d old visitor records", removed)
		}
	}
	purge()
	cancelPurge := sched.Every(cleanupInterval, purge)
	defer cancelPurge()

	jitter := cfg.Reveal.Jitter()
	hub := live.NewHub(sched, catalog, live.Options{
		TogglePeriod: cfg.Reveal.TogglePeriod,
		TickerPeriod: cfg.Reveal.TickerPeriod,
		Jitter:       &jitter,
		ScrollRate:   rate.Limit(cfg.Reveal.ScrollRate),
		ScrollBurst:  cfg.Reveal.ScrollBurst,
	})
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	mailer := contact.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.To)
	if !mailer.Configured() {
		log.Println("SMTP credentials not set, the contact form will report an error")
	}

	var srv *web.Server
	srv, err = web.New(cfg, catalog, hub, db, mailer)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s", cfg.Server.Port)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; the hub
	// closes them once ctx is done.
	err = httpServer.Shutdown(shutdownCtx)
	<-hubDone
	if err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	log.Println("Server exited")
	return nil
}
