package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/Zachkp/devops-journey/internal/reveal"
)

type Config struct {
	Server  ServerConfig
	Reveal  RevealConfig
	Content ContentConfig
	Store   StoreConfig
	Admin   AdminConfig
	SMTP    SMTPConfig
	App     AppConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	AllowedOrigins []string
	ShutdownGrace  time.Duration
}

// RevealConfig tunes the live controllers of every page session.
type RevealConfig struct {
	TogglePeriod time.Duration
	TickerPeriod time.Duration
	Spread       float64
	UptimeStep   float64
	ScrollRate   float64
	ScrollBurst  int
}

type ContentConfig struct {
	Path         string
	TemplatesDir string
	StaticDir    string
	ImagesDir    string
}

type StoreConfig struct {
	Path      string
	Retention time.Duration
}

type AdminConfig struct {
	Username string
	Password string
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	To       string
}

type AppConfig struct {
	Name    string
	Version string
}

// keys maps every config key to the environment variable that overrides it.
var keys = map[string]string{
	"server.port":            "PORT",
	"server.mode":            "GIN_MODE",
	"server.allowed_origins": "ALLOWED_ORIGINS",
	"server.shutdown_grace":  "SHUTDOWN_GRACE",
	"reveal.toggle_period":   "TOGGLE_PERIOD",
	"reveal.ticker_period":   "TICKER_PERIOD",
	"reveal.spread":          "METRIC_SPREAD",
	"reveal.uptime_step":     "UPTIME_STEP",
	"reveal.scroll_rate":     "SCROLL_RATE",
	"reveal.scroll_burst":    "SCROLL_BURST",
	"content.path":           "CONTENT_PATH",
	"content.templates_dir":  "TEMPLATES_DIR",
	"content.static_dir":     "STATIC_DIR",
	"content.images_dir":     "IMAGES_DIR",
	"store.path":             "DB_PATH",
	"store.retention":        "VISITOR_RETENTION",
	"admin.username":         "ADMIN_USERNAME",
	"admin.password":         "ADMIN_PASSWORD",
	"smtp.host":              "SMTP_HOST",
	"smtp.port":              "SMTP_PORT",
	"smtp.user":              "SMTP_USER",
	"smtp.password":          "SMTP_PASS",
	"smtp.to":                "TO_EMAIL",
	"app.name":               "APP_NAME",
	"app.version":            "APP_VERSION",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.shutdown_grace", 10*time.Second)
	v.SetDefault("reveal.toggle_period", reveal.DefaultTogglePeriod)
	v.SetDefault("reveal.ticker_period", reveal.DefaultTickerPeriod)
	v.SetDefault("reveal.spread", reveal.DefaultSpread)
	v.SetDefault("reveal.uptime_step", reveal.DefaultUptimeStep)
	v.SetDefault("reveal.scroll_rate", 30.0)
	v.SetDefault("reveal.scroll_burst", 10)
	v.SetDefault("store.path", "./data/visitors.db")
	v.SetDefault("store.retention", 365*24*time.Hour)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("app.name", "devops-journey")
	v.SetDefault("app.version", "1.0.0")
}

// Load reads an optional .env file, an optional config.yaml from dir and the
// environment, in increasing order of precedence.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", env)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		log.Printf("Using config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			Mode:           v.GetString("server.mode"),
			AllowedOrigins: splitList(v.GetString("server.allowed_origins")),
			ShutdownGrace:  v.GetDuration("server.shutdown_grace"),
		},
		Reveal: RevealConfig{
			TogglePeriod: v.GetDuration("reveal.toggle_period"),
			TickerPeriod: v.GetDuration("reveal.ticker_period"),
			Spread:       v.GetFloat64("reveal.spread"),
			UptimeStep:   v.GetFloat64("reveal.uptime_step"),
			ScrollRate:   v.GetFloat64("reveal.scroll_rate"),
			ScrollBurst:  v.GetInt("reveal.scroll_burst"),
		},
		Content: ContentConfig{
			Path:         v.GetString("content.path"),
			TemplatesDir: v.GetString("content.templates_dir"),
			StaticDir:    v.GetString("content.static_dir"),
			ImagesDir:    v.GetString("content.images_dir"),
		},
		Store: StoreConfig{
			Path:      v.GetString("store.path"),
			Retention: v.GetDuration("store.retention"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetString("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			To:       v.GetString("smtp.to"),
		},
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Version: v.GetString("app.version"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return errors.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Reveal.TogglePeriod <= 0 {
		return errors.Errorf("TOGGLE_PERIOD must be positive, got %s", c.Reveal.TogglePeriod)
	}
	if c.Reveal.TickerPeriod <= 0 {
		return errors.Errorf("TICKER_PERIOD must be positive, got %s", c.Reveal.TickerPeriod)
	}
	if c.Reveal.Spread < 0 || c.Reveal.UptimeStep < 0 {
		return errors.New("METRIC_SPREAD and UPTIME_STEP must not be negative")
	}
	if c.Reveal.ScrollRate <= 0 || c.Reveal.ScrollBurst <= 0 {
		return errors.New("SCROLL_RATE and SCROLL_BURST must be positive")
	}
	return nil
}

// Jitter is the ticker movement described by the config.
func (r RevealConfig) Jitter() reveal.Jitter {
	return reveal.Jitter{Spread: r.Spread, UptimeStep: r.UptimeStep}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
