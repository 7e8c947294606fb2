package folio

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Development fallbacks. Production deployments must override both.
const (
	DefaultSessionSecret = "dev-secret"
	DefaultAdminPassword = "adminpass"
)

// Config holds all configuration for a folio site, read from the environment.
type Config struct {
	Name        string `env:"SITE_NAME" envDefault:"Portfolio"`
	URL         string `env:"SITE_URL" envDefault:"http://localhost:5003"`
	Description string `env:"SITE_DESCRIPTION"`

	Addr string `env:"ADDR" envDefault:":5003"`
	Port string `env:"PORT"` // overrides the port of Addr when set

	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/content.db"`
	UploadsDir   string `env:"UPLOADS_DIR" envDefault:"static/uploads"`
	MaxUploadMB  int    `env:"MAX_UPLOAD_MB" envDefault:"16"`

	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"adminpass"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"dev-secret"`
	CookieSecure  bool   `env:"COOKIE_SECURE" envDefault:"false"`

	ContactPerMinute int `env:"CONTACT_RATE_PER_MINUTE" envDefault:"5"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"ENV" envDefault:"development"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "parse config")
	}
	cfg.setDefaults()
	return cfg, nil
}

// setDefaults fills zero values for configs built in code rather than parsed.
func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:5003"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":5003"
	}
	if c.Port != "" {
		c.Addr = ":" + strings.TrimPrefix(c.Port, ":")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "static/uploads"
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 16
	}
	if c.AdminPassword == "" {
		c.AdminPassword = DefaultAdminPassword
	}
	if c.SessionSecret == "" {
		c.SessionSecret = DefaultSessionSecret
	}
	if c.ContactPerMinute <= 0 {
		c.ContactPerMinute = 5
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// UsesInsecureDefaults reports whether the session secret or admin password
// still carries its development fallback.
func (c Config) UsesInsecureDefaults() bool {
	return c.SessionSecret == DefaultSessionSecret || c.AdminPassword == DefaultAdminPassword
}

// IsDevelopment reports whether the site runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// warnInsecure logs each development fallback still in use, at error level
// outside development.
func (c Config) warnInsecure(logger logrus.FieldLogger) {
	if !c.UsesInsecureDefaults() {
		return
	}
	logf := logger.Warn
	if !c.IsDevelopment() {
		logf = logger.Error
	}
	if c.SessionSecret == DefaultSessionSecret {
		logf("SESSION_SECRET is the development default; set it before deploying")
	}
	if c.AdminPassword == DefaultAdminPassword {
		logf("ADMIN_PASSWORD is the development default; set it before deploying")
	}
}
