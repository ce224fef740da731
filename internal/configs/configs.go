/*
Package configs loads the application's configuration settings.

Values come from environment variables, optionally seeded from a .env file in the working
directory, and are parsed into AppConfig through struct tags.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultAvatarURLTemplate derives an identicon from the display name.
const DefaultAvatarURLTemplate = "https://api.dicebear.com/7.x/initials/svg?seed=%s"

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"3001"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	FrontendURL    string   `env:"FRONTEND_URL"`

	// Chat Settings
	AvatarURLTemplate string `env:"AVATAR_URL_TEMPLATE" envDefault:"https://api.dicebear.com/7.x/initials/svg?seed=%s"`
	MaxContentBytes   int    `env:"MAX_CONTENT_BYTES" envDefault:"5000"`
	MaxDisplayName    int    `env:"MAX_DISPLAY_NAME" envDefault:"64"`

	// Rate Limit Settings
	EventRate float64 `env:"EVENT_RATE" envDefault:"10"`
	EventBurst int    `env:"EVENT_BURST" envDefault:"20"`
	JoinRate  float64 `env:"JOIN_RATE" envDefault:"0.5"`
	JoinBurst int     `env:"JOIN_BURST" envDefault:"10"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads .env (if present) and the process environment into an AppConfig,
// then normalizes and validates it.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize trims origins, drops empty entries and folds FrontendURL into AllowedOrigins.
func (c *AppConfig) normalize() {
	origins := make([]string, 0, len(c.AllowedOrigins)+1)
	seen := make(map[string]struct{})

	for _, origin := range append(c.AllowedOrigins, c.FrontendURL) {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		origins = append(origins, trimmed)
	}

	c.AllowedOrigins = origins
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
}

func (c *AppConfig) validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if strings.Count(c.AvatarURLTemplate, "%s") != 1 {
		return fmt.Errorf("AVATAR_URL_TEMPLATE must contain exactly one %%s placeholder, got %q", c.AvatarURLTemplate)
	}

	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("MAX_CONTENT_BYTES must be positive, got %d", c.MaxContentBytes)
	}

	if c.MaxDisplayName <= 0 {
		return fmt.Errorf("MAX_DISPLAY_NAME must be positive, got %d", c.MaxDisplayName)
	}

	if c.EventRate <= 0 || c.EventBurst <= 0 {
		return fmt.Errorf("EVENT_RATE and EVENT_BURST must be positive")
	}

	if c.JoinRate <= 0 || c.JoinBurst <= 0 {
		return fmt.Errorf("JOIN_RATE and JOIN_BURST must be positive")
	}

	if !c.IsDevelopment() && len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS or FRONTEND_URL is required in %s environment", c.Environment)
	}

	return nil
}
