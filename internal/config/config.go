// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the server.
type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBURL    string `env:"DB_URL" envDefault:"data/taskflow.db"`

	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	SessionSecret string        `env:"SESSION_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	SessionMaxAge int           `env:"SESSION_MAX_AGE" envDefault:"2592000"` //30 days
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:8080/auth/google/callback"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"DEBUG"`
}

// Load reads an optional .env file and then parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment variables only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.JWTSecret
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL must be positive")
	}
	return cfg, nil
}

// GoogleEnabled reports whether provider sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
