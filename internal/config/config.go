// Package config содержит логику чтения конфигурации сервиса сэндвич-бара.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvDevelopment включает подробные ответы об ошибках и журнал разработки.
const EnvDevelopment = "development"

// Config содержит параметры конфигурации сервиса сэндвич-бара.
type Config struct {
	RunAddress   string        `env:"RUN_ADDRESS"`
	DatabaseURI  string        `env:"DATABASE_URI"`
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN"`
	AppEnv       string        `env:"APP_ENV"`
	Timezone     string        `env:"TIMEZONE"`

	DBQueryTimeout  time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"5s"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	AdminName     string `env:"ADMIN_NAME" envDefault:"Admin User"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@sandwichshop.local"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret used to sign access tokens")
	flag.DurationVar(&cfg.JWTExpiresIn, "t", 24*time.Hour, "access token lifetime")
	flag.StringVar(&cfg.AppEnv, "e", "production", "application environment (development or production)")
	flag.StringVar(&cfg.Timezone, "z", "UTC", "time zone for calendar day filters")

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// Validate проверяет параметры, обязательные для запуска сервера.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("database URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, fmt.Errorf("invalid jwt lifetime: %s", c.JWTExpiresIn))
	}
	if c.DBQueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid db query timeout: %s", c.DBQueryTimeout))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateAdmin проверяет параметры утилиты создания администратора.
func (c *Config) ValidateAdmin() error {
	var errs []error

	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("database URI is required"))
	}
	if c.AdminEmail == "" {
		errs = append(errs, errors.New("admin email is required"))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("admin password is required"))
	}

	return errors.Join(errs...)
}

// Location возвращает часовой пояс для календарных фильтров.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment сообщает, запущен ли сервис в режиме разработки.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}
