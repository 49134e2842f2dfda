package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "CHANNELAUTH_"

// envConfig lists the recognised variables. Pointer fields stay nil when the
// variable is unset, so only explicitly provided values override.
type envConfig struct {
	EndpointAddrHTTP             *string        `env:"HTTP_ADDR"`
	StorageDriver                *string        `env:"STORAGE"`
	DatabaseDSN                  *string        `env:"DATABASE_DSN"`
	AccessTokenSecret            *string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret           *string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenValidityDuration  *time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration *time.Duration `env:"REFRESH_TOKEN_TTL"`
	StoreTimeout                 *time.Duration `env:"STORE_TIMEOUT"`
	LogBackend                   *string        `env:"LOG_BACKEND"`
	LogLevel                     *string        `env:"LOG_LEVEL"`
	CookieSecure                 *bool          `env:"COOKIE_SECURE"`
}

// parseEnv overlays CHANNELAUTH_* variables. environ replaces the process
// environment when non-nil.
func parseEnv(config *Config, environ map[string]string) error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	setString(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setString(&config.StorageDriver, e.StorageDriver)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.AccessTokenSecret, e.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, e.RefreshTokenSecret)
	setString(&config.LogBackend, e.LogBackend)
	setString(&config.LogLevel, e.LogLevel)
	if e.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = *e.AccessTokenValidityDuration
	}
	if e.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = *e.RefreshTokenValidityDuration
	}
	if e.StoreTimeout != nil {
		config.StoreTimeout = *e.StoreTimeout
	}
	if e.CookieSecure != nil {
		config.CookieSecure = *e.CookieSecure
	}
	return nil
}
