// Package env reads process level settings from the environment and an optional .env file.
package env

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

// Prefix is prepended to every variable name, e.g. ARGO_RT_DATA_DIR.
const Prefix = "ARGO_RT"

// Settings are the process level settings of the realtime service.
// The polled instruments and thresholds live in config.json, not here.
type Settings struct {
	DataDir       string `envconfig:"DATA_DIR" default:".cache/realtime"`
	Provider      string `envconfig:"PROVIDER" default:"sina"`
	PolygonAPIKey string `envconfig:"POLYGON_API_KEY"`
	SinaBaseURL   string `envconfig:"SINA_BASE_URL"`
	Timezone      string `envconfig:"TIMEZONE" default:"Local"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads files (default ".env") into the environment and then maps the
// environment onto Settings. Missing .env files are ignored.
func Load(files ...string) (Settings, error) {
	_ = godotenv.Load(files...)

	var settings Settings
	if err := envconfig.Process(Prefix, &settings); err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read environment", err)
	}

	return settings, nil
}

// Location resolves Timezone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "unknown timezone %q", s.Timezone)
	}

	return loc, nil
}

// ProviderType returns the configured provider.
func (s Settings) ProviderType() provider.ProviderType {
	return provider.ProviderType(s.Provider)
}

// ProviderConfig returns the configuration value expected by provider.NewSnapshotProvider.
func (s Settings) ProviderConfig() any {
	switch s.ProviderType() {
	case provider.ProviderPolygon:
		return provider.PolygonConfig{ApiKey: s.PolygonAPIKey}
	case provider.ProviderSina:
		return provider.SinaConfig{BaseURL: s.SinaBaseURL, HTTPClient: nil}
	default:
		return nil
	}
}
