package provider

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// DefaultRequestTimeout bounds a single HTTP quote request.
const DefaultRequestTimeout = 10 * time.Second

// SinaConfig contains configuration for the Sina HQ quote feed.
type SinaConfig struct {
	// BaseURL overrides the feed endpoint. Defaults to DefaultSinaBaseURL.
	BaseURL string `json:"baseUrl" jsonschema:"title=Base URL,description=Sina HQ endpoint" validate:"omitempty,url"`
	// HTTPClient overrides the HTTP client. Defaults to a client with DefaultRequestTimeout.
	HTTPClient *http.Client `json:"-" validate:"-"`
}

// PolygonConfig contains configuration for Polygon.io ticker snapshots.
type PolygonConfig struct {
	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// Validate validates the SinaConfig.
func (c *SinaConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid sina config", err)
	}

	return nil
}

// Validate validates the PolygonConfig.
func (c *PolygonConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid polygon config", err)
	}

	return nil
}
