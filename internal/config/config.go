// Package config loads and persists the polling service configuration.
//
// The configuration file is written by external actors (the CLI, a dashboard)
// at any time. Only the recognized keys ever persist: unknown keys are dropped
// on save so the file cannot accumulate junk.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-realtime/internal/atomicfile"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
	"github.com/rxtech-lab/argo-realtime/pkg/utils"
)

// Defaults used when the configuration file is missing or unreadable.
const (
	DefaultPollIntervalSec   = 300
	DefaultAlertThresholdPct = 3.0
	DefaultRetentionDays     = 7

	// MinPollIntervalSec is the floor applied to the configured interval.
	MinPollIntervalSec = 30
)

// ServiceConfig holds the configuration of the polling service.
type ServiceConfig struct {
	// TrackedCodes is the ordered set of instrument identifiers to poll.
	TrackedCodes []string `json:"tracked_codes" jsonschema:"title=Tracked Codes,description=Instrument identifiers to poll in order" validate:"unique,dive,required"`
	// PollIntervalSec is the pause between polls. Values below 30 are raised to 30 at runtime.
	PollIntervalSec int `json:"poll_interval_sec" jsonschema:"title=Poll Interval,description=Seconds between polls (minimum 30 enforced),default=300" validate:"gte=1"`
	// AlertThresholdPct flags a record when the absolute percent change reaches it.
	AlertThresholdPct float64 `json:"alert_threshold_pct" jsonschema:"title=Alert Threshold,description=Absolute percent change that raises an alert,default=3" validate:"gte=0"`
	// RetentionDays is how long compressed daily logs are kept.
	RetentionDays int `json:"retention_days" jsonschema:"title=Retention Days,description=Days to keep compressed daily logs,default=7" validate:"gte=0"`
}

// recognizedKeys are the only top-level keys that ever persist.
var recognizedKeys = []string{"tracked_codes", "poll_interval_sec", "alert_threshold_pct", "retention_days"}

// Default returns the built-in configuration.
func Default() ServiceConfig {
	return ServiceConfig{
		TrackedCodes:      []string{},
		PollIntervalSec:   DefaultPollIntervalSec,
		AlertThresholdPct: DefaultAlertThresholdPct,
		RetentionDays:     DefaultRetentionDays,
	}
}

// PollInterval returns the configured interval with the 30 second floor applied.
func (c ServiceConfig) PollInterval() time.Duration {
	sec := c.PollIntervalSec
	if sec < MinPollIntervalSec {
		sec = MinPollIntervalSec
	}

	return time.Duration(sec) * time.Second
}

// Validate validates the configuration fields.
func (c ServiceConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid service config", err)
	}

	return nil
}

// WithTrackedCodes returns a copy of c tracking codes instead.
func (c ServiceConfig) WithTrackedCodes(codes []string) ServiceConfig {
	c.TrackedCodes = append([]string(nil), codes...)

	return c
}

// Load reads the configuration at path.
//
// A missing file yields the defaults and no error. A file that cannot be read or
// decoded yields the defaults together with an ErrCodeConfigCorrupt error so the
// caller can decide whether to keep a previously loaded value. Keys absent from
// the file keep their default values.
func Load(path string) (ServiceConfig, error) {
	cfg := Default()

	found, err := atomicfile.ReadJSON(path, &cfg)
	if err != nil {
		return Default(), errors.Wrap(errors.ErrCodeConfigCorrupt, "failed to load service config", err)
	}

	if !found {
		return Default(), nil
	}

	if cfg.TrackedCodes == nil {
		cfg.TrackedCodes = []string{}
	}

	return cfg, nil
}

// Save validates cfg and persists it atomically.
func Save(path string, cfg ServiceConfig) error {
	if cfg.TrackedCodes == nil {
		cfg.TrackedCodes = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	return atomicfile.WriteJSON(path, cfg)
}

// SaveRaw merges the recognized keys of raw over the defaults and persists the
// result. Unknown keys are dropped.
func SaveRaw(path string, raw map[string]any) (ServiceConfig, error) {
	clean := make(map[string]any, len(recognizedKeys))
	for _, key := range recognizedKeys {
		if value, ok := raw[key]; ok {
			clean[key] = value
		}
	}

	data, err := json.Marshal(clean)
	if err != nil {
		return ServiceConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config values", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ServiceConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "config values have the wrong type", err)
	}

	if err := Save(path, cfg); err != nil {
		return ServiceConfig{}, err
	}

	return cfg, nil
}

// Schema returns the JSON schema describing config.json.
func Schema() (string, error) {
	schema, err := utils.GetSchemaFromConfig(&ServiceConfig{}) //nolint:exhaustruct // empty config for schema generation
	if err != nil {
		return "", fmt.Errorf("failed to generate config schema: %w", err)
	}

	return schema, nil
}
