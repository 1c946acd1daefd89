package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/focusnest/study-tracker/internal/platform/auth"
	"github.com/focusnest/study-tracker/internal/platform/envconfig"
)

// Config encapsulates the runtime configuration for the study tracker.
type Config struct {
	Port       string    `validate:"required,numeric"`
	DataStore  DataStore `validate:"required,oneof=memory firestore"`
	App        AppConfig
	Auth       AuthConfig
	Firestore  FirestoreConfig
	Weeks      WeeksConfig
	Curriculum string
	Rewards    RewardConfig
	RateLimit  RateLimitConfig
	Export     ExportConfig
	// SessionToken is the optional pre-authenticated token for the store session.
	SessionToken string
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps week documents in process memory (local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores week documents in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// AppConfig mirrors the configuration blob supplied by the hosting environment.
type AppConfig struct {
	ProjectID  string `json:"projectId"`
	DatabaseID string `json:"databaseId"`
	AppID      string `json:"appId" validate:"required"`
}

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode `validate:"required,oneof=noop clerk"`
	JWKSURL  string    `validate:"required_if=Mode clerk"`
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
}

// WeeksConfig defines the tracking window.
type WeeksConfig struct {
	Start time.Time
	Count int `validate:"min=1,max=104"`
}

// RewardConfig tunes the reward spinner.
type RewardConfig struct {
	SpinDelay time.Duration
}

// RateLimitConfig bounds writes per user.
type RateLimitConfig struct {
	PerSecond float64 `validate:"gt=0"`
	Burst     int     `validate:"min=1"`
}

// ExportConfig contains Cloud Storage settings for report export.
type ExportConfig struct {
	Bucket string
}

const (
	defaultAppID     = "study-tracker-weekly"
	defaultDatabase  = "(default)"
	defaultWeekStart = "2025-12-29"
)

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	app, err := parseAppConfig(envconfig.Get("STUDY_APP_CONFIG", ""))
	if err != nil {
		return Config{}, err
	}
	app.ProjectID = envconfig.Get("GCP_PROJECT_ID", app.ProjectID)
	app.DatabaseID = envconfig.Get("FIRESTORE_DATABASE", firstNonEmpty(app.DatabaseID, defaultDatabase))
	app.AppID = envconfig.Get("APP_ID", firstNonEmpty(app.AppID, defaultAppID))

	start, err := time.Parse(time.DateOnly, envconfig.Get("WEEK_START_DATE", defaultWeekStart))
	if err != nil {
		return Config{}, fmt.Errorf("WEEK_START_DATE: %w", err)
	}
	count, err := envconfig.GetInt("WEEK_COUNT", 12)
	if err != nil {
		return Config{}, err
	}
	spinDelay, err := envconfig.GetDuration("SPIN_DELAY", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	perSecond, err := envconfig.GetFloat("WRITE_RATE_PER_SEC", 5)
	if err != nil {
		return Config{}, err
	}
	burst, err := envconfig.GetInt("WRITE_BURST", 10)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:      envconfig.Get("PORT", "8080"),
		DataStore: DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		App:       app,
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Weeks:        WeeksConfig{Start: start, Count: count},
		Curriculum:   envconfig.Get("CURRICULUM_FILE", ""),
		Rewards:      RewardConfig{SpinDelay: spinDelay},
		RateLimit:    RateLimitConfig{PerSecond: perSecond, Burst: burst},
		Export:       ExportConfig{Bucket: envconfig.Get("EXPORT_BUCKET", "")},
		SessionToken: envconfig.Get("INITIAL_AUTH_TOKEN", ""),
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.DataStore == DataStoreFirestore && cfg.App.ProjectID == "" {
		return fmt.Errorf("gcp project id required when datastore=firestore")
	}

	if cfg.Rewards.SpinDelay < 0 {
		return fmt.Errorf("SPIN_DELAY must not be negative")
	}

	if cfg.Weeks.Start.Weekday() != time.Monday {
		return fmt.Errorf("WEEK_START_DATE must be a Monday, got %s", cfg.Weeks.Start.Weekday())
	}

	return nil
}

// parseAppConfig decodes the hosting environment's JSON blob. An empty blob yields zero values.
func parseAppConfig(raw string) (AppConfig, error) {
	var app AppConfig
	if strings.TrimSpace(raw) == "" {
		return app, nil
	}
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		return AppConfig{}, fmt.Errorf("STUDY_APP_CONFIG: %w", err)
	}
	return app, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
