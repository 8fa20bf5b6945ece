package config

import (
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Timing   TimingConfig
}

type AppConfig struct {
	Version  string
	Debug    bool
	UserName string
}

type PathsConfig struct {
	BaseDir string
	Cursors string
}

type DatabaseConfig struct {
	// MessagesURI is the sqlite DSN of the local message cache.
	MessagesURI string

	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// TimingConfig carries the coordination heuristics. The defaults are tuned
// to the reference transport's latency profile; deployments on a different
// transport override them via environment.
type TimingConfig struct {
	TypingTimeout     time.Duration
	PresencePoll      time.Duration
	JoinSettleDelay   time.Duration
	JoinSafetyTimeout time.Duration
	NotifyAutoDismiss time.Duration
}

// Validate rejects non-positive durations before any coordinator arms a
// timer with them.
func (t TimingConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.TypingTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&t.PresencePoll, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&t.JoinSettleDelay, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&t.JoinSafetyTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&t.NotifyAutoDismiss, validation.Required, validation.Min(time.Millisecond)),
	)
}

// DefaultTiming returns the reference heuristics.
func DefaultTiming() TimingConfig {
	return TimingConfig{
		TypingTimeout:     3000 * time.Millisecond,
		PresencePoll:      1000 * time.Millisecond,
		JoinSettleDelay:   50 * time.Millisecond,
		JoinSafetyTimeout: 8000 * time.Millisecond,
		NotifyAutoDismiss: 5000 * time.Millisecond,
	}
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	appCfg := AppConfig{
		Version:  "v1.2.0",
		Debug:    getEnvBool("APP_DEBUG", false),
		UserName: getEnv("APP_USER_NAME", "anonymous"),
	}

	pathsCfg := PathsConfig{
		BaseDir: baseDir,
		Cursors: getEnv("PATH_CURSORS", filepath.Join(baseDir, "cursors")),
	}

	dbCfg := DatabaseConfig{
		MessagesURI:     getEnv("DB_MESSAGES_URI", filepath.Join(baseDir, "messages.db")),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "skylark:"),
	}

	timing := DefaultTiming()
	timing.TypingTimeout = getEnvDurationMs("TYPING_TIMEOUT_MS", timing.TypingTimeout)
	timing.PresencePoll = getEnvDurationMs("PRESENCE_POLL_MS", timing.PresencePoll)
	timing.JoinSettleDelay = getEnvDurationMs("JOIN_SETTLE_DELAY_MS", timing.JoinSettleDelay)
	timing.JoinSafetyTimeout = getEnvDurationMs("JOIN_SAFETY_TIMEOUT_MS", timing.JoinSafetyTimeout)
	timing.NotifyAutoDismiss = getEnvDurationMs("NOTIFY_AUTO_DISMISS_MS", timing.NotifyAutoDismiss)
	if err := timing.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{
		App:      appCfg,
		Paths:    pathsCfg,
		Database: dbCfg,
		Timing:   timing,
	}

	Global = cfg
	return cfg, nil
}
