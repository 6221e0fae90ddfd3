package config

import "time"

// Configer is the lookup surface the d2 packages use for settings. Implementations
// differ only in where the values come from.
type Configer interface {
	LoadFromPath(path string) error
	Load() error
	GetKey(key string) string
	MustGetKey(key string) string
	GetKeyWithDefault(key, defaultValue string) string
	GetIntKey(key string) int
	GetIntKeyWithDefault(key string, defaultValue int) int
	GetDurationKeyWithDefault(key string, defaultValue time.Duration) time.Duration
}

const (
	BaseURLKey    = "D2_BASE_URL"
	UsernameKey   = "D2_USERNAME"
	PasswordKey   = "D2_PASSWORD"
	TimeoutKey    = "D2_TIMEOUT"
	RetryCountKey = "D2_RETRY_COUNT"
	LogLevelKey   = "D2_LOG_LEVEL"
	SchemaDBKey   = "D2_SCHEMA_DB"
	SchemaDirKey  = "D2_SCHEMA_DIR"

	// DotenvPathKey names the environment variable pointing at a dotenv file.
	DotenvPathKey = "D2_DOTENV_PATH"
)
