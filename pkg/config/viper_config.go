package config

import (
	"time"

	"github.com/apex/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultConfigPath is where the d2 CLI looks for a config file when none is given.
const DefaultConfigPath = "~/.d2/config.yaml"

// ViperConfig reads settings from a yaml/json/toml file. Keys are the same upper-case
// names the dotenv config uses; environment variables override file values.
type ViperConfig struct {
	v    *viper.Viper
	path string
}

func NewViperConfig(path string) *ViperConfig {
	v := viper.New()
	v.AutomaticEnv()
	return &ViperConfig{v: v, path: path}
}

func (c *ViperConfig) LoadFromPath(path string) error {
	c.path = path
	return c.Load()
}

func (c *ViperConfig) Load() error {
	path, err := homedir.Expand(c.path)
	if err != nil {
		return err
	}

	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *ViperConfig) GetKey(key string) string {
	return c.v.GetString(key)
}

func (c *ViperConfig) MustGetKey(key string) string {
	val := c.GetKey(key)
	if val == "" {
		log.Fatalf("No such required config key: '%s'", key)
	}

	return val
}

func (c *ViperConfig) GetKeyWithDefault(key, defaultValue string) string {
	if !c.v.IsSet(key) || c.GetKey(key) == "" {
		return defaultValue
	}

	return c.GetKey(key)
}

func (c *ViperConfig) GetIntKey(key string) int {
	return c.v.GetInt(key)
}

func (c *ViperConfig) GetIntKeyWithDefault(key string, defaultValue int) int {
	if !c.v.IsSet(key) {
		return defaultValue
	}

	return c.v.GetInt(key)
}

func (c *ViperConfig) GetDurationKeyWithDefault(key string, defaultValue time.Duration) time.Duration {
	return parseDuration(c.GetKey(key), defaultValue)
}
