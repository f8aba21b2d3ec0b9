package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type SessionConfig struct {
	Secret      string `mapstructure:"secret"`
	CookieName  string `mapstructure:"cookie_name"`
	IdleSeconds int    `mapstructure:"idle_seconds"`
}

type HubConfig struct {
	// PersistPolicy selects what happens when writing an event to storage
	// fails: "best-effort" logs the error and broadcasts anyway, "strict"
	// drops the update and notifies the sender.
	PersistPolicy  string `mapstructure:"persist_policy"`
	MaxMessageSize int64  `mapstructure:"max_message_size"`
	SendBuffer     int    `mapstructure:"send_buffer"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Hub      HubConfig      `mapstructure:"hub"`
}

var (
	appConfig *Config
	loadErr   error
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
// The result, including a failure, is cached for later calls.
func Load(path string) (*Config, error) {
	once.Do(func() {
		var err error
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. LC_SERVER_PORT=9000
		v.SetEnvPrefix("LC")
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			loadErr = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = ApplyDefaults(&c)
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

// ApplyDefaults fills in zero-valued fields with runtime defaults.
// A server port of 0 is left alone: it means "pick an ephemeral port".
func ApplyDefaults(c *Config) *Config {
	if c.Session.CookieName == "" {
		c.Session.CookieName = "lc_session"
	}
	if c.Session.IdleSeconds <= 0 {
		c.Session.IdleSeconds = 60
	}
	if c.Hub.PersistPolicy == "" {
		c.Hub.PersistPolicy = "best-effort"
	}
	if c.Hub.MaxMessageSize <= 0 {
		c.Hub.MaxMessageSize = 4096
	}
	if c.Hub.SendBuffer <= 0 {
		c.Hub.SendBuffer = 256
	}
	return c
}
