package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "CLIPSTACK"
	defaultHTTPAddress      = "0.0.0.0:8080"
	defaultDatabasePath     = "clipstack.db"
	defaultLogLevel         = "info"
	defaultAccessTTLMinutes = 15
	defaultRefreshTTLHours  = 24 * 10
	defaultMediaRegion      = "us-east-1"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	SecureCookies bool

	MediaEndpoint      string
	MediaRegion        string
	MediaBucket        string
	MediaAccessKey     string
	MediaSecretKey     string
	MediaPublicBaseURL string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.access_ttl_minutes", defaultAccessTTLMinutes)
	configViper.SetDefault("auth.refresh_ttl_hours", defaultRefreshTTLHours)
	configViper.SetDefault("cookie.secure", true)
	configViper.SetDefault("media.region", defaultMediaRegion)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		AccessSecret:  configViper.GetString("auth.access_secret"),
		AccessTTL:     time.Duration(configViper.GetInt("auth.access_ttl_minutes")) * time.Minute,
		RefreshSecret: configViper.GetString("auth.refresh_secret"),
		RefreshTTL:    time.Duration(configViper.GetInt("auth.refresh_ttl_hours")) * time.Hour,
		SecureCookies: configViper.GetBool("cookie.secure"),

		MediaEndpoint:      configViper.GetString("media.endpoint"),
		MediaRegion:        configViper.GetString("media.region"),
		MediaBucket:        configViper.GetString("media.bucket"),
		MediaAccessKey:     configViper.GetString("media.access_key"),
		MediaSecretKey:     configViper.GetString("media.secret_key"),
		MediaPublicBaseURL: configViper.GetString("media.public_base_url"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.AccessSecret) == "" {
		return fmt.Errorf("auth.access_secret is required")
	}
	if strings.TrimSpace(c.RefreshSecret) == "" {
		return fmt.Errorf("auth.refresh_secret is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return fmt.Errorf("auth.access_secret and auth.refresh_secret must differ")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("token ttls must be positive")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.MediaBucket) == "" {
		return fmt.Errorf("media.bucket is required")
	}
	return nil
}
