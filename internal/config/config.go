// Package config resolves runtime settings from flags, environment
// variables and the optional config file, in that precedence order.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/storelens/storelens/pkg/insight"
	"github.com/storelens/storelens/pkg/scrape"
)

// Config holds resolved settings for a storelens run.
type Config struct {
	// Server settings.
	Listen      string `mapstructure:"listen"`
	DatabaseURL string `mapstructure:"database_url"`

	// LLM settings. An empty APIKey disables enrichment.
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`

	// Scrape settings.
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	PageDelay   time.Duration `mapstructure:"page_delay"`
	Concurrency int           `mapstructure:"concurrency"`
}

// SetDefaults registers default values on the shared viper instance.
// Call before Load, typically from cobra's OnInitialize.
func SetDefaults() {
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("max_retries", 3)
	viper.SetDefault("base_delay", 2*time.Second)
	viper.SetDefault("page_delay", 500*time.Millisecond)
	viper.SetDefault("concurrency", 3)
}

// Load reads settings from viper and fills in provider detection for
// anything the user left unset.
func Load() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	// Auto-detect the LLM provider from the environment when neither
	// the flag nor the config file names one.
	if cfg.Provider == "" {
		provider, key := insight.DetectProvider()
		cfg.Provider = provider
		if cfg.APIKey == "" {
			cfg.APIKey = key
		}
	}
	if cfg.Model == "" && cfg.Provider != "" {
		cfg.Model = insight.GetDefaultModel(cfg.Provider)
	}

	return cfg, nil
}

// ClientConfig converts the scrape settings into a fetch client config.
func (c Config) ClientConfig() scrape.ClientConfig {
	return scrape.ClientConfig{
		UserAgent:  c.UserAgent,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.BaseDelay,
	}
}

// ProviderConfig converts the LLM settings into a provider config.
func (c Config) ProviderConfig() insight.ProviderConfig {
	pc := insight.DefaultProviderConfig()
	pc.APIKey = c.APIKey
	pc.BaseURL = c.BaseURL
	pc.Model = c.Model
	if pc.Model == "" {
		pc.Model = insight.GetDefaultModel(c.Provider)
	}
	return pc
}
