package config

import "time"

// Config is the root of the YAML configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Telegram TelegramConfig `yaml:"telegram"`
	State    StateConfig    `yaml:"state"`
	API      APIConfig      `yaml:"api"`
	Plugins  PluginsConfig  `yaml:"plugins"`
}

// ServiceConfig covers process-wide behavior.
type ServiceConfig struct {
	Name          string        `yaml:"name"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	CommandPrefix string        `yaml:"command_prefix"`
	PollTimeout   int           `yaml:"poll_timeout"`
	DrainTimeout  time.Duration `yaml:"drain_timeout"`
}

// TelegramConfig holds the bot credentials and endpoint.
type TelegramConfig struct {
	Token   string `yaml:"token"`
	APIBase string `yaml:"api_base"`
}

// StateConfig locates the sqlite database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// APIConfig controls the admin HTTP server.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key"`
}

// PluginsConfig carries per-plugin settings.
type PluginsConfig struct {
	Pasta    PastaConfig    `yaml:"pasta"`
	Currency CurrencyConfig `yaml:"currency"`
}

// PastaConfig configures the snippet store.
type PastaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// CurrencyConfig configures the CCMP plugin.
type CurrencyConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Operators []string `yaml:"operators"`
	Admin     string   `yaml:"admin"`
	Grubstake int64    `yaml:"grubstake"`
	Name      string   `yaml:"name"`
}
