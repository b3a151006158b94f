// Package config loads the YAML configuration file, expands ${ENV_VAR}
// placeholders and applies defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Defaults returns the configuration used when a field is left unset.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:          "parley",
			LogLevel:      "INFO",
			LogFormat:     "json",
			CommandPrefix: "/",
			PollTimeout:   30,
			DrainTimeout:  10 * time.Second,
		},
		State: StateConfig{Path: "./state/parley.db"},
		API:   APIConfig{Listen: "127.0.0.1:8130"},
		Plugins: PluginsConfig{
			Pasta:    PastaConfig{Enabled: true, Dir: "./data/pasta"},
			Currency: CurrencyConfig{Enabled: true, Grubstake: 100},
		},
	}
}

// Load reads and parses configuration from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Service.Name == "" {
		cfg.Service.Name = d.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = d.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = d.Service.LogFormat
	}
	if cfg.Service.CommandPrefix == "" {
		cfg.Service.CommandPrefix = d.Service.CommandPrefix
	}
	if cfg.Service.PollTimeout == 0 {
		cfg.Service.PollTimeout = d.Service.PollTimeout
	}
	if cfg.Service.DrainTimeout == 0 {
		cfg.Service.DrainTimeout = d.Service.DrainTimeout
	}
	if cfg.State.Path == "" {
		cfg.State.Path = d.State.Path
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = d.API.Listen
	}
	if cfg.Plugins.Pasta.Dir == "" {
		cfg.Plugins.Pasta.Dir = d.Plugins.Pasta.Dir
	}
	if cfg.Plugins.Currency.Grubstake == 0 {
		cfg.Plugins.Currency.Grubstake = d.Plugins.Currency.Grubstake
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is so validation can report them.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (set TELEGRAM_TOKEN and use ${TELEGRAM_TOKEN})")
	}
	if envVarPattern.MatchString(cfg.Telegram.Token) {
		matches := envVarPattern.FindStringSubmatch(cfg.Telegram.Token)
		return fmt.Errorf("telegram.token references undefined environment variable %s", matches[1])
	}
	if len(cfg.Service.CommandPrefix) != 1 {
		return fmt.Errorf("service.command_prefix must be a single character, got %q", cfg.Service.CommandPrefix)
	}
	if cfg.Service.PollTimeout < 0 {
		return fmt.Errorf("service.poll_timeout must not be negative")
	}
	if cfg.API.Enabled && cfg.API.APIKey == "" {
		return fmt.Errorf("api.api_key is required when the admin API is enabled")
	}
	if cfg.Plugins.Currency.Enabled && cfg.Plugins.Currency.Grubstake < 0 {
		return fmt.Errorf("plugins.currency.grubstake must not be negative")
	}
	return nil
}
