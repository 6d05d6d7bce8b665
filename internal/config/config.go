package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultConfigPath = "config/botologist.toml"

// Load reads and parses the configuration file from the specified path.
// If path is empty, it uses the default path. Malformed entries fail fast.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found at %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in the optional identity and dispatch settings
func applyDefaults(cfg *Config) {
	if cfg.Server.Username == "" {
		cfg.Server.Username = cfg.Server.Nick
	}
	if cfg.Server.Realname == "" {
		cfg.Server.Realname = cfg.Server.Nick
	}
	if cfg.Bot.CommandPrefix == "" {
		cfg.Bot.CommandPrefix = "!"
	}
	if cfg.Bot.StorageDir == "" {
		cfg.Bot.StorageDir = "data"
	}
}

// validate checks that all required configuration fields are present and valid
func validate(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if cfg.Server.Nick == "" {
		return fmt.Errorf("server.nick is required")
	}
	if len(cfg.Bot.CommandPrefix) != 1 {
		return fmt.Errorf("bot.command_prefix must be a single character, got %q", cfg.Bot.CommandPrefix)
	}
	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 0 and 65535, got %d", cfg.HTTP.Port)
	}

	seen := make(map[string]bool)
	for i, ch := range cfg.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channels[%d].name is required", i)
		}
		name := strings.ToLower(ch.Name)
		if !strings.HasPrefix(name, "#") {
			name = "#" + name
		}
		if seen[name] {
			return fmt.Errorf("channel %s configured more than once", ch.Name)
		}
		seen[name] = true

		for _, p := range ch.Plugins {
			if p == "" {
				return fmt.Errorf("channel %s has an empty plugin name", ch.Name)
			}
		}
	}

	for _, p := range cfg.Bot.GlobalPlugins {
		if p == "" {
			return fmt.Errorf("bot.global_plugins contains an empty plugin name")
		}
	}

	return nil
}
