package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Asdmir786/HalalDL/internal/tools"
)

// Config captures user preferences for the tool manager.
type Config struct {
	Version   int    `yaml:"version"`
	BinDir    string `yaml:"bin_dir,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`
	// Channels and Variants are keyed by tool id.
	Channels   map[string]string `yaml:"channels,omitempty"`
	Variants   map[string]string `yaml:"variants,omitempty"`
	ExtraPaths []string          `yaml:"extra_paths,omitempty"`
	// Tools replaces the built-in tool table when non-empty.
	Tools []tools.ToolSpec `yaml:"tools,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version:   1,
		UserAgent: tools.DefaultUserAgent,
		LogLevel:  "info",
		Channels:  map[string]string{},
		Variants:  map[string]string{string(tools.ToolFFmpeg): "full"},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills fields the YAML left empty.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = defaults.UserAgent
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Channels == nil {
		c.Channels = map[string]string{}
	}
	if c.Variants == nil {
		c.Variants = map[string]string{}
	}
}

// Table returns the configured tool table, or the host default.
func (c Config) Table() (tools.Table, error) {
	if len(c.Tools) == 0 {
		return tools.HostTable(), nil
	}
	return tools.NewTable(c.Tools)
}

// ChannelFor returns the configured release channel for id.
func (c Config) ChannelFor(id tools.ToolID) (tools.Channel, error) {
	return tools.ParseChannel(c.Channels[string(id)])
}

// ChannelMap resolves the channel of every tool in table.
func (c Config) ChannelMap(table tools.Table) (map[tools.ToolID]tools.Channel, error) {
	out := make(map[tools.ToolID]tools.Channel, len(table.Tools()))
	for _, id := range table.Tools() {
		ch, err := c.ChannelFor(id)
		if err != nil {
			return nil, fmt.Errorf("channels.%s: %w", id, err)
		}
		out[id] = ch
	}
	return out, nil
}

// VariantMap returns the configured variants keyed by tool id.
func (c Config) VariantMap() map[tools.ToolID]string {
	out := make(map[tools.ToolID]string, len(c.Variants))
	for id, v := range c.Variants {
		out[tools.ToolID(strings.ToLower(id))] = v
	}
	return out
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
