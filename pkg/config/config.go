package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `yaml:"app"`
	System    SystemConfig              `yaml:"system"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Agents    map[string]AgentConfig    `yaml:"agents"`
	Browser   BrowserConfig             `yaml:"browser"`
	Gateways  map[string]GatewayConfig  `yaml:"gateways"`
	Memory    MemoryConfig              `yaml:"memory"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	PromptDir string `yaml:"prompt_dir"`
}

type SystemConfig struct {
	LogLevel            string  `yaml:"log_level"`
	MaxConcurrency      int     `yaml:"max_concurrency"`
	MaxAttempts         int     `yaml:"max_attempts"`
	MinSuccesses        int     `yaml:"min_successes"`
	TaskTimeoutSeconds  int     `yaml:"task_timeout_seconds"`
	DefaultBudget       float64 `yaml:"default_budget"`
	DefaultCurrency     string  `yaml:"default_currency"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type AgentConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type GatewayConfig struct {
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id,omitempty"`
	Channel string `yaml:"channel,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type MemoryConfig struct {
	Path string `yaml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "wayfarer"
	}
	if c.System.MaxConcurrency <= 0 {
		c.System.MaxConcurrency = 4
	}
	if c.System.MaxAttempts <= 0 {
		c.System.MaxAttempts = 3
	}
	if c.System.MinSuccesses <= 0 {
		c.System.MinSuccesses = 1
	}
	if c.System.TaskTimeoutSeconds <= 0 {
		c.System.TaskTimeoutSeconds = 120
	}
	if c.System.DefaultBudget <= 0 {
		c.System.DefaultBudget = 2000
	}
	if c.System.DefaultCurrency == "" {
		c.System.DefaultCurrency = "USD"
	}
	if c.System.ConfidenceThreshold <= 0 {
		c.System.ConfidenceThreshold = 0.6
	}
	if c.Browser.TimeoutSeconds <= 0 {
		c.Browser.TimeoutSeconds = 60
	}
	if c.Memory.Path == "" {
		c.Memory.Path = "wayfarer.db"
	}
}

func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.System.TaskTimeoutSeconds) * time.Second
}

// DefaultProvider returns the first enabled provider. The API key falls
// back to OPENAI_API_KEY when the config leaves it empty.
func (c *Config) DefaultProvider() (string, ProviderConfig, bool) {
	for name, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		if p.APIKey == "" {
			p.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		return name, p, true
	}
	return "", ProviderConfig{}, false
}

// AgentModel returns the per-agent model override, if one is configured.
func (c *Config) AgentModel(agent string) (AgentConfig, bool) {
	ac, ok := c.Agents[agent]
	return ac, ok
}

func (c *Config) TelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled {
		return tg, true
	}
	return GatewayConfig{}, false
}

func (c *Config) DiscordConfig() (GatewayConfig, bool) {
	dc, ok := c.Gateways["discord"]
	if ok && dc.Enabled {
		return dc, true
	}
	return GatewayConfig{}, false
}
