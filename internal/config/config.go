// Package config loads benchmark configuration from HCL files. Secrets
// never live in the file; agent and database blocks name the environment
// variables that hold them.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete benchmark configuration.
type Config struct {
	Match    *MatchSettings    `hcl:"match,block"`
	Log      *LogSettings      `hcl:"log,block"`
	LLM      *LLMSettings      `hcl:"llm,block"`
	Server   *ServerSettings   `hcl:"server,block"`
	Database *DatabaseSettings `hcl:"database,block"`
	Agents   []AgentConfig     `hcl:"agent,block"`
}

// MatchSettings contains the table stakes and run shape shared by
// sessions and tournaments.
type MatchSettings struct {
	SmallBlind  int   `hcl:"small_blind,optional"`
	BigBlind    int   `hcl:"big_blind,optional"`
	Stack       int   `hcl:"stack,optional"`
	Hands       int   `hcl:"hands,optional"`
	Seed        int64 `hcl:"seed,optional"`
	Duplicate   bool  `hcl:"duplicate,optional"`
	Concurrency int   `hcl:"concurrency,optional"`
}

// LogSettings contains logging configuration.
type LogSettings struct {
	Level  string `hcl:"level,optional"`
	File   string `hcl:"file,optional"`
	Format string `hcl:"format,optional"`
}

// LLMSettings holds defaults inherited by every llm agent block.
type LLMSettings struct {
	BaseURL        string   `hcl:"base_url,optional"`
	KeyEnv         string   `hcl:"key_env,optional"`
	Temperature    *float64 `hcl:"temperature,optional"`
	MaxTokens      int      `hcl:"max_tokens,optional"`
	TimeoutSeconds int      `hcl:"timeout_seconds,optional"`
}

// ServerSettings contains the web server listen address.
type ServerSettings struct {
	Address string `hcl:"address,optional"`
	Port    int    `hcl:"port,optional"`
}

// DatabaseSettings points at the Postgres store. The DSN itself normally
// arrives through the named environment variable.
type DatabaseSettings struct {
	URL         string `hcl:"url,optional"`
	URLEnv      string `hcl:"url_env,optional"`
	AutoMigrate bool   `hcl:"auto_migrate,optional"`
}

// AgentConfig defines one benchmark entrant. Builtin kinds ignore the
// model fields; llm agents inherit unset fields from the llm block.
type AgentConfig struct {
	Name           string   `hcl:"name,label"`
	Kind           string   `hcl:"kind"`
	Seed           int64    `hcl:"seed,optional"`
	Model          string   `hcl:"model,optional"`
	BaseURL        string   `hcl:"base_url,optional"`
	KeyEnv         string   `hcl:"key_env,optional"`
	Temperature    *float64 `hcl:"temperature,optional"`
	MaxTokens      int      `hcl:"max_tokens,optional"`
	TimeoutSeconds int      `hcl:"timeout_seconds,optional"`
}

// Default returns the default benchmark configuration.
func Default() *Config {
	temp := 1.0
	return &Config{
		Match: &MatchSettings{
			SmallBlind: 50,
			BigBlind:   100,
			Stack:      10000,
			Hands:      100,
		},
		Log: &LogSettings{
			Level:  "info",
			Format: "console",
		},
		LLM: &LLMSettings{
			BaseURL:        "https://api.openai.com/v1",
			KeyEnv:         "OPENAI_API_KEY",
			Temperature:    &temp,
			TimeoutSeconds: 30,
		},
		Server: &ServerSettings{
			Address: "localhost",
			Port:    8080,
		},
		Database: &DatabaseSettings{
			URLEnv: "DATABASE_URL",
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills omitted blocks and attributes, then pushes the llm
// block's settings down into llm agent blocks that left them unset.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Match == nil {
		c.Match = def.Match
	} else {
		if c.Match.SmallBlind == 0 {
			c.Match.SmallBlind = def.Match.SmallBlind
		}
		if c.Match.BigBlind == 0 {
			c.Match.BigBlind = def.Match.BigBlind
		}
		if c.Match.Stack == 0 {
			c.Match.Stack = def.Match.Stack
		}
		if c.Match.Hands == 0 {
			c.Match.Hands = def.Match.Hands
		}
	}

	if c.Log == nil {
		c.Log = def.Log
	} else {
		if c.Log.Level == "" {
			c.Log.Level = def.Log.Level
		}
		if c.Log.Format == "" {
			c.Log.Format = def.Log.Format
		}
	}

	if c.LLM == nil {
		c.LLM = def.LLM
	} else {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = def.LLM.BaseURL
		}
		if c.LLM.KeyEnv == "" {
			c.LLM.KeyEnv = def.LLM.KeyEnv
		}
		if c.LLM.Temperature == nil {
			c.LLM.Temperature = def.LLM.Temperature
		}
		if c.LLM.TimeoutSeconds == 0 {
			c.LLM.TimeoutSeconds = def.LLM.TimeoutSeconds
		}
	}

	if c.Server == nil {
		c.Server = def.Server
	} else {
		if c.Server.Address == "" {
			c.Server.Address = def.Server.Address
		}
		if c.Server.Port == 0 {
			c.Server.Port = def.Server.Port
		}
	}

	if c.Database == nil {
		c.Database = def.Database
	} else if c.Database.URLEnv == "" {
		c.Database.URLEnv = def.Database.URLEnv
	}

	for i := range c.Agents {
		a := &c.Agents[i]
		if a.Kind != "llm" {
			continue
		}
		if a.BaseURL == "" {
			a.BaseURL = c.LLM.BaseURL
		}
		if a.KeyEnv == "" {
			a.KeyEnv = c.LLM.KeyEnv
		}
		if a.Temperature == nil {
			a.Temperature = c.LLM.Temperature
		}
		if a.MaxTokens == 0 {
			a.MaxTokens = c.LLM.MaxTokens
		}
		if a.TimeoutSeconds == 0 {
			a.TimeoutSeconds = c.LLM.TimeoutSeconds
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Match.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Match.BigBlind < c.Match.SmallBlind {
		return fmt.Errorf("big blind must be at least the small blind")
	}
	if c.Match.Stack <= 0 {
		return fmt.Errorf("starting stack must be positive")
	}
	if c.Match.Hands <= 0 {
		return fmt.Errorf("hands must be positive")
	}
	if c.Match.Duplicate && c.Match.Hands%2 != 0 {
		return fmt.Errorf("duplicate mode needs an even number of hands, got %d", c.Match.Hands)
	}
	if c.Match.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validKinds := map[string]bool{
		"caller": true,
		"folder": true,
		"random": true,
		"maniac": true,
		"tight":  true,
		"llm":    true,
	}
	seen := map[string]bool{}
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent blocks need a name label")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
		if !validKinds[a.Kind] {
			return fmt.Errorf("agent %s: invalid kind %s", a.Name, a.Kind)
		}
		if a.Kind == "llm" {
			if a.Model == "" {
				return fmt.Errorf("agent %s: llm agents need a model", a.Name)
			}
			if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 2) {
				return fmt.Errorf("agent %s: temperature must be between 0 and 2", a.Name)
			}
		}
	}
	return nil
}

// AgentByName returns an agent block by name.
func (c *Config) AgentByName(name string) *AgentConfig {
	for i := range c.Agents {
		if c.Agents[i].Name == name {
			return &c.Agents[i]
		}
	}
	return nil
}

// ListenAddress returns the full server listen address.
func (s *ServerSettings) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// DSN resolves the database connection string, preferring the inline URL
// over the environment variable.
func (d *DatabaseSettings) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return os.Getenv(d.URLEnv)
}

// APIKey reads the agent's key from its configured environment variable.
func (a *AgentConfig) APIKey() string {
	return os.Getenv(a.KeyEnv)
}

// Timeout returns the agent's request timeout as a duration.
func (a *AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}
