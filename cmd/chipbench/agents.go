package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/agent"
	"github.com/chipbench/chipbench/internal/config"
	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/session"
)

// resolveAgentConfig looks a name up in the config, falling back to
// treating the name itself as a builtin kind so quick runs need no file.
func resolveAgentConfig(cfg *config.Config, name string) (config.AgentConfig, error) {
	if ac := cfg.AgentByName(name); ac != nil {
		return *ac, nil
	}
	if _, err := agent.NewBuiltin(name, 0); err == nil {
		return config.AgentConfig{Name: name, Kind: name}, nil
	}
	return config.AgentConfig{}, fmt.Errorf("unknown agent %q: not in config and not a builtin kind", name)
}

// newEntrant turns an agent block into a tournament entrant. An LLM agent
// holds no per-hand state, so one instance serves concurrent matches;
// builtin agents are rebuilt per match to keep seeded randomness isolated.
func newEntrant(ac config.AgentConfig, logger zerolog.Logger) (session.Entrant, error) {
	if ac.Kind == "llm" {
		key := ac.APIKey()
		if key == "" {
			return session.Entrant{}, fmt.Errorf("agent %s: environment variable %s is not set", ac.Name, ac.KeyEnv)
		}
		temperature := 1.0
		if ac.Temperature != nil {
			temperature = *ac.Temperature
		}
		llm, err := agent.NewLLM(agent.LLMConfig{
			BaseURL:     ac.BaseURL,
			Model:       ac.Model,
			APIKey:      key,
			Temperature: temperature,
			MaxTokens:   ac.MaxTokens,
			Timeout:     ac.Timeout(),
		}, agent.WithLogger(logger.With().Str("agent", ac.Name).Logger()))
		if err != nil {
			return session.Entrant{}, fmt.Errorf("agent %s: %w", ac.Name, err)
		}
		return session.Entrant{
			Name:     ac.Name,
			NewAgent: func(int64) game.Agent { return llm },
		}, nil
	}

	if _, err := agent.NewBuiltin(ac.Kind, 0); err != nil {
		return session.Entrant{}, fmt.Errorf("agent %s: %w", ac.Name, err)
	}
	kind := ac.Kind
	fixed := ac.Seed
	return session.Entrant{
		Name: ac.Name,
		NewAgent: func(seed int64) game.Agent {
			if fixed != 0 {
				seed = fixed
			}
			a, _ := agent.NewBuiltin(kind, seed)
			return a
		},
	}, nil
}
