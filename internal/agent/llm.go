package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/game"
)

const defaultLLMTimeout = 30 * time.Second

// LLMConfig configures an OpenAI-compatible chat completions agent.
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// LLMAgent asks a language model for each decision. Transport and parse
// failures are returned to the engine, whose retry and fallback path owns
// recovery; the agent itself never invents an action.
type LLMAgent struct {
	cfg    LLMConfig
	client *http.Client
	clock  quartz.Clock
	log    zerolog.Logger
}

// LLMOption customises an LLMAgent.
type LLMOption func(*LLMAgent)

// WithHTTPClient swaps the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) LLMOption {
	return func(a *LLMAgent) { a.client = c }
}

// WithClock injects the clock driving the per-request deadline.
func WithClock(c quartz.Clock) LLMOption {
	return func(a *LLMAgent) { a.clock = c }
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) LLMOption {
	return func(a *LLMAgent) { a.log = logger }
}

// NewLLM validates the config and builds the agent.
func NewLLM(cfg LLMConfig, opts ...LLMOption) (*LLMAgent, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("llm agent: base URL is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm agent: model is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm agent: API key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}

	a := &LLMAgent{
		cfg:    cfg,
		client: &http.Client{},
		clock:  quartz.NewReal(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

func (a *LLMAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	prompt := renderPrompt(req)

	body := chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    a.cfg.Temperature,
		MaxTokens:      a.cfg.MaxTokens,
		ResponseFormat: actionSchema(req.Legal),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return game.Decision{}, fmt.Errorf("llm agent: encoding request: %w", err)
	}

	// The deadline runs on the injected clock so tests can fire it
	// without waiting.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := a.clock.AfterFunc(a.cfg.Timeout, cancel)
	defer timer.Stop()

	url := strings.TrimRight(a.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return game.Decision{}, fmt.Errorf("llm agent: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return game.Decision{}, fmt.Errorf("llm agent: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return game.Decision{}, fmt.Errorf("llm agent: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return game.Decision{}, fmt.Errorf("llm agent: http %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return game.Decision{}, fmt.Errorf("llm agent: decoding response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return game.Decision{}, errors.New("llm agent: no choices returned")
	}

	d, err := parseDecision(cc.Choices[0].Message.Content, req.Legal)
	if err != nil {
		return game.Decision{}, err
	}
	a.log.Debug().
		Str("model", a.cfg.Model).
		Stringer("action", d.Action).
		Int("amount", d.Amount).
		Msg("llm decision")
	return d, nil
}

// actionSchema builds the structured output schema constraining the model
// to the legal action names.
func actionSchema(legal []game.LegalAction) map[string]any {
	names := make([]string, len(legal))
	for i, la := range legal {
		names[i] = la.Action.String()
	}
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "poker_action",
			"strict": true,
			"schema": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"reasoning": map[string]any{
						"type":        "string",
						"description": "Brief strategic explanation",
					},
					"action": map[string]any{
						"type": "string",
						"enum": names,
					},
					"amount": map[string]any{
						"type":        []any{"integer", "null"},
						"description": "Total street commitment when betting or raising, otherwise null",
					},
				},
				"required": []string{"reasoning", "action"},
			},
		},
	}
}

// parseDecision turns model output into a decision. It salvages JSON
// wrapped in prose, maps common synonyms onto the legal set and clamps
// bet sizes into the offered bounds. Anything unusable is an error for
// the engine's retry loop.
func parseDecision(content string, legal []game.LegalAction) (game.Decision, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return game.Decision{}, errors.New("llm agent: empty response")
	}

	var parsed struct {
		Reasoning string `json:"reasoning"`
		Action    string `json:"action"`
		Amount    any    `json:"amount"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		cleaned := extractJSONObject(raw)
		if cleaned == "" {
			return game.Decision{}, fmt.Errorf("llm agent: response is not JSON: %s", truncate(raw, 200))
		}
		if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
			return game.Decision{}, fmt.Errorf("llm agent: response is not JSON: %s", truncate(raw, 200))
		}
	}

	name, wantAllIn := normalizeActionName(parsed.Action, legal)
	action, err := game.ParseAction(name)
	if err != nil {
		return game.Decision{}, fmt.Errorf("llm agent: model chose %q", parsed.Action)
	}

	d := game.Decision{Action: action, Reasoning: parsed.Reasoning}
	if action == game.Bet || action == game.Raise {
		var bounds game.LegalAction
		for _, la := range legal {
			if la.Action == action {
				bounds = la
				break
			}
		}
		amount := parseAmount(parsed.Amount)
		switch {
		case wantAllIn:
			amount = bounds.Max
		case amount == 0:
			amount = bounds.Min
		}
		d.Amount = clamp(amount, bounds.Min, bounds.Max)
	}
	return d, nil
}

// normalizeActionName lowercases the model's action and maps synonyms:
// the all-in family becomes the strongest legal action, and bet or raise
// swap for each other when only the counterpart is legal.
func normalizeActionName(s string, legal []game.LegalAction) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(s))
	compact := strings.NewReplacer("-", "", " ", "", "_", "").Replace(n)

	switch compact {
	case "allin", "shove", "jam", "push":
		switch {
		case hasLegal(legal, game.Raise):
			return "raise", true
		case hasLegal(legal, game.Bet):
			return "bet", true
		case hasLegal(legal, game.Call):
			return "call", false
		}
		return n, false
	}

	if n == "bet" && !hasLegal(legal, game.Bet) && hasLegal(legal, game.Raise) {
		return "raise", false
	}
	if n == "raise" && !hasLegal(legal, game.Raise) && hasLegal(legal, game.Bet) {
		return "bet", false
	}
	return n, false
}

func hasLegal(legal []game.LegalAction, a game.Action) bool {
	for _, la := range legal {
		if la.Action == a {
			return true
		}
	}
	return false
}

func parseAmount(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return 0
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
