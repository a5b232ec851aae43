// Package config assembles process configuration from the environment, with
// optional fallback to AWS SSM Parameter Store for secrets.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tg-relay-bot/internal/integrations/paramstore"
)

const (
	EnvTelegramToken   = "TELEGRAM_BOT_TOKEN"
	EnvCompletionKey   = "OPENROUTER_API_KEY"
	EnvPromptSecret    = "FLAG_2_URL"
	EnvParamPrefix     = "PARAM_PREFIX"
	EnvModel           = "OPENROUTER_MODEL"
	EnvBaseURL         = "OPENROUTER_BASE_URL"
	EnvMode            = "BOT_MODE"
	EnvPollTimeout     = "POLL_TIMEOUT"
	EnvUpdatesTable    = "UPDATES_TABLE"
	EnvWebhookSecret   = "WEBHOOK_SECRET"
	EnvLogLevel        = "LOG_LEVEL"
	defaultPollTimeout = 30 * time.Second
)

type Mode string

const (
	ModePoll   Mode = "poll"
	ModeLambda Mode = "lambda"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Getter is the parameter store dependency; *paramstore.Client satisfies it.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type Config struct {
	TelegramToken string
	CompletionKey string
	PromptSecret  string

	Model         string
	BaseURL       string
	Mode          Mode
	PollTimeout   time.Duration
	UpdatesTable  string
	WebhookSecret string
	ParamPrefix   string
	LogLevel      slog.Level
}

// MissingError reports a required value that is absent from every source.
type MissingError struct {
	Name      string
	Parameter string
}

func (e *MissingError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("config: required value %s is not set", e.Name)
	}
	return fmt.Sprintf("config: required value %s is not set (also missing parameter %s)", e.Name, e.Parameter)
}

// required lists the three values without which the bot cannot start, with
// the parameter store suffix used when PARAM_PREFIX is set.
var required = []struct {
	env    string
	suffix string
	set    func(*Config, string)
}{
	{EnvTelegramToken, "telegram-bot-token", func(c *Config, v string) { c.TelegramToken = v }},
	{EnvCompletionKey, "openrouter-api-key", func(c *Config, v string) { c.CompletionKey = v }},
	{EnvPromptSecret, "flag-2-url", func(c *Config, v string) { c.PromptSecret = v }},
}

// ParamPrefix returns the normalized PARAM_PREFIX from lookup.
func ParamPrefix(lookup LookupFunc) string {
	return strings.TrimRight(get(lookup, EnvParamPrefix), "/")
}

// Load reads configuration through lookup. When params is non-nil and
// PARAM_PREFIX is set, required values missing from the environment are read
// from the parameter store instead.
func Load(ctx context.Context, lookup LookupFunc, params Getter) (Config, error) {
	if lookup == nil {
		return Config{}, errors.New("config: lookup must not be nil")
	}
	cfg := Config{
		Model:         get(lookup, EnvModel),
		BaseURL:       get(lookup, EnvBaseURL),
		UpdatesTable:  get(lookup, EnvUpdatesTable),
		WebhookSecret: get(lookup, EnvWebhookSecret),
		ParamPrefix:   ParamPrefix(lookup),
		PollTimeout:   secondsOr(get(lookup, EnvPollTimeout), defaultPollTimeout),
	}

	for _, r := range required {
		v, err := resolve(ctx, lookup, params, cfg.ParamPrefix, r.env, r.suffix)
		if err != nil {
			return Config{}, err
		}
		r.set(&cfg, v)
	}

	switch mode := Mode(strings.ToLower(get(lookup, EnvMode))); mode {
	case "", ModePoll:
		cfg.Mode = ModePoll
	case ModeLambda:
		cfg.Mode = ModeLambda
	default:
		return Config{}, fmt.Errorf("config: %s must be %q or %q, got %q", EnvMode, ModePoll, ModeLambda, mode)
	}

	if lvl := get(lookup, EnvLogLevel); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}

func resolve(ctx context.Context, lookup LookupFunc, params Getter, prefix, env, suffix string) (string, error) {
	if v := get(lookup, env); v != "" {
		return v, nil
	}
	if params == nil || prefix == "" {
		return "", &MissingError{Name: env}
	}
	name := prefix + "/" + suffix
	v, err := params.GetParameter(ctx, name)
	if errors.Is(err, paramstore.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return "", &MissingError{Name: env, Parameter: name}
	}
	if err != nil {
		return "", fmt.Errorf("config: load %s from parameter store: %w", env, err)
	}
	return strings.TrimSpace(v), nil
}

func get(lookup LookupFunc, key string) string {
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

func secondsOr(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
