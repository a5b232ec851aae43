package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg-relay-bot/internal/integrations/paramstore"
)

func envOf(vals map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vals[key]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		EnvTelegramToken: "123:abc",
		EnvCompletionKey: "sk-or-test",
		EnvPromptSecret:  "https://example.test/flag",
	}
}

type fakeParams struct {
	vals  map[string]string
	err   error
	names []string
}

func (f *fakeParams) GetParameter(_ context.Context, name string) (string, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", paramstore.ErrNotFound, name)
	}
	return v, nil
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), envOf(baseEnv()), nil)
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.TelegramToken)
	require.Equal(t, "sk-or-test", cfg.CompletionKey)
	require.Equal(t, "https://example.test/flag", cfg.PromptSecret)
	require.Equal(t, ModePoll, cfg.Mode)
	require.Equal(t, 30*time.Second, cfg.PollTimeout)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Empty(t, cfg.Model)
	require.Empty(t, cfg.UpdatesTable)
}

func TestLoad_MissingRequiredValue(t *testing.T) {
	for _, name := range []string{EnvTelegramToken, EnvCompletionKey, EnvPromptSecret} {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			delete(env, name)
			_, err := Load(context.Background(), envOf(env), nil)

			var missing *MissingError
			require.ErrorAs(t, err, &missing)
			require.Equal(t, name, missing.Name)
			require.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_BlankValueCountsAsMissing(t *testing.T) {
	env := baseEnv()
	env[EnvPromptSecret] = "   "
	_, err := Load(context.Background(), envOf(env), nil)
	require.ErrorContains(t, err, EnvPromptSecret)
}

func TestLoad_OptionalValues(t *testing.T) {
	env := baseEnv()
	env[EnvModel] = "openai/gpt-4o"
	env[EnvBaseURL] = "http://localhost:9999/v1"
	env[EnvMode] = "LAMBDA"
	env[EnvPollTimeout] = "5"
	env[EnvUpdatesTable] = "updates"
	env[EnvWebhookSecret] = "s3cret"
	env[EnvLogLevel] = "debug"

	cfg, err := Load(context.Background(), envOf(env), nil)
	require.NoError(t, err)
	require.Equal(t, "openai/gpt-4o", cfg.Model)
	require.Equal(t, "http://localhost:9999/v1", cfg.BaseURL)
	require.Equal(t, ModeLambda, cfg.Mode)
	require.Equal(t, 5*time.Second, cfg.PollTimeout)
	require.Equal(t, "updates", cfg.UpdatesTable)
	require.Equal(t, "s3cret", cfg.WebhookSecret)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_InvalidPollTimeoutUsesDefault(t *testing.T) {
	env := baseEnv()
	env[EnvPollTimeout] = "soon"
	cfg, err := Load(context.Background(), envOf(env), nil)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.PollTimeout)
}

func TestLoad_InvalidMode(t *testing.T) {
	env := baseEnv()
	env[EnvMode] = "webhook"
	_, err := Load(context.Background(), envOf(env), nil)
	require.ErrorContains(t, err, EnvMode)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	env := baseEnv()
	env[EnvLogLevel] = "loud"
	_, err := Load(context.Background(), envOf(env), nil)
	require.ErrorContains(t, err, EnvLogLevel)
}

func TestLoad_ParameterStoreFallback(t *testing.T) {
	env := map[string]string{EnvParamPrefix: "/relay-bot/"}
	params := &fakeParams{vals: map[string]string{
		"/relay-bot/telegram-bot-token": "999:xyz",
		"/relay-bot/openrouter-api-key": "sk-from-ssm",
		"/relay-bot/flag-2-url":         "flag{ssm}",
	}}

	cfg, err := Load(context.Background(), envOf(env), params)
	require.NoError(t, err)
	require.Equal(t, "999:xyz", cfg.TelegramToken)
	require.Equal(t, "sk-from-ssm", cfg.CompletionKey)
	require.Equal(t, "flag{ssm}", cfg.PromptSecret)
	require.Equal(t, "/relay-bot", cfg.ParamPrefix)
}

func TestLoad_EnvironmentWinsOverParameterStore(t *testing.T) {
	env := baseEnv()
	env[EnvParamPrefix] = "/relay-bot"
	params := &fakeParams{}

	_, err := Load(context.Background(), envOf(env), params)
	require.NoError(t, err)
	require.Empty(t, params.names)
}

func TestLoad_ParameterStoreMissing(t *testing.T) {
	env := baseEnv()
	delete(env, EnvCompletionKey)
	env[EnvParamPrefix] = "/relay-bot"

	_, err := Load(context.Background(), envOf(env), &fakeParams{})
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, EnvCompletionKey, missing.Name)
	require.Equal(t, "/relay-bot/openrouter-api-key", missing.Parameter)
}

func TestLoad_ParameterStoreFailure(t *testing.T) {
	env := baseEnv()
	delete(env, EnvTelegramToken)
	env[EnvParamPrefix] = "/relay-bot"

	_, err := Load(context.Background(), envOf(env), &fakeParams{err: errors.New("ssm unavailable")})
	require.ErrorContains(t, err, "ssm unavailable")
	require.ErrorContains(t, err, EnvTelegramToken)
}

func TestLoad_NilLookup(t *testing.T) {
	_, err := Load(context.Background(), nil, nil)
	require.Error(t, err)
}
