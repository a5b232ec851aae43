package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tg-relay-bot/internal/domain"
	"tg-relay-bot/internal/integrations/telegram"
)

type stubDispatcher struct {
	mu         sync.Mutex
	dispatched []domain.InboundMessage
	commands   []string
	err        error
}

func (s *stubDispatcher) Dispatch(_ context.Context, msg domain.InboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, msg)
	return s.err
}

func (s *stubDispatcher) HandleCommand(_ context.Context, _ domain.InboundMessage, command string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	return true
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textUpdate(id int64, chatID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			MessageID: id * 10,
			Chat:      &telegram.Chat{ID: chatID},
			From:      &telegram.User{FirstName: "Ada"},
			Text:      text,
		},
	}
}

func TestNewRouter_ValidatesDependency(t *testing.T) {
	_, err := NewRouter(nil, nil)
	require.Error(t, err)
}

func TestRoute_TextIsDispatched(t *testing.T) {
	d := &stubDispatcher{}
	r, err := NewRouter(d, quietLogger())
	require.NoError(t, err)

	r.Route(context.Background(), textUpdate(1, 42, "what is Go?"))
	require.Len(t, d.dispatched, 1)
	require.Equal(t, "what is Go?", d.dispatched[0].Text)
	require.Equal(t, int64(42), d.dispatched[0].ChatID)
	require.Equal(t, "Ada", d.dispatched[0].SenderName)
	require.Empty(t, d.commands)
}

func TestRoute_CommandsAreNotDispatched(t *testing.T) {
	d := &stubDispatcher{}
	r, err := NewRouter(d, quietLogger())
	require.NoError(t, err)

	r.Route(context.Background(), textUpdate(1, 42, "/start"))
	r.Route(context.Background(), textUpdate(2, 42, "/help@echo_bot"))
	r.Route(context.Background(), textUpdate(3, 42, "/unknown stuff"))
	require.Equal(t, []string{"start", "help", "unknown"}, d.commands)
	require.Empty(t, d.dispatched)
}

func TestRoute_NonTextIgnored(t *testing.T) {
	d := &stubDispatcher{}
	r, err := NewRouter(d, quietLogger())
	require.NoError(t, err)

	r.Route(context.Background(), telegram.Update{UpdateID: 9})
	require.Empty(t, d.dispatched)
	require.Empty(t, d.commands)
}

func TestRoute_DispatchErrorIsSwallowed(t *testing.T) {
	d := &stubDispatcher{err: errors.New("no delivery")}
	r, err := NewRouter(d, quietLogger())
	require.NoError(t, err)

	require.NotPanics(t, func() {
		r.Route(context.Background(), textUpdate(1, 42, "hi"))
	})
	require.Len(t, d.dispatched, 1)
}
