// Package bot connects Telegram updates to the dispatcher, either from a
// long-poll loop or from a webhook.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"tg-relay-bot/internal/domain"
	"tg-relay-bot/internal/integrations/telegram"
)

// Dispatcher is implemented by *usecase.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.InboundMessage) error
	HandleCommand(ctx context.Context, msg domain.InboundMessage, command string) bool
}

// Router sends each update to the command handler or the dispatcher.
type Router struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewRouter(d Dispatcher, logger *slog.Logger) (*Router, error) {
	if d == nil {
		return nil, errors.New("bot: dispatcher must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{dispatcher: d, logger: logger}, nil
}

// Route handles one update and returns once every reply for it has been sent.
// Updates without text are dropped.
func (r *Router) Route(ctx context.Context, u telegram.Update) {
	msg, ok := u.Inbound()
	if !ok {
		r.logger.Debug("skipping non-text update", "update_id", u.UpdateID)
		return
	}
	if cmd := telegram.Command(msg.Text); cmd != "" {
		r.dispatcher.HandleCommand(ctx, msg, cmd)
		return
	}
	if err := r.dispatcher.Dispatch(ctx, msg); err != nil {
		r.logger.Error("update handling failed", "update_id", u.UpdateID, "chat_id", msg.ChatID, "err", err)
	}
}
