package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"tg-relay-bot/internal/chunk"
	"tg-relay-bot/internal/domain"
	"tg-relay-bot/internal/integrations/openai"
)

const (
	// EmptyReplyText replaces a completion that came back blank.
	EmptyReplyText = "Hmm, I didn't get a usable answer. Try rephrasing?"
	// FallbackText is the only thing users see when anything goes wrong.
	FallbackText = "Oops, I hit an error talking to the AI. Please try again in a moment."

	actionTyping = "typing"
)

type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) openai.Result
}

// Messenger is the chat platform's delivery side; *telegram.Client satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Dispatcher relays one inbound message to the completion endpoint and sends
// the answer back. It keeps no state between messages and is safe for
// concurrent use.
type Dispatcher struct {
	llm          Completer
	out          Messenger
	systemPrompt string
	maxChunk     int
	logger       *slog.Logger
}

func NewDispatcher(llm Completer, out Messenger, systemPrompt string, logger *slog.Logger) (*Dispatcher, error) {
	if llm == nil {
		return nil, errors.New("usecase: completer must not be nil")
	}
	if out == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("usecase: system prompt must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		llm:          llm,
		out:          out,
		systemPrompt: systemPrompt,
		maxChunk:     chunk.MaxLen,
		logger:       logger,
	}, nil
}

// Dispatch handles a single text message end to end. Failures never reach the
// caller as long as the fallback message can be delivered; the returned error
// means the user got no answer at all.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.InboundMessage) (err error) {
	log := d.logger.With(
		"correlation_id", newCorrelationID(),
		"chat_id", msg.ChatID,
		"update_id", msg.UpdateID,
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch panicked", "reason", "panic", "err", fmt.Errorf("%v", r))
			err = d.fallback(ctx, log, msg.ChatID)
		}
	}()

	if err := d.out.SendChatAction(ctx, msg.ChatID, actionTyping); err != nil {
		log.Debug("typing indicator failed", "err", err)
	}

	reply := d.resolve(ctx, log, msg.Text)

	sent, err := d.deliver(ctx, msg.ChatID, reply)
	if err != nil {
		log.Error("reply delivery failed", "reason", "delivery_error", "chunks_sent", sent, "err", err)
		return d.fallback(ctx, log, msg.ChatID)
	}
	log.Info("dispatch complete", "chunks", sent, "reply_chars", len(reply))
	return nil
}

// resolve turns the completion outcome into the text shown to the user.
func (d *Dispatcher) resolve(ctx context.Context, log *slog.Logger, text string) string {
	res := d.llm.Complete(ctx, d.systemPrompt, text)
	if res.Failed() {
		reason := "completion_error"
		if status, ok := upstreamStatusCode(res.Err); ok {
			reason = "completion_http_error"
			log = log.With("status", status)
		}
		log.Error("completion request failed", "err", newError(ErrorUpstream, reason, res.Err))
		return FallbackText
	}
	if strings.TrimSpace(res.Text) == "" {
		log.Warn("completion returned empty reply")
		return EmptyReplyText
	}
	return res.Text
}

// deliver sends reply chunk by chunk, each send finishing before the next
// starts. It returns how many chunks were sent.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, reply string) (int, error) {
	sent := 0
	for part := range chunk.All(reply, d.maxChunk) {
		if err := d.out.SendMessage(ctx, chatID, part); err != nil {
			return sent, fmt.Errorf("send chunk %d: %w", sent+1, err)
		}
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) fallback(ctx context.Context, log *slog.Logger, chatID int64) error {
	if err := d.out.SendMessage(ctx, chatID, FallbackText); err != nil {
		uerr := newError(ErrorDelivery, "fallback_delivery_error", err)
		log.Error("fallback delivery failed", "err", uerr)
		return uerr
	}
	return nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
