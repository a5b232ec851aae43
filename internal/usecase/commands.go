package usecase

import (
	"context"
	"strings"

	"tg-relay-bot/internal/domain"
)

const (
	CommandStart = "start"
	CommandHelp  = "help"

	HelpText = "Send any question or text and I'll reply using the OpenRouter API.\n" +
		"Commands: /start, /help"
)

// GreetingText is the /start reply for a sender with the given first name.
func GreetingText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return "Hi " + name + "! 🤖\n" +
		"I'm a Telegram bot that relays your messages to an AI model. Just send me a message."
}

// HandleCommand answers the static commands. It reports false for commands it
// does not know, which are left unanswered. Delivery failures are logged and
// otherwise ignored.
func (d *Dispatcher) HandleCommand(ctx context.Context, msg domain.InboundMessage, command string) bool {
	var text string
	switch strings.ToLower(command) {
	case CommandStart:
		text = GreetingText(msg.SenderName)
	case CommandHelp:
		text = HelpText
	default:
		d.logger.Debug("ignoring unknown command", "command", command, "chat_id", msg.ChatID)
		return false
	}
	if err := d.out.SendMessage(ctx, msg.ChatID, text); err != nil {
		d.logger.Warn("command reply failed", "command", command, "chat_id", msg.ChatID, "err", err)
	}
	return true
}
