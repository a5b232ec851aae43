package telegram

import (
	"strings"

	"tg-relay-bot/internal/domain"
)

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      *Chat  `json:"chat,omitempty"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Inbound converts a text update into the domain message. ok is false for
// updates that carry no text message.
func (u Update) Inbound() (domain.InboundMessage, bool) {
	m := u.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return domain.InboundMessage{}, false
	}
	return domain.InboundMessage{
		UpdateID:   u.UpdateID,
		MessageID:  m.MessageID,
		ChatID:     m.Chat.ID,
		SenderName: FirstName(m.From),
		Text:       m.Text,
	}, true
}

// FirstName returns the sender's first name, falling back to the username.
func FirstName(u *User) string {
	if u == nil {
		return ""
	}
	if first := strings.TrimSpace(u.FirstName); first != "" {
		return first
	}
	return strings.TrimSpace(u.Username)
}

// Command returns the lower-cased command name of a "/cmd" or "/cmd@Bot"
// message, or "" when text is not a command.
func Command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "\n")
	cmd, _, _ = strings.Cut(cmd, "@")
	cmd = strings.TrimPrefix(cmd, "/")
	return strings.ToLower(cmd)
}
