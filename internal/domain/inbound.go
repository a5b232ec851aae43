package domain

// InboundMessage is one text message received from the chat platform. It lives
// only for the duration of a single dispatch.
type InboundMessage struct {
	UpdateID   int64
	MessageID  int64
	ChatID     int64
	SenderName string
	Text       string
}
