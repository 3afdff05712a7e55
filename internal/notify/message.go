package notify

import "context"

// Keyboard selects the reply controls attached to an outbound message.
type Keyboard int

const (
	KeyboardKeep Keyboard = iota
	KeyboardMenu
	KeyboardReport
	KeyboardPhotos
	KeyboardRemove
)

type ParseMode string

const (
	ParseModePlain    ParseMode = ""
	ParseModeHTML     ParseMode = "HTML"
	ParseModeMarkdown ParseMode = "Markdown"
)

// Message is a transport-neutral outbound message. A non-empty PhotoFileID
// sends a photo with Text as its caption.
type Message struct {
	ChatID      int64
	Text        string
	PhotoFileID string
	ParseMode   ParseMode
	Keyboard    Keyboard
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func Text(chatID int64, text string) Message {
	return Message{ChatID: chatID, Text: text}
}
