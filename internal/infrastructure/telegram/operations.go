package telegram

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/slavuta-ads/adsbot/internal/notify"
)

// Operations sends outbound messages through the Bot API.
type Operations struct {
	bot       *api.BotAPI
	keyboards Keyboards
}

func NewOperations(bot *api.BotAPI, keyboards Keyboards) *Operations {
	return &Operations{bot: bot, keyboards: keyboards}
}

// Send makes a single attempt; a photo message carries Text as its caption.
func (o *Operations) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Send(o.chattable(msg))
	return errors.Wrapf(err, "send to chat %d", msg.ChatID)
}

func (o *Operations) chattable(msg notify.Message) api.Chattable {
	markup := o.keyboards.Markup(msg.Keyboard)
	if msg.PhotoFileID != "" {
		photo := api.NewPhoto(msg.ChatID, api.FileID(msg.PhotoFileID))
		photo.Caption = msg.Text
		photo.ParseMode = string(msg.ParseMode)
		if markup != nil {
			photo.ReplyMarkup = markup
		}
		return photo
	}

	text := api.NewMessage(msg.ChatID, msg.Text)
	text.ParseMode = string(msg.ParseMode)
	if markup != nil {
		text.ReplyMarkup = markup
	}
	return text
}
