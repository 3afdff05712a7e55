package telegram

import (
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/slavuta-ads/adsbot/internal/event"
)

const UpdateTimeout = 5 * time.Minute

// ToEvent converts a private message update into an inbound event. Updates
// older than UpdateTimeout and messages without a supported payload are skipped.
func ToEvent(u api.Update, now time.Time) (event.Event, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return event.Event{}, false
	}
	sent := time.Unix(int64(m.Date), 0)
	if now.Sub(sent) > UpdateTimeout {
		return event.Event{}, false
	}

	ev := event.Event{
		UserID: m.From.ID,
		ChatID: m.From.ID,
		Profile: event.Profile{
			FirstName:    m.From.FirstName,
			LastName:     m.From.LastName,
			Username:     m.From.UserName,
			LanguageCode: m.From.LanguageCode,
		},
		Time: sent,
	}
	if chat := u.FromChat(); chat != nil {
		if !chat.IsPrivate() {
			return event.Event{}, false
		}
		ev.ChatID = chat.ID
	}

	switch {
	case m.WebAppData != nil:
		ev.Kind = event.KindForm
		ev.Payload = m.WebAppData.Data
	case m.IsCommand():
		ev.Kind = event.KindCommand
		ev.Command = strings.ToLower(m.Command())
		ev.Args = strings.Fields(m.CommandArguments())
	case len(m.Photo) > 0:
		ev.Kind = event.KindPhoto
		ev.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
	case m.Text != "":
		ev.Kind = event.KindText
		ev.Text = m.Text
	default:
		return event.Event{}, false
	}
	return ev, true
}
