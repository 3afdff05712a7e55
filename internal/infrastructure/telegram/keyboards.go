package telegram

import (
	"net/url"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

var translatedLabels = []string{
	"Buying",
	"Selling",
	"Announcement",
	"Advertising",
}

var menuButtons = []struct {
	label    string
	formType stats.FormType
}{
	{label: translatedLabels[0], formType: stats.FormBuying},
	{label: translatedLabels[1], formType: stats.FormSelling},
	{label: translatedLabels[2], formType: stats.FormAnnouncement},
	{label: translatedLabels[3], formType: stats.FormAdvertising},
}

// Keyboards builds reply keyboards. The main menu opens the web form with
// the chosen form type in the query string.
type Keyboards struct {
	FormURL  string
	Language string
}

// Markup returns nil when the current keyboard should stay as is.
func (k Keyboards) Markup(kind notify.Keyboard) any {
	switch kind {
	case notify.KeyboardMenu:
		buttons := make([]api.KeyboardButton, 0, len(menuButtons))
		for _, b := range menuButtons {
			buttons = append(buttons, api.KeyboardButton{
				Text:   i18n.Get(b.label, k.Language),
				WebApp: &api.WebAppInfo{URL: k.formURL(b.formType)},
			})
		}
		return resized(api.NewReplyKeyboard(
			api.NewKeyboardButtonRow(buttons[0], buttons[1]),
			api.NewKeyboardButtonRow(buttons[2], buttons[3]),
		))
	case notify.KeyboardReport:
		return resized(api.NewReplyKeyboard(api.NewKeyboardButtonRow(
			api.NewKeyboardButton(i18n.Get("Submit", k.Language)),
			api.NewKeyboardButton(i18n.Get("Back", k.Language)),
		)))
	case notify.KeyboardPhotos:
		return resized(api.NewReplyKeyboard(api.NewKeyboardButtonRow(
			api.NewKeyboardButton(i18n.Get("Finish", k.Language)),
		)))
	case notify.KeyboardRemove:
		return api.NewRemoveKeyboard(false)
	default:
		return nil
	}
}

func (k Keyboards) formURL(formType stats.FormType) string {
	u, err := url.Parse(k.FormURL)
	if err != nil {
		return k.FormURL + "?type=" + string(formType)
	}
	q := u.Query()
	q.Set("type", string(formType))
	u.RawQuery = q.Encode()
	return u.String()
}

func resized(markup api.ReplyKeyboardMarkup) api.ReplyKeyboardMarkup {
	markup.ResizeKeyboard = true
	return markup
}
