package telegram

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/notify"
)

func TestMenuKeyboardOpensFormPerType(t *testing.T) {
	t.Parallel()

	k := Keyboards{FormURL: "https://forms.example/app", Language: "en"}
	markup, ok := k.Markup(notify.KeyboardMenu).(api.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("expected reply keyboard")
	}
	if !markup.ResizeKeyboard {
		t.Fatalf("keyboard must be resized")
	}
	want := [][2]string{
		{"Buying", "https://forms.example/app?type=buying"},
		{"Selling", "https://forms.example/app?type=selling"},
		{"Announcement", "https://forms.example/app?type=announcement"},
		{"Advertising", "https://forms.example/app?type=advertising"},
	}
	var got [][2]string
	for _, row := range markup.Keyboard {
		for _, button := range row {
			if button.WebApp == nil {
				t.Fatalf("button %q must open the web form", button.Text)
			}
			got = append(got, [2]string{button.Text, button.WebApp.URL})
		}
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d buttons, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("button %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestReportKeyboardIsTranslated(t *testing.T) {
	t.Parallel()

	k := Keyboards{FormURL: "https://forms.example", Language: "uk"}
	markup, ok := k.Markup(notify.KeyboardReport).(api.ReplyKeyboardMarkup)
	if !ok || len(markup.Keyboard) != 1 || len(markup.Keyboard[0]) != 2 {
		t.Fatalf("unexpected report keyboard %+v", markup)
	}
	if markup.Keyboard[0][0].Text != i18n.Get("Submit", "uk") || markup.Keyboard[0][1].Text != i18n.Get("Back", "uk") {
		t.Fatalf("unexpected labels %+v", markup.Keyboard[0])
	}
}

func TestKeepAndRemoveKeyboards(t *testing.T) {
	t.Parallel()

	k := Keyboards{}
	if k.Markup(notify.KeyboardKeep) != nil {
		t.Fatalf("keep must not attach markup")
	}
	if _, ok := k.Markup(notify.KeyboardRemove).(api.ReplyKeyboardRemove); !ok {
		t.Fatalf("remove must attach ReplyKeyboardRemove")
	}
}
