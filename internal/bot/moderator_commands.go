package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/notify"
)

type reviewKind struct {
	prefix string
	noun   string
}

// translatedLabels holds the review nouns followed by the paid service catalog.
var translatedLabels = []string{
	"buying",
	"selling",
	"announcement",
	"advertising",
	"pinning a listing for 3 days",
	"publication",
	"publication + advertising for 12 hours",
	"publication + advertising for 1 day",
	"publication + advertising for 3 days",
	"publication + advertising for 7 days",
	"publication + pinning + advertising for 12 hours",
	"publication + pinning + advertising for 1 day",
	"publication + pinning + advertising for 3 days",
	"publication + pinning + advertising for 7 days",
}

var reviewKinds = []reviewKind{
	{prefix: "buy", noun: translatedLabels[0]},
	{prefix: "sell", noun: translatedLabels[1]},
	{prefix: "ad", noun: translatedLabels[2]},
	{prefix: "an", noun: translatedLabels[3]},
}

// paidServices is the catalog referenced by /payment; service id n is paidServices[n-1].
var paidServices = translatedLabels[4:]

func (d *Dispatcher) accept(kind reviewKind) func(context.Context, call) error {
	return func(ctx context.Context, c call) error {
		if err := c.expectArgs(1); err != nil {
			return err
		}
		userID, err := c.userArg(0)
		if err != nil {
			return err
		}
		text := fmt.Sprintf(
			i18n.Get("✅ Your request for %s has passed moderation.\n🔍 All listings are available on our channel:\n📢 %s", d.opts.Language),
			i18n.Get(kind.noun, d.opts.Language), d.opts.Channel,
		)
		return d.notifyUser(ctx, c, userID, kind.prefix+"_accept", "", text)
	}
}

func (d *Dispatcher) reject(kind reviewKind) func(context.Context, call) error {
	return func(ctx context.Context, c call) error {
		if len(c.Args) < 2 {
			return c.invalid()
		}
		userID, err := c.userArg(0)
		if err != nil {
			return err
		}
		reason, err := c.restArg(1)
		if err != nil {
			return err
		}
		text := fmt.Sprintf(
			i18n.Get("❌ Your request for %s did not pass moderation.\n📝 Reason: %s\n🔍 All listings are available on our channel:\n📢 %s", d.opts.Language),
			i18n.Get(kind.noun, d.opts.Language), reason, d.opts.Channel,
		)
		return d.notifyUser(ctx, c, userID, kind.prefix+"_reject", reason, text)
	}
}

func (d *Dispatcher) payment(ctx context.Context, c call) error {
	if err := c.expectArgs(3); err != nil {
		return err
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}
	serviceID, err := c.positiveIntArg(1)
	if err != nil || serviceID > len(paidServices) {
		return c.invalid()
	}
	amount, err := c.amountArg(2)
	if err != nil {
		return err
	}

	service := i18n.Get(paidServices[serviceID-1], d.opts.Language)
	text := fmt.Sprintf(
		i18n.Get("💼 You have requested paid services: %s.\n💳 To publish, pay to the bank card:\n`%s`\n💰 Total: `%s` UAH.\n📝 In the payment purpose be sure to write:\n`Payment for services №%d`\n⏳ After payment the publication will appear within 24 hours and you will be notified.\n🙏 Thank you for using our services!", d.opts.Language),
		service, d.opts.PaymentCard, strconv.FormatFloat(amount, 'f', -1, 64), userID,
	)
	msg := notify.Message{ChatID: userID, Text: text, ParseMode: notify.ParseModeMarkdown}
	if err := notify.Deliver(ctx, d.sender, msg); err != nil {
		d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("❌ Could not deliver the message to user %d.", d.opts.Language), userID))
		return nil
	}
	d.record(ctx, c.Event, userID, "payment", fmt.Sprintf("%d: %s", serviceID, strconv.FormatFloat(amount, 'f', -1, 64)))
	d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("✅ Payment details sent to user %d.", d.opts.Language), userID))
	return nil
}

func (d *Dispatcher) notifyUser(ctx context.Context, c call, userID int64, action, detail, text string) error {
	if err := notify.Deliver(ctx, d.sender, notify.Text(userID, text)); err != nil {
		d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("❌ Could not deliver the message to user %d.", d.opts.Language), userID))
		return nil
	}
	d.record(ctx, c.Event, userID, action, detail)
	d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("✅ Message sent to user %d.", d.opts.Language), userID))
	return nil
}

func (d *Dispatcher) moderatorHelp(ctx context.Context, c call) error {
	text := i18n.Get("🛡 Moderator commands:\n✅ /buy_accept <user_id> - approve a buying request\n✅ /sell_accept <user_id> - approve a selling request\n✅ /ad_accept <user_id> - approve an announcement\n✅ /an_accept <user_id> - approve an advertising request\n\n❌ /buy_reject <user_id> <reason> - reject a buying request\n❌ /sell_reject <user_id> <reason> - reject a selling request\n❌ /ad_reject <user_id> <reason> - reject an announcement\n❌ /an_reject <user_id> <reason> - reject an advertising request\n\n💳 /payment <user_id> <service_id> <amount> - send payment details\n\nService IDs:", d.opts.Language)
	for i, service := range paidServices {
		text += fmt.Sprintf("\n%d - %s", i+1, i18n.Get(service, d.opts.Language))
	}
	d.reply(ctx, c.Event, text)
	return nil
}
