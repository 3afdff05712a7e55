package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slavuta-ads/adsbot/internal/access"
	apperrors "github.com/slavuta-ads/adsbot/internal/errors"
	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

const (
	historyLimit = 10
	// maxBanDays keeps the ban duration far below the time.Duration range.
	maxBanDays = 3650
)

func (d *Dispatcher) ban(ctx context.Context, c call) error {
	if len(c.Args) < 3 {
		return c.invalid()
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}
	days, err := c.positiveIntArg(1)
	if err != nil {
		return err
	}
	if days > maxBanDays {
		return c.invalid()
	}
	reason, err := c.restArg(2)
	if err != nil {
		return err
	}

	result, err := d.gate.Ban(ctx, userID, time.Duration(days)*24*time.Hour, reason, c.Time)
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		return err
	}
	d.record(ctx, c.Event, userID, "ban", fmt.Sprintf("%dd: %s", days, reason))

	text := fmt.Sprintf(
		i18n.Get("✅ User %d has been added to the blacklist.\n⏳ Until: %s\n📝 Reason: %s", d.opts.Language),
		userID, d.localTime(result.Entry.EndDate), reason,
	)
	if !result.Notified {
		text += "\n" + i18n.Get("⚠️ The user could not be notified.", d.opts.Language)
	}
	if err != nil {
		text += "\n" + fmt.Sprintf(i18n.Get("⚠️ The change is active but was not saved: %s", d.opts.Language), err.Error())
	}
	d.reply(ctx, c.Event, text)
	return nil
}

func (d *Dispatcher) unban(ctx context.Context, c call) error {
	if err := c.expectArgs(1); err != nil {
		return err
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}

	result, err := d.gate.Unban(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("User %d is not in the blacklist.", d.opts.Language), userID))
		return nil
	case err != nil && !errors.Is(err, apperrors.ErrPersistence):
		return err
	}
	d.record(ctx, c.Event, userID, "unban", result.Entry.Reason)

	text := fmt.Sprintf(i18n.Get("✅ User %d has been removed from the blacklist.", d.opts.Language), userID)
	if !result.Notified {
		text += "\n" + i18n.Get("⚠️ The user could not be notified.", d.opts.Language)
	}
	if err != nil {
		text += "\n" + fmt.Sprintf(i18n.Get("⚠️ The change is active but was not saved: %s", d.opts.Language), err.Error())
	}
	d.reply(ctx, c.Event, text)
	return nil
}

func (d *Dispatcher) blacklist(ctx context.Context, c call) error {
	views := d.gate.ViewBlacklist(c.Time)
	if len(views) == 0 {
		d.reply(ctx, c.Event, i18n.Get("The blacklist is empty.", d.opts.Language))
		return nil
	}

	var sb strings.Builder
	sb.WriteString(i18n.Get("🚫 Blacklist:", d.opts.Language))
	for _, v := range views {
		remaining := v.Remaining.Truncate(time.Hour)
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(
			i18n.Get("🆔 %d | ⏳ %dd %dh | 📝 %s", d.opts.Language),
			v.UserID, int(remaining.Hours())/24, int(remaining.Hours())%24, v.Reason,
		))
	}
	d.reply(ctx, c.Event, sb.String())
	return nil
}

func (d *Dispatcher) answer(ctx context.Context, c call) error {
	if len(c.Args) < 2 {
		return c.invalid()
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}
	text, err := c.restArg(1)
	if err != nil {
		return err
	}

	msg := notify.Text(userID, fmt.Sprintf(i18n.Get("📬 Reply from the administration:\n\n%s", d.opts.Language), text))
	if err := notify.Deliver(ctx, d.sender, msg); err != nil {
		d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("❌ Could not deliver the message to user %d.", d.opts.Language), userID))
		return nil
	}
	d.record(ctx, c.Event, userID, "answer", text)
	d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("✅ Reply sent to user %d.", d.opts.Language), userID))
	return nil
}

func (d *Dispatcher) resetCounters(ctx context.Context, c call) error {
	if err := c.expectArgs(1); err != nil {
		return err
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}

	if !d.gate.ResetCounters(userID) {
		d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("User %d has no counters.", d.opts.Language), userID))
		return nil
	}
	d.record(ctx, c.Event, userID, "reset_counters", "")
	d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("✅ Counters of user %d have been reset.", d.opts.Language), userID))
	return nil
}

func (d *Dispatcher) viewCounters(ctx context.Context, c call) error {
	if err := c.expectArgs(1); err != nil {
		return err
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}

	view := d.gate.ViewCounters(userID, c.Time)
	d.reply(ctx, c.Event, fmt.Sprintf(
		i18n.Get("📊 Counters of user %d:\n📝 Listings: %d/%d (resets at %s)\n📨 Requests: %d/%d (resets at %s)", d.opts.Language),
		userID,
		view.Post.Count, view.Post.Kind.Ceiling(), d.localTime(view.Post.ResetTime.Add(access.RateWindow)),
		view.Report.Count, view.Report.Kind.Ceiling(), d.localTime(view.Report.ResetTime.Add(access.RateWindow)),
	))
	return nil
}

func (d *Dispatcher) listUsers(ctx context.Context, c call) error {
	post, report := d.gate.CounterUsers()
	d.reply(ctx, c.Event, fmt.Sprintf(
		i18n.Get("👥 Users with listing counters: %s\n👥 Users with request counters: %s", d.opts.Language),
		d.joinIDs(post), d.joinIDs(report),
	))
	return nil
}

func (d *Dispatcher) joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return i18n.Get("none", d.opts.Language)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func (d *Dispatcher) checkStats(ctx context.Context, c call) error {
	snapshot := d.daily.Snapshot()
	d.reply(ctx, c.Event, stats.Report(snapshot, c.Time.In(d.opts.Location), d.opts.Language))
	return nil
}

func (d *Dispatcher) history(ctx context.Context, c call) error {
	if err := c.expectArgs(1); err != nil {
		return err
	}
	userID, err := c.userArg(0)
	if err != nil {
		return err
	}
	if d.audit == nil {
		return fmt.Errorf("%w: moderation log is not configured", apperrors.ErrNotFound)
	}

	records, err := d.audit.GetModerationRecords(ctx, userID, historyLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if len(records) == 0 {
		d.reply(ctx, c.Event, fmt.Sprintf(i18n.Get("No moderation history for user %d.", d.opts.Language), userID))
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(i18n.Get("🗂 Moderation history of user %d:", d.opts.Language), userID))
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("\n%s | %s | %d", d.localTime(rec.CreatedAt), rec.Action, rec.ActorID))
		if rec.Detail != "" {
			sb.WriteString(" | " + rec.Detail)
		}
	}
	d.reply(ctx, c.Event, sb.String())
	return nil
}

func (d *Dispatcher) adminHelp(ctx context.Context, c call) error {
	d.reply(ctx, c.Event, i18n.Get("🛠 Admin commands:\n/ban <user_id> <days> <reason> - block a user\n/unban <user_id> - unblock a user\n/blacklist - show blocked users\n/ans <user_id> <text> - reply to a request\n/reset_counters <user_id> - reset daily limits\n/view_counters <user_id> - show daily limits\n/list_users - users with counters\n/check_stats - today's statistics\n/history <user_id> - moderation history", d.opts.Language))
	return nil
}
