package access

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/db"
	apperrors "github.com/slavuta-ads/adsbot/internal/errors"
	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/notify"
)

type (
	// Decision is the outcome of Admit. Expired marks an entry whose term has
	// passed but which has not been removed yet.
	Decision struct {
		Allowed   bool
		Expired   bool
		Reason    string
		Remaining time.Duration
	}

	BanResult struct {
		Entry    db.BlacklistEntry
		Notified bool
	}

	UnbanResult struct {
		Entry    db.BlacklistEntry
		Notified bool
	}

	BlacklistView struct {
		UserID    int64
		EndDate   time.Time
		Remaining time.Duration
		Reason    string
	}
)

func (g *Gate) Admit(userID int64, now time.Time) Decision {
	g.blacklistMu.RLock()
	entry, ok := g.blacklist[userID]
	g.blacklistMu.RUnlock()

	switch {
	case !ok:
		return Decision{Allowed: true}
	case entry.Expired(now):
		return Decision{Allowed: true, Expired: true}
	default:
		return Decision{Reason: entry.Reason, Remaining: entry.Remaining(now)}
	}
}

// Expire removes the entry of userID if it is still expired at now.
func (g *Gate) Expire(ctx context.Context, userID int64, now time.Time) error {
	g.blacklistMu.Lock()
	defer g.blacklistMu.Unlock()

	entry, ok := g.blacklist[userID]
	if !ok || !entry.Expired(now) {
		return nil
	}
	delete(g.blacklist, userID)
	if err := g.persistLocked(ctx); err != nil {
		return fmt.Errorf("%w: expire %d: %v", apperrors.ErrPersistence, userID, err)
	}
	g.getLogEntry().WithField("user_id", userID).Info("expired ban removed")
	return nil
}

// Ban replaces any existing entry. The in-memory change stands even when the
// write fails; the returned error then wraps ErrPersistence.
func (g *Gate) Ban(ctx context.Context, userID int64, duration time.Duration, reason string, now time.Time) (BanResult, error) {
	if duration <= 0 {
		return BanResult{}, fmt.Errorf("%w: ban duration must be positive", apperrors.ErrValidation)
	}
	entry := db.BlacklistEntry{
		UserID:  userID,
		EndDate: now.Add(duration),
		Reason:  reason,
	}

	g.blacklistMu.Lock()
	g.blacklist[userID] = entry
	persistErr := g.persistLocked(ctx)
	g.blacklistMu.Unlock()

	days, hours := splitDuration(duration)
	notifyErr := notify.Deliver(ctx, g.sender, notify.Text(userID, fmt.Sprintf(
		i18n.Get("🚫 You have been blocked for %dd %dh.\n📝 Reason: %s", g.opts.Language),
		days, hours, reason,
	)))

	g.getLogEntry().WithFields(log.Fields{
		"method":   "Ban",
		"user_id":  userID,
		"end_date": entry.EndDate,
		"notified": notifyErr == nil,
	}).Info("user banned")

	result := BanResult{Entry: entry, Notified: notifyErr == nil}
	if persistErr != nil {
		return result, fmt.Errorf("%w: ban %d: %v", apperrors.ErrPersistence, userID, persistErr)
	}
	return result, nil
}

func (g *Gate) Unban(ctx context.Context, userID int64) (UnbanResult, error) {
	g.blacklistMu.Lock()
	entry, ok := g.blacklist[userID]
	if !ok {
		g.blacklistMu.Unlock()
		return UnbanResult{}, fmt.Errorf("%w: user %d is not blacklisted", apperrors.ErrNotFound, userID)
	}
	delete(g.blacklist, userID)
	persistErr := g.persistLocked(ctx)
	g.blacklistMu.Unlock()

	notifyErr := notify.Deliver(ctx, g.sender, notify.Text(userID, g.releaseText()))
	g.getLogEntry().WithFields(log.Fields{
		"method":   "Unban",
		"user_id":  userID,
		"notified": notifyErr == nil,
	}).Info("user unbanned")

	result := UnbanResult{Entry: entry, Notified: notifyErr == nil}
	if persistErr != nil {
		return result, fmt.Errorf("%w: unban %d: %v", apperrors.ErrPersistence, userID, persistErr)
	}
	return result, nil
}

// Sweep removes every entry whose term has ended, persists once and notifies
// the released users.
func (g *Gate) Sweep(ctx context.Context, now time.Time) ([]int64, error) {
	g.blacklistMu.Lock()
	var released []int64
	for id, entry := range g.blacklist {
		if entry.Expired(now) {
			released = append(released, id)
		}
	}
	for _, id := range released {
		delete(g.blacklist, id)
	}
	var persistErr error
	if len(released) > 0 {
		persistErr = g.persistLocked(ctx)
	}
	g.blacklistMu.Unlock()

	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	for _, id := range released {
		_ = notify.Deliver(ctx, g.sender, notify.Text(id, i18n.Get("✅ Your block has expired. You can use the bot again.", g.opts.Language)))
	}
	if persistErr != nil {
		return released, fmt.Errorf("%w: sweep: %v", apperrors.ErrPersistence, persistErr)
	}
	return released, nil
}

// ViewBlacklist lists entries ordered by user id.
func (g *Gate) ViewBlacklist(now time.Time) []BlacklistView {
	g.blacklistMu.RLock()
	views := make([]BlacklistView, 0, len(g.blacklist))
	for id, entry := range g.blacklist {
		views = append(views, BlacklistView{
			UserID:    id,
			EndDate:   entry.EndDate,
			Remaining: entry.Remaining(now),
			Reason:    entry.Reason,
		})
	}
	g.blacklistMu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].UserID < views[j].UserID })
	return views
}

// DenialText renders the notice shown to a blacklisted user.
func DenialText(d Decision, lang string) string {
	days, hours := splitDuration(d.Remaining)
	return fmt.Sprintf(
		i18n.Get("❌ You cannot use this bot.\n⏳ Block term: %dd %dh\n📝 Reason: %s", lang),
		days, hours, d.Reason,
	)
}

func (g *Gate) releaseText() string {
	if g.opts.RulesLink == "" {
		return i18n.Get("✅ You have been unblocked. Please follow the rules.", g.opts.Language)
	}
	return fmt.Sprintf(i18n.Get("✅ You have been unblocked. Please follow the rules: %s", g.opts.Language), g.opts.RulesLink)
}

func splitDuration(d time.Duration) (days, hours int) {
	if d < 0 {
		d = 0
	}
	totalHours := int(d / time.Hour)
	return totalHours / 24, totalHours % 24
}
