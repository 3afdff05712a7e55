package bot

import (
	"context"
	"time"

	"github.com/slavuta-ads/adsbot/internal/access"
	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

// Gate is the part of the access gate the dispatcher and the admin commands use.
type Gate interface {
	Admit(userID int64, now time.Time) access.Decision
	Expire(ctx context.Context, userID int64, now time.Time) error
	Ban(ctx context.Context, userID int64, duration time.Duration, reason string, now time.Time) (access.BanResult, error)
	Unban(ctx context.Context, userID int64) (access.UnbanResult, error)
	ViewBlacklist(now time.Time) []access.BlacklistView
	ResetCounters(userID int64) bool
	ViewCounters(userID int64, now time.Time) access.CounterView
	CounterUsers() (post, report []int64)
}

// Sessions receives every event that is not an operator command.
type Sessions interface {
	Handle(ctx context.Context, ev event.Event)
}

type StatsSource interface {
	Snapshot() stats.Snapshot
}

// AuditLog records operator actions.
type AuditLog interface {
	InsertModerationRecord(ctx context.Context, rec *db.ModerationRecord) error
	GetModerationRecords(ctx context.Context, userID int64, limit int) ([]db.ModerationRecord, error)
}
