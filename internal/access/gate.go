package access

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/observability"
)

// Store is the durable home of the blacklist. Save receives the full set and
// must replace the previous one atomically.
type Store interface {
	Load(ctx context.Context) (map[int64]db.BlacklistEntry, error)
	Save(ctx context.Context, entries map[int64]db.BlacklistEntry) error
}

type Options struct {
	Language  string
	RulesLink string
}

// Gate owns the blacklist and the per-user rate counters. The event path and
// the scheduler share it; every method is safe for concurrent use.
type Gate struct {
	store  Store
	sender notify.Sender
	opts   Options

	blacklistMu sync.RWMutex
	blacklist   map[int64]db.BlacklistEntry

	countersMu sync.Mutex
	counters   map[db.LimitKind]map[int64]*db.RateCounter
}

func NewGate(store Store, sender notify.Sender, opts Options) *Gate {
	return &Gate{
		store:     store,
		sender:    sender,
		opts:      opts,
		blacklist: map[int64]db.BlacklistEntry{},
		counters: map[db.LimitKind]map[int64]*db.RateCounter{
			db.LimitPost:   {},
			db.LimitReport: {},
		},
	}
}

// Load replaces the in-memory blacklist with the durable one.
func (g *Gate) Load(ctx context.Context) error {
	entries, err := g.store.Load(ctx)
	if err != nil {
		return errors.WithMessage(err, "load blacklist")
	}
	g.blacklistMu.Lock()
	g.blacklist = entries
	size := len(entries)
	g.blacklistMu.Unlock()

	observability.SetBlacklistSize(size)
	g.getLogEntry().WithField("entries", size).Info("blacklist loaded")
	return nil
}

func (g *Gate) getLogEntry() *log.Entry {
	return log.WithField("object", "Gate")
}

// persistLocked writes the current blacklist; the caller holds blacklistMu.
func (g *Gate) persistLocked(ctx context.Context) error {
	snapshot := make(map[int64]db.BlacklistEntry, len(g.blacklist))
	for id, entry := range g.blacklist {
		snapshot[id] = entry
	}
	observability.SetBlacklistSize(len(snapshot))
	return g.store.Save(ctx, snapshot)
}
