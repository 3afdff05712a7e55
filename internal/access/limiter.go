package access

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/observability"
)

const RateWindow = 24 * time.Hour

type CounterView struct {
	Post   db.RateCounter
	Report db.RateCounter
}

// CheckAndConsume increments the counter of (userID, kind) unless it is at
// its ceiling. A counter older than RateWindow restarts from zero first.
func (g *Gate) CheckAndConsume(userID int64, kind db.LimitKind, now time.Time) bool {
	g.countersMu.Lock()
	defer g.countersMu.Unlock()

	byUser, ok := g.counters[kind]
	if !ok {
		return false
	}
	counter, ok := byUser[userID]
	if !ok {
		counter = &db.RateCounter{UserID: userID, Kind: kind, ResetTime: now}
		byUser[userID] = counter
	}
	if now.Sub(counter.ResetTime) > RateWindow {
		counter.Count = 0
		counter.ResetTime = now
	}
	if counter.Count >= kind.Ceiling() {
		observability.RecordQuotaDenied(string(kind))
		g.getLogEntry().WithFields(log.Fields{
			"method":  "CheckAndConsume",
			"user_id": userID,
			"kind":    kind,
		}).Debug("quota exhausted")
		return false
	}
	counter.Count++
	return true
}

// ResetCounters drops both counters of userID and reports whether any existed.
func (g *Gate) ResetCounters(userID int64) bool {
	g.countersMu.Lock()
	defer g.countersMu.Unlock()

	found := false
	for _, byUser := range g.counters {
		if _, ok := byUser[userID]; ok {
			delete(byUser, userID)
			found = true
		}
	}
	return found
}

// ViewCounters returns the effective counters at now without creating or rolling them.
func (g *Gate) ViewCounters(userID int64, now time.Time) CounterView {
	g.countersMu.Lock()
	defer g.countersMu.Unlock()

	return CounterView{
		Post:   g.effectiveLocked(userID, db.LimitPost, now),
		Report: g.effectiveLocked(userID, db.LimitReport, now),
	}
}

func (g *Gate) effectiveLocked(userID int64, kind db.LimitKind, now time.Time) db.RateCounter {
	counter, ok := g.counters[kind][userID]
	if !ok || now.Sub(counter.ResetTime) > RateWindow {
		return db.RateCounter{UserID: userID, Kind: kind, ResetTime: now}
	}
	return *counter
}

// ResetAll zeroes every counter and restarts its window at now.
func (g *Gate) ResetAll(now time.Time) int {
	g.countersMu.Lock()
	defer g.countersMu.Unlock()

	n := 0
	for _, byUser := range g.counters {
		for _, counter := range byUser {
			counter.Count = 0
			counter.ResetTime = now
			n++
		}
	}
	return n
}

// CounterUsers lists the users holding a counter of each kind, ordered by id.
func (g *Gate) CounterUsers() (post, report []int64) {
	g.countersMu.Lock()
	defer g.countersMu.Unlock()

	return sortedKeys(g.counters[db.LimitPost]), sortedKeys(g.counters[db.LimitReport])
}

func sortedKeys(m map[int64]*db.RateCounter) []int64 {
	keys := make([]int64, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
