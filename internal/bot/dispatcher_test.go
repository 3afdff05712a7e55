package bot_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slavuta-ads/adsbot/internal/access"
	"github.com/slavuta-ads/adsbot/internal/bot"
	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/db/sqlite"
	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/policy/permissions"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

const (
	adminID     int64 = 1
	moderatorID int64 = 2
	userID      int64 = 100
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu      sync.Mutex
	entries map[int64]db.BlacklistEntry
}

func (s *memStore) Load(context.Context) (map[int64]db.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]db.BlacklistEntry{}
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, entries map[int64]db.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	return nil
}

type recordingSessions struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingSessions) Handle(_ context.Context, ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSessions) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	dispatcher *bot.Dispatcher
	gate       *access.Gate
	store      *memStore
	sender     *notify.Recorder
	sessions   *recordingSessions
	daily      *stats.Daily
	audit      db.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	client, err := sqlite.NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		store:    &memStore{entries: map[int64]db.BlacklistEntry{}},
		sender:   notify.NewRecorder(),
		sessions: &recordingSessions{},
		daily:    stats.NewDaily(),
		audit:    client,
	}
	f.gate = access.NewGate(f.store, f.sender, access.Options{Language: "en"})
	f.dispatcher = bot.NewDispatcher(
		f.gate,
		f.sessions,
		f.sender,
		permissions.NewRoster([]int64{adminID}, []int64{moderatorID}),
		f.daily,
		client,
		bot.Options{
			Language:    "en",
			Channel:     "@test_channel",
			PaymentCard: "4441 1111 2222 3333",
			Location:    time.UTC,
		},
	)
	return f
}

func (f *fixture) command(from int64, name string, args ...string) {
	f.dispatcher.Handle(context.Background(), event.Event{
		UserID:  from,
		ChatID:  from,
		Kind:    event.KindCommand,
		Command: name,
		Args:    args,
		Time:    t0,
	})
}

func (f *fixture) lastTo(t *testing.T, chatID int64) notify.Message {
	t.Helper()
	msgs := f.sender.To(chatID)
	if len(msgs) == 0 {
		t.Fatalf("nothing sent to %d", chatID)
	}
	return msgs[len(msgs)-1]
}

func TestBannedUserIsDenied(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.gate.Ban(context.Background(), userID, 48*time.Hour, "spam", t0); err != nil {
		t.Fatalf("ban: %v", err)
	}
	f.sender.Reset()

	f.dispatcher.Handle(context.Background(), event.Event{UserID: userID, ChatID: userID, Kind: event.KindText, Text: "hi", Time: t0.Add(time.Hour)})

	if f.sessions.count() != 0 {
		t.Fatalf("denied event reached sessions")
	}
	reply := f.lastTo(t, userID)
	if !strings.Contains(reply.Text, "1d 23h") || !strings.Contains(reply.Text, "spam") {
		t.Fatalf("unexpected denial %q", reply.Text)
	}
}

func TestExpiredBanIsRemovedAndEventProceeds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.gate.Ban(context.Background(), userID, time.Hour, "spam", t0); err != nil {
		t.Fatalf("ban: %v", err)
	}

	f.dispatcher.Handle(context.Background(), event.Event{UserID: userID, ChatID: userID, Kind: event.KindText, Text: "hi", Time: t0.Add(2 * time.Hour)})

	if f.sessions.count() != 1 {
		t.Fatalf("event must reach sessions after expiry")
	}
	if len(f.gate.ViewBlacklist(t0.Add(2*time.Hour))) != 0 {
		t.Fatalf("expired entry must be removed")
	}
	if _, ok := f.store.entries[userID]; ok {
		t.Fatalf("expired entry must be removed from the store")
	}
}

func TestNonAdminCannotBan(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(userID, "ban", "200", "3", "spam")

	if d := f.gate.Admit(200, t0); !d.Allowed {
		t.Fatalf("ban must not be applied")
	}
	if reply := f.lastTo(t, userID); !strings.Contains(reply.Text, "only available to admins") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestModeratorIsNotAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(moderatorID, "blacklist")
	if reply := f.lastTo(t, moderatorID); !strings.Contains(reply.Text, "only available to admins") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}

	f.command(adminID, "buy_accept", "200")
	if reply := f.lastTo(t, adminID); !strings.Contains(reply.Text, "only available to moderators") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if len(f.sender.To(200)) != 0 {
		t.Fatalf("denied command must not notify the user")
	}
}

func TestAdminBan(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(adminID, "ban", "200", "3", "spam", "links")

	d := f.gate.Admit(200, t0)
	if d.Allowed || d.Reason != "spam links" {
		t.Fatalf("expected ban with reason, got %+v", d)
	}
	reply := f.lastTo(t, adminID)
	if !strings.Contains(reply.Text, "04.05.2024 12:00") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if notice := f.lastTo(t, 200); !strings.Contains(notice.Text, "3d 0h") {
		t.Fatalf("unexpected user notice %q", notice.Text)
	}

	records, err := f.audit.GetModerationRecords(context.Background(), 200, 10)
	if err != nil {
		t.Fatalf("get moderation records: %v", err)
	}
	if len(records) != 1 || records[0].Action != "ban" || records[0].ActorID != adminID {
		t.Fatalf("unexpected audit records %+v", records)
	}
}

func TestBanRejectsMalformedArguments(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{},
		{"200"},
		{"200", "3"},
		{"abc", "3", "spam"},
		{"200", "0", "spam"},
		{"200", "-1", "spam"},
		{"200", "x", "spam"},
		{"200", "3651", "spam"},
		{"200", "106752", "spam"},
		{"200", "213504", "spam"},
	}
	for _, args := range cases {
		f := newFixture(t)
		f.command(adminID, "ban", args...)
		if d := f.gate.Admit(200, t0); !d.Allowed {
			t.Fatalf("args %v must not ban", args)
		}
		reply := f.lastTo(t, adminID)
		if reply.Text != "❗Usage: /ban <user_id> <days> <reason>" {
			t.Fatalf("args %v: unexpected reply %q", args, reply.Text)
		}
	}
}

func TestBanAcceptsLongestAllowedDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(adminID, "ban", "200", "3650", "spam")
	if d := f.gate.Admit(200, t0.Add(3649*24*time.Hour)); d.Allowed {
		t.Fatalf("ban of 3650 days must still hold after 3649 days")
	}
}

func TestUnbanUnknownUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(adminID, "unban", "200")
	if reply := f.lastTo(t, adminID); reply.Text != "User 200 is not in the blacklist." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestUnbanRemovesEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(adminID, "ban", "200", "1", "spam")
	f.command(adminID, "unban", "200")
	if d := f.gate.Admit(200, t0); !d.Allowed {
		t.Fatalf("user must be unbanned")
	}
	if reply := f.lastTo(t, adminID); !strings.Contains(reply.Text, "removed from the blacklist") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}

	f.command(adminID, "history", "200")
	history := f.lastTo(t, adminID).Text
	if !strings.Contains(history, "ban") || !strings.Contains(history, "unban") {
		t.Fatalf("history must list both actions, got %q", history)
	}
}

func TestBlacklistView(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(adminID, "blacklist")
	if reply := f.lastTo(t, adminID); reply.Text != "The blacklist is empty." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	f.command(adminID, "ban", "200", "2", "spam")
	f.command(adminID, "blacklist")
	if reply := f.lastTo(t, adminID); !strings.Contains(reply.Text, "🆔 200 | ⏳ 2d 0h | 📝 spam") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestCountersCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gate.CheckAndConsume(userID, db.LimitPost, t0)
	f.gate.CheckAndConsume(userID, db.LimitPost, t0)

	f.command(adminID, "view_counters", "100")
	if reply := f.lastTo(t, adminID); !strings.Contains(reply.Text, "Listings: 2/5 (resets at 02.05.2024 12:00)") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}

	f.command(adminID, "list_users")
	if reply := f.lastTo(t, adminID); !strings.Contains(reply.Text, "listing counters: 100") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}

	f.command(adminID, "reset_counters", "100")
	if view := f.gate.ViewCounters(userID, t0); view.Post.Count != 0 {
		t.Fatalf("counters must be reset, got %d", view.Post.Count)
	}
	f.command(adminID, "reset_counters", "100")
	if reply := f.lastTo(t, adminID); reply.Text != "User 100 has no counters." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestCheckStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.daily.Increment(stats.FormSelling)
	f.daily.Increment(stats.FormSelling)
	f.daily.Increment(stats.FormBuying)

	f.command(adminID, "check_stats")
	reply := f.lastTo(t, adminID).Text
	for _, want := range []string{"01/05/2024", "Selling: 2", "Buying: 1", "Total: 3"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("stats %q lacks %q", reply, want)
		}
	}
}

func TestAnswerDeliversToUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(adminID, "ans", "200", "we", "are", "on", "it")
	if msg := f.lastTo(t, 200); msg.Text != "📬 Reply from the administration:\n\nwe are on it" {
		t.Fatalf("unexpected message %q", msg.Text)
	}
}

func TestPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(moderatorID, "payment", "200", "11", "100")
	if reply := f.lastTo(t, moderatorID); !strings.HasPrefix(reply.Text, "❗Usage: /payment") {
		t.Fatalf("unknown service must be rejected, got %q", reply.Text)
	}

	f.command(moderatorID, "payment", "200", "4", "250")
	msg := f.lastTo(t, 200)
	if msg.ParseMode != notify.ParseModeMarkdown {
		t.Fatalf("payment must use markdown, got %q", msg.ParseMode)
	}
	for _, want := range []string{"publication + advertising for 1 day", "`4441 1111 2222 3333`", "`250`", "№200"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("payment %q lacks %q", msg.Text, want)
		}
	}
}

func TestReviewCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(moderatorID, "an_accept", "200")
	if msg := f.lastTo(t, 200); !strings.Contains(msg.Text, "advertising has passed") || !strings.Contains(msg.Text, "@test_channel") {
		t.Fatalf("unexpected accept %q", msg.Text)
	}

	f.command(moderatorID, "sell_reject", "200", "bad", "photo")
	if msg := f.lastTo(t, 200); !strings.Contains(msg.Text, "selling did not pass") || !strings.Contains(msg.Text, "bad photo") {
		t.Fatalf("unexpected reject %q", msg.Text)
	}

	f.command(moderatorID, "sell_reject", "200")
	if reply := f.lastTo(t, moderatorID); reply.Text != "❗Usage: /sell_reject <user_id> <reason>" {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestSessionCommandsPassThrough(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.command(userID, "start")
	f.command(userID, "report")
	f.command(userID, "unknown")
	if f.sessions.count() != 3 {
		t.Fatalf("expected 3 events routed to sessions, got %d", f.sessions.count())
	}
}
