package access

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slavuta-ads/adsbot/internal/db"
)

func TestCheckAndConsumeCeilingAndRoll(t *testing.T) {
	t.Parallel()

	gate, _, _ := newTestGate()
	for i := 0; i < 5; i++ {
		if !gate.CheckAndConsume(1, db.LimitPost, t0.Add(time.Duration(i)*time.Minute)) {
			t.Fatalf("post %d must be allowed", i+1)
		}
	}
	if gate.CheckAndConsume(1, db.LimitPost, t0.Add(time.Hour)) {
		t.Fatalf("sixth post must be refused")
	}
	view := gate.ViewCounters(1, t0.Add(time.Hour))
	if view.Post.Count != 5 || !view.Post.ResetTime.Equal(t0) {
		t.Fatalf("refusal must not mutate the counter: %+v", view.Post)
	}

	if gate.CheckAndConsume(1, db.LimitPost, t0.Add(RateWindow)) {
		t.Fatalf("window is exclusive at exactly 24h")
	}
	if !gate.CheckAndConsume(1, db.LimitPost, t0.Add(RateWindow+time.Second)) {
		t.Fatalf("counter must roll after 24h")
	}
	view = gate.ViewCounters(1, t0.Add(RateWindow+time.Second))
	if view.Post.Count != 1 || !view.Post.ResetTime.Equal(t0.Add(RateWindow+time.Second)) {
		t.Fatalf("unexpected rolled counter: %+v", view.Post)
	}
}

func TestKindsAreIndependent(t *testing.T) {
	t.Parallel()

	gate, _, _ := newTestGate()
	for i := 0; i < 10; i++ {
		if !gate.CheckAndConsume(2, db.LimitReport, t0) {
			t.Fatalf("report %d must be allowed", i+1)
		}
	}
	if gate.CheckAndConsume(2, db.LimitReport, t0) {
		t.Fatalf("eleventh report must be refused")
	}
	if !gate.CheckAndConsume(2, db.LimitPost, t0) {
		t.Fatalf("post quota must be untouched by reports")
	}
	if gate.CheckAndConsume(2, db.LimitKind("unknown"), t0) {
		t.Fatalf("unknown kind must be refused")
	}
}

func TestResetAllAndResetCounters(t *testing.T) {
	t.Parallel()

	gate, _, _ := newTestGate()
	for i := 0; i < 5; i++ {
		gate.CheckAndConsume(1, db.LimitPost, t0)
	}
	gate.CheckAndConsume(2, db.LimitReport, t0)

	midnight := t0.Add(12 * time.Hour)
	if n := gate.ResetAll(midnight); n != 2 {
		t.Fatalf("expected 2 counters reset, got %d", n)
	}
	view := gate.ViewCounters(1, midnight)
	if view.Post.Count != 0 || !view.Post.ResetTime.Equal(midnight) {
		t.Fatalf("unexpected counter after midnight reset: %+v", view.Post)
	}
	if !gate.CheckAndConsume(1, db.LimitPost, midnight) {
		t.Fatalf("post must be allowed after midnight reset")
	}

	post, report := gate.CounterUsers()
	if len(post) != 1 || post[0] != 1 || len(report) != 1 || report[0] != 2 {
		t.Fatalf("unexpected users: post=%v report=%v", post, report)
	}
	if !gate.ResetCounters(1) {
		t.Fatalf("reset of existing counters must report found")
	}
	if gate.ResetCounters(1) {
		t.Fatalf("second reset must report nothing found")
	}
	post, _ = gate.CounterUsers()
	if len(post) != 0 {
		t.Fatalf("counter not removed: %v", post)
	}
}

func TestViewCountersDoesNotCreate(t *testing.T) {
	t.Parallel()

	gate, _, _ := newTestGate()
	view := gate.ViewCounters(5, t0)
	if view.Post.Count != 0 || view.Report.Count != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
	post, report := gate.CounterUsers()
	if len(post) != 0 || len(report) != 0 {
		t.Fatalf("view must not create counters")
	}
}

func TestCheckAndConsumeIsAtomic(t *testing.T) {
	t.Parallel()

	gate, _, _ := newTestGate()
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.CheckAndConsume(9, db.LimitPost, t0) {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if allowed.Load() != 5 {
		t.Fatalf("expected exactly 5 admissions, got %d", allowed.Load())
	}
}
