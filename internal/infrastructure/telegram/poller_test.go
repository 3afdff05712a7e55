package telegram

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/slavuta-ads/adsbot/internal/event"
)

// flakySource panics on the first call, serves one update, then long-polls until stopped.
type flakySource struct {
	first   api.Update
	calls   atomic.Int32
	polling atomic.Int32
	stopped chan struct{}
	once    sync.Once
}

func (s *flakySource) GetUpdates(api.UpdateConfig) ([]api.Update, error) {
	s.polling.Add(1)
	defer s.polling.Add(-1)
	switch s.calls.Add(1) {
	case 1:
		panic("decode failure")
	case 2:
		return []api.Update{s.first}, nil
	}
	<-s.stopped
	time.Sleep(20 * time.Millisecond)
	return nil, errors.New("stopped")
}

func (s *flakySource) StopReceivingUpdates() {
	s.once.Do(func() { close(s.stopped) })
}

type chanSink chan event.Event

func (c chanSink) Enqueue(_ context.Context, ev event.Event) error {
	c <- ev
	return nil
}

func TestPollerRestartsAfterPanicAndStopWaitsForLoop(t *testing.T) {
	t.Parallel()

	source := &flakySource{
		first:   update(t, privateMessage(time.Now().Unix(), `, "text": "hello"`)),
		stopped: make(chan struct{}),
	}
	sink := make(chanSink, 1)
	p := newPoller(source, sink)
	p.retryDelay = time.Millisecond

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start poller: %v", err)
	}
	select {
	case ev := <-sink:
		if ev.Text != "hello" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poll loop was not restarted after the panic")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop poller: %v", err)
	}
	if n := source.polling.Load(); n != 0 {
		t.Fatalf("stop returned with %d poll calls still running", n)
	}
}
