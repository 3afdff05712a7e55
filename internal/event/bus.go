package event

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/infra"
)

const DefaultQueueSize = 256

var ErrBusStopped = errors.New("event bus stopped")

type Handler func(ctx context.Context, ev Event)

// Bus fans events out to a fixed set of shard workers keyed by user id, so
// events of one user are handled one at a time in arrival order while
// different users proceed in parallel.
type Bus struct {
	handler   Handler
	queueSize int
	shards    []chan Event

	runMutex  sync.RWMutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewBus(shards, queueSize int, handler Handler) *Bus {
	if shards < 1 {
		shards = 1
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	b := &Bus{
		handler:   handler,
		queueSize: queueSize,
		shards:    make([]chan Event, shards),
	}
	return b
}

func (b *Bus) getLogEntry() *log.Entry {
	return log.WithField("object", "EventBus")
}

func (b *Bus) Start(ctx context.Context) error {
	b.runMutex.Lock()
	defer b.runMutex.Unlock()
	if b.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.runCancel = cancel
	for i := range b.shards {
		queue := make(chan Event, b.queueSize)
		b.shards[i] = queue
		b.workersWg.Add(1)
		go func(shard int, queue chan Event) {
			defer b.workersWg.Done()
			b.work(runCtx, shard, queue)
		}(i, queue)
	}
	b.started = true
	return nil
}

func (b *Bus) Stop(ctx context.Context) error {
	b.runMutex.Lock()
	if !b.started {
		b.runMutex.Unlock()
		return nil
	}
	b.started = false
	cancel := b.runCancel
	b.runCancel = nil
	b.runMutex.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		b.workersWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue blocks until the event is queued on its shard, ctx is done or the bus stops.
func (b *Bus) Enqueue(ctx context.Context, ev Event) error {
	b.runMutex.RLock()
	if !b.started {
		b.runMutex.RUnlock()
		return ErrBusStopped
	}
	queue := b.shards[b.shardOf(ev.UserID)]
	b.runMutex.RUnlock()

	select {
	case queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) shardOf(userID int64) int {
	return int(uint64(userID) % uint64(len(b.shards)))
}

func (b *Bus) work(ctx context.Context, shard int, queue chan Event) {
	entry := b.getLogEntry().WithField("shard", shard)
	for {
		select {
		case <-ctx.Done():
			if pending := len(queue); pending > 0 {
				entry.WithField("pending", pending).Warn("dropping queued events on shutdown")
			}
			return
		case ev := <-queue:
			err := infra.SafeRun("dispatch", func() error {
				b.handler(ctx, ev)
				return nil
			})
			if err != nil {
				entry.WithFields(log.Fields{
					"user_id": ev.UserID,
					"kind":    ev.Kind,
					"error":   err.Error(),
				}).Error("event handler panicked")
			}
		}
	}
}
