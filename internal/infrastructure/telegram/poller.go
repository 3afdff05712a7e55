package telegram

import (
	"context"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/infra"
)

const retryDelay = 3 * time.Second

type Sink interface {
	Enqueue(ctx context.Context, ev event.Event) error
}

// updateSource is the part of *api.BotAPI the poller needs.
type updateSource interface {
	GetUpdates(config api.UpdateConfig) ([]api.Update, error)
	StopReceivingUpdates()
}

// Poller long-polls the Bot API and feeds converted updates into the sink.
// A panicking poll loop is restarted after retryDelay until Stop.
type Poller struct {
	source     updateSource
	sink       Sink
	timeout    int
	retryDelay time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(bot *api.BotAPI, sink Sink) *Poller {
	return newPoller(bot, sink)
}

func newPoller(source updateSource, sink Sink) *Poller {
	return &Poller{source: source, sink: sink, timeout: 60, retryDelay: retryDelay}
}

func (p *Poller) getLogEntry() *log.Entry {
	return log.WithField("object", "Poller")
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.supervise(runCtx, p.done)
	return nil
}

// supervise owns done: it is closed only once no poll loop is running.
func (p *Poller) supervise(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		err := infra.SafeRun("poll_updates", func() error {
			p.run(ctx)
			return nil
		})
		if err == nil || ctx.Err() != nil {
			return
		}
		p.getLogEntry().WithField("error", err.Error()).Error("poll loop crashed, restarting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryDelay):
		}
	}
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	p.source.StopReceivingUpdates()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context) {
	entry := p.getLogEntry()
	config := api.NewUpdate(0)
	config.Timeout = p.timeout

	for ctx.Err() == nil {
		updates, err := p.source.GetUpdates(config)
		if err != nil {
			entry.WithField("error", err.Error()).Error("cant get updates")
			select {
			case <-ctx.Done():
			case <-time.After(p.retryDelay):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID < config.Offset {
				continue
			}
			config.Offset = u.UpdateID + 1
			ev, ok := ToEvent(u, time.Now())
			if !ok {
				entry.WithField("update_id", u.UpdateID).Trace("update skipped")
				continue
			}
			if err := p.sink.Enqueue(ctx, ev); err != nil {
				entry.WithFields(log.Fields{
					"user_id": ev.UserID,
					"error":   err.Error(),
				}).Warn("cant enqueue event")
				return
			}
		}
	}
}
