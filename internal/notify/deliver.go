package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/slavuta-ads/adsbot/internal/errors"
	"github.com/slavuta-ads/adsbot/internal/observability"
)

const fanOutConcurrency = 4

// Deliver makes exactly one send attempt; a failure is logged and returned wrapped as ErrDelivery.
func Deliver(ctx context.Context, sender Sender, msg Message) error {
	err := sender.Send(ctx, msg)
	observability.RecordDelivery(err == nil)
	if err != nil {
		log.WithFields(log.Fields{
			"object":  "Notify",
			"method":  "Deliver",
			"chat_id": msg.ChatID,
		}).WithField("error", err.Error()).Error("cant deliver message")
		return fmt.Errorf("%w: chat %d: %v", apperrors.ErrDelivery, msg.ChatID, err)
	}
	return nil
}

// FanOut runs deliver for every recipient with bounded parallelism and
// returns the recipients whose delivery failed. Order within one
// recipient is whatever deliver does sequentially.
func FanOut(ctx context.Context, recipients []int64, deliver func(ctx context.Context, recipient int64) error) []int64 {
	var (
		mu     sync.Mutex
		failed []int64
		g      errgroup.Group
	)
	g.SetLimit(fanOutConcurrency)
	for _, recipient := range recipients {
		g.Go(func() error {
			if err := deliver(ctx, recipient); err != nil {
				mu.Lock()
				failed = append(failed, recipient)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	return failed
}

// Broadcast sends the same message body to every recipient.
func Broadcast(ctx context.Context, sender Sender, recipients []int64, msg Message) []int64 {
	return FanOut(ctx, recipients, func(ctx context.Context, recipient int64) error {
		m := msg
		m.ChatID = recipient
		return Deliver(ctx, sender, m)
	})
}
