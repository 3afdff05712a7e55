package notify

import (
	"context"
	"errors"
	"sync"
)

// Recorder is an in-memory Sender that records every message and fails for selected chats.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	failFor  map[int64]bool
}

func NewRecorder(failFor ...int64) *Recorder {
	r := &Recorder{failFor: map[int64]bool{}}
	for _, id := range failFor {
		r.failFor[id] = true
	}
	return r
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[msg.ChatID] {
		return errors.New("chat unreachable")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

func (r *Recorder) To(chatID int64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			res = append(res, m)
		}
	}
	return res
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
