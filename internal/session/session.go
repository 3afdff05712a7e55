package session

import (
	"html"
	"time"

	"github.com/slavuta-ads/adsbot/internal/listing"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingReport
	StateAwaitingPhotos
)

func (s State) String() string {
	switch s {
	case StateAwaitingReport:
		return "awaiting_report"
	case StateAwaitingPhotos:
		return "awaiting_photos"
	default:
		return "idle"
	}
}

const MaxPhotos = 10

// Session is the conversational state of one user. Each non-idle state owns
// its own payload; entering a state always builds a fresh one. Idle sessions
// are not stored.
type Session struct {
	State   State
	report  *reportDraft
	listing *listingDraft
}

type reportDraft struct {
	text string
}

type listingDraft struct {
	id         string
	form       listing.Form
	moderation string
	photos     []string
	// advice delivers the screening hint computed in the background, if any.
	advice <-chan string
}

// moderationText appends the screening hint when it arrives within wait.
func (d *listingDraft) moderationText(wait time.Duration) (string, bool) {
	if d.advice == nil {
		return d.moderation, true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case hint := <-d.advice:
		if hint == "" {
			return d.moderation, true
		}
		return d.moderation + "\n" + html.EscapeString(hint), true
	case <-timer.C:
		return d.moderation, false
	}
}

func awaitingReport() *Session {
	return &Session{State: StateAwaitingReport, report: &reportDraft{}}
}

func awaitingPhotos(draft *listingDraft) *Session {
	return &Session{State: StateAwaitingPhotos, listing: draft}
}
