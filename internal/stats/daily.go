package stats

import (
	"sync"
)

// FormType names a listing category; the values match the web form payload.
type FormType string

const (
	FormBuying       FormType = "buying"
	FormSelling      FormType = "selling"
	FormAnnouncement FormType = "announcement"
	FormAdvertising  FormType = "advertising"
)

var FormTypes = []FormType{FormBuying, FormSelling, FormAnnouncement, FormAdvertising}

func (f FormType) Valid() bool {
	switch f {
	case FormBuying, FormSelling, FormAnnouncement, FormAdvertising:
		return true
	}
	return false
}

type Snapshot struct {
	Buying       int
	Selling      int
	Announcement int
	Advertising  int
}

func (s Snapshot) Total() int {
	return s.Buying + s.Selling + s.Announcement + s.Advertising
}

// Daily counts accepted submissions per form type since the last reset.
type Daily struct {
	mu     sync.Mutex
	counts Snapshot
}

func NewDaily() *Daily {
	return &Daily{}
}

func (d *Daily) Increment(f FormType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch f {
	case FormBuying:
		d.counts.Buying++
	case FormSelling:
		d.counts.Selling++
	case FormAnnouncement:
		d.counts.Announcement++
	case FormAdvertising:
		d.counts.Advertising++
	default:
		return false
	}
	return true
}

func (d *Daily) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

// Reset zeroes the counters and returns the values they held.
func (d *Daily) Reset() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.counts
	d.counts = Snapshot{}
	return prev
}
