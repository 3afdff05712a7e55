package event

import (
	"strings"
	"time"
)

type Kind string

const (
	KindText    Kind = "text"
	KindPhoto   Kind = "photo"
	KindForm    Kind = "form"
	KindCommand Kind = "command"
)

type Profile struct {
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Event is one inbound user action, already stripped of transport details.
type Event struct {
	UserID      int64
	ChatID      int64
	Profile     Profile
	Kind        Kind
	Text        string
	PhotoFileID string
	Payload     string
	Command     string
	Args        []string
	Time        time.Time
}
