package db

import (
	"encoding/json"
	"fmt"
	"time"
)

type LimitKind string

const (
	LimitPost   LimitKind = "post"
	LimitReport LimitKind = "report"
)

// Ceiling is the number of consumptions allowed per rolling window.
func (k LimitKind) Ceiling() int {
	switch k {
	case LimitPost:
		return 5
	case LimitReport:
		return 10
	default:
		return 0
	}
}

type (
	BlacklistEntry struct {
		UserID  int64     `json:"user_id"`
		EndDate time.Time `json:"end_date"`
		Reason  string    `json:"reason"`
	}

	RateCounter struct {
		UserID    int64
		Kind      LimitKind
		Count     int
		ResetTime time.Time
	}

	ModerationRecord struct {
		ID        int64     `db:"id"`
		ActorID   int64     `db:"actor_id"`
		UserID    int64     `db:"user_id"`
		Action    string    `db:"action"`
		Detail    string    `db:"detail"`
		CreatedAt time.Time `db:"created_at"`
	}
)

// naiveISOLayout matches end dates written without a zone offset.
const naiveISOLayout = "2006-01-02T15:04:05.999999999"

func (e BlacklistEntry) Expired(now time.Time) bool {
	return !e.EndDate.After(now)
}

func (e BlacklistEntry) Remaining(now time.Time) time.Duration {
	if e.Expired(now) {
		return 0
	}
	return e.EndDate.Sub(now)
}

func (e *BlacklistEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserID  int64  `json:"user_id"`
		EndDate string `json:"end_date"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	end, err := time.Parse(time.RFC3339Nano, raw.EndDate)
	if err != nil {
		end, err = time.ParseInLocation(naiveISOLayout, raw.EndDate, time.Local)
		if err != nil {
			return fmt.Errorf("parse end_date %q: %w", raw.EndDate, err)
		}
	}
	e.UserID = raw.UserID
	e.EndDate = end
	e.Reason = raw.Reason
	return nil
}
