package db

import "context"

type Client interface {
	Close() error
	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error
	InsertModerationRecord(ctx context.Context, record *ModerationRecord) error
	GetModerationRecords(ctx context.Context, userID int64, limit int) ([]ModerationRecord, error)
}
