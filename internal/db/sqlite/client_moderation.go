package sqlite

import (
	"context"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/slavuta-ads/adsbot/internal/db"
)

func (s *sqliteClient) InsertModerationRecord(ctx context.Context, record *db.ModerationRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO moderation_log (actor_id, user_id, action, detail, created_at)
		VALUES (:actor_id, :user_id, :action, :detail, :created_at)
	`
	return errors.WithMessage(tool.Err(s.db.NamedExecContext(ctx, query, record)), "insert moderation record")
}

func (s *sqliteClient) GetModerationRecords(ctx context.Context, userID int64, limit int) ([]db.ModerationRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	var records []db.ModerationRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, actor_id, user_id, action, detail, created_at
		FROM moderation_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, errors.WithMessage(err, "select moderation records")
	}
	return records, nil
}
