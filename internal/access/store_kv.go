package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/slavuta-ads/adsbot/internal/db"
)

const blacklistKVKey = "blacklist"

type kvStore interface {
	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error
}

// KVStore keeps the same JSON document as FileStore in a single key-value row.
type KVStore struct {
	kv kvStore
}

func NewKVStore(kv kvStore) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Load(ctx context.Context) (map[int64]db.BlacklistEntry, error) {
	value, err := s.kv.GetKV(ctx, blacklistKVKey)
	if err != nil {
		return nil, errors.WithMessage(err, "get blacklist")
	}
	return decodeDocument([]byte(value))
}

func (s *KVStore) Save(ctx context.Context, entries map[int64]db.BlacklistEntry) error {
	data, err := encodeDocument(entries)
	if err != nil {
		return err
	}
	return errors.WithMessage(s.kv.SetKV(ctx, blacklistKVKey, string(data)), "set blacklist")
}
