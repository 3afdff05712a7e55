package access

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/slavuta-ads/adsbot/internal/db"
)

var blacklistBucket = []byte("blacklist")

// BoltStore keeps one record per user in a bbolt bucket; Save rewrites the
// bucket inside a single transaction.
type BoltStore struct {
	db *bbolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	boltDB, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt")
	}
	err = boltDB.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blacklistBucket)
		return err
	})
	if err != nil {
		_ = boltDB.Close()
		return nil, errors.Wrap(err, "create blacklist bucket")
	}
	return &BoltStore{db: boltDB}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(_ context.Context) (map[int64]db.BlacklistEntry, error) {
	entries := map[int64]db.BlacklistEntry{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(blacklistBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			id, err := strconv.ParseInt(string(k), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "decode key %q", k)
			}
			var entry db.BlacklistEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return errors.Wrapf(err, "decode entry %d", id)
			}
			entry.UserID = id
			entries[id] = entry
			return nil
		})
	})
	if err != nil {
		return nil, errors.WithMessage(err, "load blacklist")
	}
	return entries, nil
}

func (s *BoltStore) Save(_ context.Context, entries map[int64]db.BlacklistEntry) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(blacklistBucket) != nil {
			if err := tx.DeleteBucket(blacklistBucket); err != nil {
				return err
			}
		}
		bucket, err := tx.CreateBucket(blacklistBucket)
		if err != nil {
			return err
		}
		for id, entry := range entries {
			entry.UserID = id
			value, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(strconv.FormatInt(id, 10)), value); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.WithMessage(err, "save blacklist")
}
