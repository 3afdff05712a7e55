package access

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/slavuta-ads/adsbot/internal/db"
)

// FileStore keeps the blacklist as one JSON document keyed by user id.
// A missing file reads as an empty blacklist.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (map[int64]db.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int64]db.BlacklistEntry{}, nil
		}
		return nil, errors.Wrap(err, "read blacklist file")
	}
	return decodeDocument(data)
}

// Save writes to a temp file in the same directory and renames it over the target.
func (s *FileStore) Save(_ context.Context, entries map[int64]db.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeDocument(entries)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create blacklist dir")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return errors.Wrap(err, "replace blacklist file")
	}
	return nil
}

func encodeDocument(entries map[int64]db.BlacklistEntry) ([]byte, error) {
	doc := make(map[string]db.BlacklistEntry, len(entries))
	for id, entry := range entries {
		entry.UserID = id
		doc[strconv.FormatInt(id, 10)] = entry
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "encode blacklist")
	}
	return data, nil
}

func decodeDocument(data []byte) (map[int64]db.BlacklistEntry, error) {
	entries := map[int64]db.BlacklistEntry{}
	if len(data) == 0 {
		return entries, nil
	}
	doc := map[string]db.BlacklistEntry{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode blacklist")
	}
	for key, entry := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "decode blacklist key %q", key)
		}
		entry.UserID = id
		entries[id] = entry
	}
	return entries, nil
}
