package access

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/db/sqlite"
)

func sampleEntries() map[int64]db.BlacklistEntry {
	return map[int64]db.BlacklistEntry{
		42: {EndDate: time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), Reason: "spam"},
		7:  {EndDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Reason: "scam links"},
	}
}

func assertEntries(t *testing.T, got map[int64]db.BlacklistEntry) {
	t.Helper()
	want := sampleEntries()
	if len(got) != len(want) {
		t.Fatalf("unexpected entries: %+v", got)
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok || g.UserID != id || g.Reason != w.Reason || !g.EndDate.Equal(w.EndDate) {
			t.Fatalf("entry %d mismatch: got %+v want %+v", id, g, w)
		}
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "blacklist.json"))
	entries, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("missing file must be empty: %+v", entries)
	}
}

func TestFileStoreRoundTripLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "blacklist.json"))
	if err := store.Save(ctx, sampleEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertEntries(t, entries)

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(files) != 1 || files[0].Name() != "blacklist.json" {
		t.Fatalf("unexpected files left behind: %v", files)
	}
}

func TestFileStoreReadsLegacyDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blacklist.json")
	legacy := `{"123": {"user_id": 123, "end_date": "2024-05-01T10:30:00.123456", "reason": "flood"}}`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}
	entries, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load legacy: %v", err)
	}
	entry, ok := entries[123]
	if !ok || entry.Reason != "flood" || entry.EndDate.Year() != 2024 {
		t.Fatalf("unexpected legacy entry: %+v", entries)
	}
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blacklist.json")
	if err := os.WriteFile(path, []byte(`{"abc": {}}`), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected error for non-numeric key")
	}
}

func TestKVStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := sqlite.NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	store := NewKVStore(client)
	entries, err := store.Load(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("empty kv must load empty: %v %+v", err, entries)
	}
	if err := store.Save(ctx, sampleEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertEntries(t, entries)
}

func TestBoltStoreRoundTripReplacesSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "blacklist.bolt"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Save(ctx, map[int64]db.BlacklistEntry{1: {EndDate: time.Now(), Reason: "gone"}}); err != nil {
		t.Fatalf("save initial: %v", err)
	}
	if err := store.Save(ctx, sampleEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertEntries(t, entries)
}
