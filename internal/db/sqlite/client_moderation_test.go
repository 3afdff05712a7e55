package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/slavuta-ads/adsbot/internal/db"
)

func TestModerationRecordsAreListedNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []*db.ModerationRecord{
		{ActorID: 1, UserID: 77, Action: "ban", Detail: "spam", CreatedAt: base},
		{ActorID: 1, UserID: 77, Action: "unban", CreatedAt: base.Add(time.Hour)},
		{ActorID: 2, UserID: 88, Action: "sell_accept", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, record := range records {
		if err := client.InsertModerationRecord(ctx, record); err != nil {
			t.Fatalf("insert record: %v", err)
		}
	}

	got, err := client.GetModerationRecords(ctx, 77, 10)
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Action != "unban" || got[1].Action != "ban" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].Detail != "spam" || got[1].ActorID != 1 {
		t.Fatalf("unexpected record payload: %+v", got[1])
	}

	limited, err := client.GetModerationRecords(ctx, 77, 1)
	if err != nil {
		t.Fatalf("get limited records: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}
