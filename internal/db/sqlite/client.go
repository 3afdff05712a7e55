package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/slavuta-ads/adsbot/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

func NewSQLiteClient(ctx context.Context, dir, file string) (*sqliteClient, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}
	dbx, err := sqlx.ConnectContext(ctx, "sqlite", filepath.Join(dir, file)+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	dbx.SetMaxOpenConns(8)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, errors.Wrap(err, "migrate up")
	}
	if n > 0 {
		log.WithField("object", "SQLiteClient").Infof("applied %d migrations", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}
