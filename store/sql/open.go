package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-connect-contacts/core"
	"github.com/goliatone/go-connect-contacts/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// Config satisfies the go-persistence-bun client configuration.
type Config struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.Driver
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	return migrations.SourceLabel
}

// Open connects to the history database, applies the embedded migrations for
// its dialect and returns a ready RunStore. The returned close function
// releases the connection.
func Open(ctx context.Context, cfg Config) (*RunStore, func() error, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "sqlite" {
		driver = core.HistoryDriverSQLite
	}
	cfg.Driver = driver
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, core.ConfigError("sqlstore: history dsn is required", nil)
	}

	dialect, err := migrations.DialectForDriver(driver)
	if err != nil {
		return nil, nil, core.WrapConfigError(err, "sqlstore: resolve dialect", map[string]any{"driver": driver})
	}
	var bunDialect schema.Dialect
	switch dialect {
	case migrations.DialectSQLite:
		bunDialect = sqlitedialect.New()
	default:
		driver = core.HistoryDriverPostgres
		bunDialect = pgdialect.New()
	}
	cfg.Driver = driver

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, nil, core.StorageError(err, "sqlstore: open database", map[string]any{"driver": driver})
	}
	if dialect == migrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, bunDialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, core.StorageError(err, "sqlstore: new persistence client", map[string]any{"driver": driver})
	}
	closeFn := func() error { return client.Close() }

	if err := migrations.Register(dialect, func(fsys fs.FS) { client.RegisterSQLMigrations(fsys) }); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = closeFn()
		return nil, nil, core.StorageError(err, "sqlstore: migrate", nil)
	}

	db, err := resolveBunDB(client)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	store, err := NewRunStore(db)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

// NewRunStoreFromPersistence builds a RunStore over an already migrated
// persistence client or bun db.
func NewRunStoreFromPersistence(client any) (*RunStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewRunStore(db)
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, core.ConfigError("sqlstore: persistence client is required", nil)
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, core.ConfigError("sqlstore: persistence client returned nil bun db", nil)
		}
		return db, nil
	default:
		return nil, core.ConfigError(fmt.Sprintf("sqlstore: unsupported persistence client type %T", candidate), nil)
	}
}
