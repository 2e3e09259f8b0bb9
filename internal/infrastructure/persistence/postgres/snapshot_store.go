package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
)

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS gallery_snapshots (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// Config параметры подключения к PostgreSQL
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresSnapshotStore реализует port.SnapshotStore для PostgreSQL
type PostgresSnapshotStore struct {
	db *sql.DB
}

// Open подключается к PostgreSQL и создает таблицу, если ее нет
func Open(ctx context.Context, cfg Config) (*PostgresSnapshotStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresSnapshotStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresSnapshotStore оборачивает уже открытое соединение
func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (r *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create gallery_snapshots table: %w", err)
	}
	return nil
}

// Load возвращает snapshot по ключу
func (r *PostgresSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM gallery_snapshots WHERE key = $1`, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	return value, nil
}

// Save перезаписывает snapshot (upsert)
func (r *PostgresSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO gallery_snapshots (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

func (r *PostgresSnapshotStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresSnapshotStore) Close() error {
	return r.db.Close()
}
