package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/haakon-okland/invoice-core/internal/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS supplier_profile (
    key          TEXT PRIMARY KEY,
    template_key TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS identification_pattern (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    supplier_key TEXT NOT NULL REFERENCES supplier_profile(key) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    pattern      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS signature (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    supplier_key TEXT NOT NULL REFERENCES supplier_profile(key) ON DELETE CASCADE,
    fingerprint  TEXT NOT NULL,
    excerpt      TEXT NOT NULL,
    added_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pattern_supplier ON identification_pattern(supplier_key, position);
CREATE INDEX IF NOT EXISTS idx_signature_supplier ON signature(supplier_key);
`

// Open opens (or creates) the profile database and applies the schema.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening profile store", "path", cfg.Path)

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping profile store: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("profile store ready")
	return db, nil
}

// Close closes the database connection gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close profile store", "error", err)
		return
	}
	logger.Info("profile store closed")
}
