package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// ProfileStore persists supplier profiles and their signatures across runs.
// Writes are serialized by a single-writer lock so a training write never
// interleaves with another; readers work on the snapshots returned here and
// are unaffected by later writes.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *entity.SupplierProfile) error
	GetByKey(ctx context.Context, key string) (*entity.SupplierProfile, error)
	ListProfiles(ctx context.Context) ([]entity.SupplierProfile, error)
	Exists(ctx context.Context, key string) (bool, error)
	AddSignature(ctx context.Context, key string, sig entity.Signature) error
	AddPatterns(ctx context.Context, key string, patterns []string) error
}

type profileStore struct {
	db     *sql.DB
	logger *slog.Logger

	writeMu sync.Mutex
}

func NewProfileStore(db *sql.DB, logger *slog.Logger) ProfileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileStore{db: db, logger: logger}
}

func (s *profileStore) CreateProfile(ctx context.Context, p *entity.SupplierProfile) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin create profile")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO supplier_profile (key, template_key, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.Key, p.TemplateKey, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		s.logger.Error("failed to create profile", "key", p.Key, "error", err)
		return common.WrapError(err, "insert profile")
	}
	if err := insertPatterns(ctx, tx, p.Key, 0, p.Patterns); err != nil {
		return err
	}
	for _, sig := range p.Signatures {
		if err := insertSignature(ctx, tx, p.Key, sig); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *profileStore) GetByKey(ctx context.Context, key string) (*entity.SupplierProfile, error) {
	p := &entity.SupplierProfile{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT template_key, created_at, updated_at FROM supplier_profile WHERE key = ?`, key,
	).Scan(&p.TemplateKey, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("PROFILE_ERROR", fmt.Sprintf("unknown supplier %q", key), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "query profile")
	}
	if err := s.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profileStore) ListProfiles(ctx context.Context) ([]entity.SupplierProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, template_key, created_at, updated_at FROM supplier_profile ORDER BY key`)
	if err != nil {
		return nil, common.WrapError(err, "query profiles")
	}
	defer func() { _ = rows.Close() }()

	var out []entity.SupplierProfile
	for rows.Next() {
		var p entity.SupplierProfile
		if err := rows.Scan(&p.Key, &p.TemplateKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, common.WrapError(err, "scan profile")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate profiles")
	}
	for i := range out {
		if err := s.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *profileStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM supplier_profile WHERE key = ?`, key,
	).Scan(&n); err != nil {
		return false, common.WrapError(err, "check profile existence")
	}
	return n > 0, nil
}

func (s *profileStore) AddSignature(ctx context.Context, key string, sig entity.Signature) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin add signature")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertSignature(ctx, tx, key, sig); err != nil {
		return err
	}
	if err := touch(ctx, tx, key); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit add signature")
	}
	s.logger.Info("signature stored", "supplier", key)
	return nil
}

func (s *profileStore) AddPatterns(ctx context.Context, key string, patterns []string) error {
	if len(patterns) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin add patterns")
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position)+1, 0) FROM identification_pattern WHERE supplier_key = ?`, key,
	).Scan(&next); err != nil {
		return common.WrapError(err, "next pattern position")
	}
	if err := insertPatterns(ctx, tx, key, next, patterns); err != nil {
		return err
	}
	if err := touch(ctx, tx, key); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *profileStore) loadChildren(ctx context.Context, p *entity.SupplierProfile) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern FROM identification_pattern WHERE supplier_key = ? ORDER BY position`, p.Key)
	if err != nil {
		return common.WrapError(err, "query patterns")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var pat string
		if err := rows.Scan(&pat); err != nil {
			return common.WrapError(err, "scan pattern")
		}
		p.Patterns = append(p.Patterns, pat)
	}
	if err := rows.Err(); err != nil {
		return common.WrapError(err, "iterate patterns")
	}

	sigRows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, excerpt, added_at FROM signature WHERE supplier_key = ? ORDER BY id`, p.Key)
	if err != nil {
		return common.WrapError(err, "query signatures")
	}
	defer func() { _ = sigRows.Close() }()
	for sigRows.Next() {
		var sig entity.Signature
		if err := sigRows.Scan(&sig.Fingerprint, &sig.Excerpt, &sig.AddedAt); err != nil {
			return common.WrapError(err, "scan signature")
		}
		p.Signatures = append(p.Signatures, sig)
	}
	return sigRows.Err()
}

func insertPatterns(ctx context.Context, tx *sql.Tx, key string, from int, patterns []string) error {
	for i, pat := range patterns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identification_pattern (supplier_key, position, pattern) VALUES (?, ?, ?)`,
			key, from+i, pat,
		); err != nil {
			return common.WrapError(err, "insert pattern")
		}
	}
	return nil
}

func insertSignature(ctx context.Context, tx *sql.Tx, key string, sig entity.Signature) error {
	added := sig.AddedAt
	if added.IsZero() {
		added = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO signature (supplier_key, fingerprint, excerpt, added_at) VALUES (?, ?, ?, ?)`,
		key, sig.Fingerprint, sig.Excerpt, added,
	); err != nil {
		return common.WrapError(err, "insert signature")
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx, key string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE supplier_profile SET updated_at = ? WHERE key = ?`, time.Now().UTC(), key)
	if err != nil {
		return common.WrapError(err, "touch profile")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "touch profile")
	}
	if n == 0 {
		return common.NewAppError("PROFILE_ERROR", fmt.Sprintf("unknown supplier %q", key), common.ErrNotFound)
	}
	return nil
}
