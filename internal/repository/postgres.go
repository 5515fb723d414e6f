package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/ledgerbot/internal/domain"
)

// PostgresBackend stores the snapshot as a single JSONB row. Every commit
// writes a fresh revision and only succeeds against the revision it read.
type PostgresBackend struct {
	db *pgxpool.Pool
}

func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Load(ctx context.Context) (*domain.Snapshot, error) {
	var (
		revision string
		data     []byte
	)
	err := b.db.QueryRow(ctx, `SELECT revision, data FROM snapshots WHERE id = 1`).Scan(&revision, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("select snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &domain.CorruptError{Revision: revision, Err: err}
	}
	snap.Revision = revision
	return &snap, nil
}

func (b *PostgresBackend) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	next := uuid.NewString()

	var query string
	var args []any
	if snap.Revision == "" {
		query = `INSERT INTO snapshots (id, revision, data) VALUES (1, $1, $2::jsonb) ON CONFLICT (id) DO NOTHING`
		args = []any{next, string(data)}
	} else {
		query = `UPDATE snapshots SET revision = $1, data = $2::jsonb, updated_at = now() WHERE id = 1 AND revision = $3`
		args = []any{next, string(data), snap.Revision}
	}

	tag, err := b.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("write snapshot: %w", domain.ErrRaceLost)
	}

	snap.Revision = next
	return nil
}
