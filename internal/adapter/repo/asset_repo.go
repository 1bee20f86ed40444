package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vodworks/internal/domain"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

// Create inserts a new asset record in its initial state.
func (r *AssetRepositoryPG) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
INSERT INTO assets (id, title, source_key, status, file_size, processing_log)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.Title,
		asset.SourceKey,
		asset.Status,
		asset.FileSize,
		asset.ProcessingLog,
	)
	return err
}

// GetByID fetches an asset by its identifier.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	query := `
SELECT id, title, source_key, status, duration, resolution, aspect_ratio, frame_rate, file_size, processing_log, created_at, updated_at
FROM assets
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, assetID)
	var asset domain.Asset
	if err := row.Scan(
		&asset.ID,
		&asset.Title,
		&asset.SourceKey,
		&asset.Status,
		&asset.Duration,
		&asset.Resolution,
		&asset.AspectRatio,
		&asset.FrameRate,
		&asset.FileSize,
		&asset.ProcessingLog,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// ListQueued returns identifiers of assets still waiting for processing,
// oldest first.
func (r *AssetRepositoryPG) ListQueued(ctx context.Context, limit int) ([]string, error) {
	query := `
SELECT id
FROM assets
WHERE status = 'queued'
ORDER BY created_at ASC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateStatus persists a status transition immediately so concurrent
// readers observe it.
func (r *AssetRepositoryPG) UpdateStatus(ctx context.Context, assetID string, status domain.AssetStatus) error {
	query := `
UPDATE assets
SET status = $2,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, assetID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateMetadata persists probed technical metadata onto the asset.
func (r *AssetRepositoryPG) UpdateMetadata(ctx context.Context, assetID string, meta domain.ProbeMetadata) error {
	query := `
UPDATE assets
SET duration = $2,
    resolution = $3,
    aspect_ratio = $4,
    frame_rate = $5,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, assetID, meta.Duration, meta.Resolution, meta.AspectRatio, meta.FrameRate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendLog appends a diagnostic line to the asset's processing log. The log
// is append-only and retained across retries.
func (r *AssetRepositoryPG) AppendLog(ctx context.Context, assetID string, entry string) error {
	query := `
UPDATE assets
SET processing_log = processing_log || $2 || E'\n',
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, assetID, entry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
