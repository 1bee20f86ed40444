package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"vodworks/internal/domain"
)

// ThumbnailRepositoryPG implements domain.ThumbnailRepository using PostgreSQL.
type ThumbnailRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewThumbnailRepository constructs a new thumbnail repository instance.
func NewThumbnailRepository(pool *pgxpool.Pool) *ThumbnailRepositoryPG {
	return &ThumbnailRepositoryPG{pool: pool}
}

// Create inserts a thumbnail record for a successfully extracted frame.
func (r *ThumbnailRepositoryPG) Create(ctx context.Context, thumbnail *domain.Thumbnail) error {
	query := `
INSERT INTO thumbnails (id, asset_id, storage_key, offset_seconds, size, is_default)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		thumbnail.ID,
		thumbnail.AssetID,
		thumbnail.StorageKey,
		thumbnail.OffsetSeconds,
		thumbnail.Size,
		thumbnail.IsDefault,
	)
	return err
}

// ListByAssetID returns all thumbnails belonging to the asset, oldest first.
func (r *ThumbnailRepositoryPG) ListByAssetID(ctx context.Context, assetID string) ([]domain.Thumbnail, error) {
	query := `
SELECT id, asset_id, storage_key, offset_seconds, size, is_default, created_at
FROM thumbnails
WHERE asset_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var thumbnails []domain.Thumbnail
	for rows.Next() {
		var thumbnail domain.Thumbnail
		if err := rows.Scan(
			&thumbnail.ID,
			&thumbnail.AssetID,
			&thumbnail.StorageKey,
			&thumbnail.OffsetSeconds,
			&thumbnail.Size,
			&thumbnail.IsDefault,
			&thumbnail.CreatedAt,
		); err != nil {
			return nil, err
		}
		thumbnails = append(thumbnails, thumbnail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return thumbnails, nil
}
