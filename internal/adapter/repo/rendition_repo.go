package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"vodworks/internal/domain"
)

// RenditionRepositoryPG implements domain.RenditionRepository using PostgreSQL.
type RenditionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRenditionRepository constructs a new rendition repository instance.
func NewRenditionRepository(pool *pgxpool.Pool) *RenditionRepositoryPG {
	return &RenditionRepositoryPG{pool: pool}
}

// Create inserts a rendition record for a successfully transcoded tier.
func (r *RenditionRepositoryPG) Create(ctx context.Context, rendition *domain.Rendition) error {
	query := `
INSERT INTO renditions (id, asset_id, tier, storage_key, bitrate, codec)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		rendition.ID,
		rendition.AssetID,
		rendition.Tier,
		rendition.StorageKey,
		rendition.Bitrate,
		rendition.Codec,
	)
	return err
}

// ListByAssetID returns all renditions belonging to the asset, oldest first.
func (r *RenditionRepositoryPG) ListByAssetID(ctx context.Context, assetID string) ([]domain.Rendition, error) {
	query := `
SELECT id, asset_id, tier, storage_key, bitrate, codec, created_at
FROM renditions
WHERE asset_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renditions []domain.Rendition
	for rows.Next() {
		var rendition domain.Rendition
		if err := rows.Scan(
			&rendition.ID,
			&rendition.AssetID,
			&rendition.Tier,
			&rendition.StorageKey,
			&rendition.Bitrate,
			&rendition.Codec,
			&rendition.CreatedAt,
		); err != nil {
			return nil, err
		}
		renditions = append(renditions, rendition)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return renditions, nil
}
