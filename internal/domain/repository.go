package domain

import "context"

// AssetRepository defines persistence for assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, assetID string) (*Asset, error)
	ListQueued(ctx context.Context, limit int) ([]string, error)
	UpdateStatus(ctx context.Context, assetID string, status AssetStatus) error
	UpdateMetadata(ctx context.Context, assetID string, meta ProbeMetadata) error
	AppendLog(ctx context.Context, assetID string, entry string) error
}

// RenditionRepository handles persistence for transcoded renditions.
// Records are append-only; the pipeline never edits or deletes one.
type RenditionRepository interface {
	Create(ctx context.Context, rendition *Rendition) error
	ListByAssetID(ctx context.Context, assetID string) ([]Rendition, error)
}

// ThumbnailRepository handles persistence for extracted thumbnails.
type ThumbnailRepository interface {
	Create(ctx context.Context, thumbnail *Thumbnail) error
	ListByAssetID(ctx context.Context, assetID string) ([]Thumbnail, error)
}
