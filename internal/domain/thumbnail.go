package domain

import "time"

// ThumbnailSpec configures one still-frame extraction.
type ThumbnailSpec struct {
	OffsetSeconds float64
	Width         int
	Height        int
	Default       bool
}

// DefaultThumbnailSpecs returns the standard offsets. The first extraction is
// marked as the asset's default thumbnail.
func DefaultThumbnailSpecs() []ThumbnailSpec {
	return []ThumbnailSpec{
		{OffsetSeconds: 5, Width: 640, Height: 360, Default: true},
		{OffsetSeconds: 15, Width: 640, Height: 360},
		{OffsetSeconds: 30, Width: 640, Height: 360},
	}
}

// Thumbnail is one still-frame artifact of an asset, independent of other
// offsets and of rendition outcomes.
type Thumbnail struct {
	ID            string
	AssetID       string
	StorageKey    string
	OffsetSeconds float64
	Size          string
	IsDefault     bool
	CreatedAt     time.Time
}
