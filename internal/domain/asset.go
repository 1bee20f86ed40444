package domain

import "time"

// AssetStatus enumerates the asset processing lifecycle states.
type AssetStatus string

const (
	AssetStatusQueued     AssetStatus = "queued"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusCompleted  AssetStatus = "completed"
	AssetStatusFailed     AssetStatus = "failed"
)

// Asset is the uploaded media unit tracked through the pipeline. It is
// created in queued state by the upload surface and mutated exclusively by
// the worker holding its concurrency key thereafter.
type Asset struct {
	ID            string
	Title         string
	SourceKey     string
	Status        AssetStatus
	Duration      *float64
	Resolution    string
	AspectRatio   string
	FrameRate     *float64
	FileSize      int64
	ProcessingLog string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProbeMetadata holds the technical metadata extracted from a source file.
type ProbeMetadata struct {
	Duration    float64
	Resolution  string
	AspectRatio string
	FrameRate   float64
}
