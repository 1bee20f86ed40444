package media

import (
	"context"
	"io"
)

// Artifact references a stored output produced by a generator.
type Artifact struct {
	StorageKey string
	Bytes      int64
}

// ArtifactStore is the capability the generators use to persist their
// outputs. storage.FileStore satisfies it; failures surface wrapped into the
// generator's own error type.
type ArtifactStore interface {
	WriteFrom(ctx context.Context, key string, r io.Reader) (string, int64, error)
}
