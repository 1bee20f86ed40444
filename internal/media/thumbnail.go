package media

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"vodworks/internal/domain"
)

// ThumbnailRequest describes one still-frame extraction.
type ThumbnailRequest struct {
	SourcePath string
	Key        string
	Spec       domain.ThumbnailSpec
}

// Thumbnailer extracts still frames from a source file with ffmpeg and hands
// them to the artifact store.
type Thumbnailer struct {
	runner  *Runner
	store   ArtifactStore
	timeout time.Duration
}

// NewThumbnailer constructs a Thumbnailer around an ffmpeg runner.
func NewThumbnailer(runner *Runner, store ArtifactStore, timeout time.Duration) *Thumbnailer {
	return &Thumbnailer{runner: runner, store: store, timeout: timeout}
}

// Extract produces one image artifact at the requested offset and size. An
// offset beyond the stream duration fails with *ExtractionError without
// affecting sibling offsets.
func (t *Thumbnailer) Extract(ctx context.Context, req ThumbnailRequest) (Artifact, error) {
	tmp, err := os.CreateTemp("", "thumb-*.jpg")
	if err != nil {
		return Artifact{}, &ExtractionError{OffsetSeconds: req.Spec.OffsetSeconds, Reason: "create scratch file", Err: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := buildThumbnailArgs(req.SourcePath, tmpPath, req.Spec)
	if _, err := t.runner.Run(ctx, t.timeout, args...); err != nil {
		return Artifact{}, &ExtractionError{OffsetSeconds: req.Spec.OffsetSeconds, Reason: "ffmpeg invocation failed", Err: err}
	}

	out, err := os.Open(tmpPath)
	if err != nil {
		return Artifact{}, &ExtractionError{OffsetSeconds: req.Spec.OffsetSeconds, Reason: "open extracted frame", Err: err}
	}
	defer out.Close()

	key, size, err := t.store.WriteFrom(ctx, req.Key, out)
	if err != nil {
		return Artifact{}, &ExtractionError{OffsetSeconds: req.Spec.OffsetSeconds, Reason: "store artifact", Err: err}
	}
	if size == 0 {
		return Artifact{}, &ExtractionError{OffsetSeconds: req.Spec.OffsetSeconds, Reason: "empty frame produced"}
	}

	return Artifact{StorageKey: key, Bytes: size}, nil
}

func buildThumbnailArgs(source, output string, spec domain.ThumbnailSpec) []string {
	return []string{
		"-ss", formatSeconds(spec.OffsetSeconds),
		"-i", source,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", spec.Width, spec.Height),
		"-y",
		output,
	}
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
