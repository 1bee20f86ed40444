package media

import (
	"context"
	"fmt"
	"os"
	"time"

	"vodworks/internal/domain"
)

// TranscodeRequest describes one rendition encode.
type TranscodeRequest struct {
	SourcePath string
	Key        string
	Tier       domain.QualityTier
}

// Transcoder re-encodes a source file into a target quality tier with ffmpeg
// and hands the result to the artifact store.
type Transcoder struct {
	runner  *Runner
	store   ArtifactStore
	timeout time.Duration
}

// NewTranscoder constructs a Transcoder around an ffmpeg runner.
func NewTranscoder(runner *Runner, store ArtifactStore, timeout time.Duration) *Transcoder {
	return &Transcoder{runner: runner, store: store, timeout: timeout}
}

// Transcode produces one video artifact for the requested tier. Scaling fixes
// the tier's nominal height and computes the width to preserve the source
// aspect ratio.
func (t *Transcoder) Transcode(ctx context.Context, req TranscodeRequest) (Artifact, error) {
	tmp, err := os.CreateTemp("", "rendition-*.mp4")
	if err != nil {
		return Artifact{}, &TranscodeError{Tier: req.Tier.Name, Reason: "create scratch file", Err: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := buildTranscodeArgs(req.SourcePath, tmpPath, req.Tier)
	if _, err := t.runner.Run(ctx, t.timeout, args...); err != nil {
		return Artifact{}, &TranscodeError{Tier: req.Tier.Name, Reason: "ffmpeg invocation failed", Err: err}
	}

	out, err := os.Open(tmpPath)
	if err != nil {
		return Artifact{}, &TranscodeError{Tier: req.Tier.Name, Reason: "open encoded output", Err: err}
	}
	defer out.Close()

	key, size, err := t.store.WriteFrom(ctx, req.Key, out)
	if err != nil {
		return Artifact{}, &TranscodeError{Tier: req.Tier.Name, Reason: "store artifact", Err: err}
	}
	if size == 0 {
		return Artifact{}, &TranscodeError{Tier: req.Tier.Name, Reason: "empty output produced"}
	}

	return Artifact{StorageKey: key, Bytes: size}, nil
}

func buildTranscodeArgs(source, output string, tier domain.QualityTier) []string {
	return []string{
		"-i", source,
		// -2 keeps the computed width divisible by two, as libx264 requires.
		"-vf", fmt.Sprintf("scale=-2:%d", tier.Height),
		"-c:v", encoderForCodec(tier.Codec),
		"-c:a", "aac",
		"-b:v", tier.VideoBitrate,
		"-b:a", tier.AudioBitrate,
		"-preset", tier.Preset,
		"-movflags", "+faststart",
		"-y",
		output,
	}
}

func encoderForCodec(codec string) string {
	switch codec {
	case "h265", "hevc":
		return "libx265"
	default:
		return "libx264"
	}
}
