package media

import (
	"strings"
	"testing"

	"vodworks/internal/domain"
)

func TestBuildThumbnailArgs(t *testing.T) {
	spec := domain.ThumbnailSpec{OffsetSeconds: 5, Width: 640, Height: 360}

	args := buildThumbnailArgs("in.mp4", "out.jpg", spec)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-ss 5",
		"-i in.mp4",
		"-frames:v 1",
		"-vf scale=640:360",
		"-y",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("buildThumbnailArgs() missing %q in %q", want, joined)
		}
	}
	if args[len(args)-1] != "out.jpg" {
		t.Fatalf("output path must be the final argument, got %q", args[len(args)-1])
	}
}

func TestBuildThumbnailArgsFractionalOffset(t *testing.T) {
	spec := domain.ThumbnailSpec{OffsetSeconds: 12.5, Width: 320, Height: 180}
	args := buildThumbnailArgs("in.mp4", "out.jpg", spec)
	if args[1] != "12.5" {
		t.Fatalf("offset argument = %q, want 12.5", args[1])
	}
}

func TestDefaultThumbnailSpecs(t *testing.T) {
	specs := domain.DefaultThumbnailSpecs()
	if len(specs) != 3 {
		t.Fatalf("DefaultThumbnailSpecs() length = %d, want 3", len(specs))
	}
	if !specs[0].Default {
		t.Fatalf("first spec must be the default thumbnail")
	}
	for _, spec := range specs[1:] {
		if spec.Default {
			t.Fatalf("only the first spec may be the default: %+v", specs)
		}
	}
}
