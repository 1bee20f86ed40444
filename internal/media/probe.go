package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProbeResult carries the technical metadata extracted from a source file.
type ProbeResult struct {
	Duration    float64
	Width       int
	Height      int
	AspectRatio string
	FrameRate   float64
	Codec       string
}

// Resolution renders the pixel dimensions as a "WxH" string.
func (r ProbeResult) Resolution() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Prober extracts technical metadata from a source file via ffprobe. Pure
// inspection; the caller persists the result.
type Prober struct {
	runner  *Runner
	timeout time.Duration
}

// NewProber constructs a Prober around an ffprobe runner.
func NewProber(runner *Runner, timeout time.Duration) *Prober {
	return &Prober{runner: runner, timeout: timeout}
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType          string `json:"codec_type"`
	CodecName          string `json:"codec_name"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	Duration           string `json:"duration"`
	DisplayAspectRatio string `json:"display_aspect_ratio"`
	RFrameRate         string `json:"r_frame_rate"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

// Probe inspects the file at path and returns its metadata, or a *ProbeError
// when the file is missing, unreadable, or has no decodable video stream.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ProbeError{Path: path, Reason: "source file not reachable", Err: err}
	}

	out, err := p.runner.Run(ctx, p.timeout,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	if err != nil {
		return nil, &ProbeError{Path: path, Reason: "ffprobe invocation failed", Err: err}
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return nil, &ProbeError{Path: path, Reason: "malformed ffprobe output", Err: err}
	}

	return parseProbeOutput(path, probed)
}

func parseProbeOutput(path string, probed ffprobeOutput) (*ProbeResult, error) {
	var video *ffprobeStream
	for i := range probed.Streams {
		if probed.Streams[i].CodecType == "video" {
			video = &probed.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, &ProbeError{Path: path, Reason: "no decodable video stream", NoStream: true}
	}

	result := &ProbeResult{
		Width:  video.Width,
		Height: video.Height,
		Codec:  video.CodecName,
	}

	durationStr := video.Duration
	if durationStr == "" {
		durationStr = probed.Format.Duration
	}
	if durationStr != "" {
		duration, err := strconv.ParseFloat(durationStr, 64)
		if err != nil {
			return nil, &ProbeError{Path: path, Reason: "unparseable duration", Err: err}
		}
		result.Duration = duration
	}

	rate, err := parseFrameRate(video.RFrameRate)
	if err != nil {
		return nil, &ProbeError{Path: path, Reason: "unparseable frame rate", Err: err}
	}
	result.FrameRate = rate

	result.AspectRatio = video.DisplayAspectRatio
	if result.AspectRatio == "" && result.Width > 0 && result.Height > 0 {
		result.AspectRatio = deriveAspectRatio(result.Width, result.Height)
	}

	return result, nil
}

// parseFrameRate parses ffprobe's rational frame rate ("30000/1001"). A zero
// denominator is rejected rather than allowed to divide.
func parseFrameRate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	num, den, found := strings.Cut(raw, "/")
	if !found {
		return strconv.ParseFloat(raw, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("frame rate numerator %q: %w", num, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("frame rate denominator %q: %w", den, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("frame rate %q has zero denominator", raw)
	}
	return n / d, nil
}

func deriveAspectRatio(width, height int) string {
	d := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
