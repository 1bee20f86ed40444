package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// maxStderrBytes bounds the stderr tail kept for diagnostics.
const maxStderrBytes = 8 * 1024

// Runner executes an external media binary (ffmpeg, ffprobe) with a bounded
// stderr capture. The stderr tail is folded into the returned error so tier
// and offset failures carry actionable diagnostics into the processing log.
type Runner struct {
	bin    string
	logger zerolog.Logger
}

// NewRunner resolves the binary on PATH and returns a Runner for it.
func NewRunner(bin string, logger zerolog.Logger) (*Runner, error) {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("media: binary %q not found: %w", bin, err)
	}
	return &Runner{bin: resolved, logger: logger}, nil
}

// Run invokes the binary with the given arguments and timeout, returning
// captured stdout. A non-zero exit wraps the stderr tail into the error.
func (r *Runner) Run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.bin, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Writer(&tailWriter{buf: &stderr, limit: maxStderrBytes})

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Warn().
			Str("bin", r.bin).
			Dur("elapsed", elapsed).
			Str("stderr_tail", truncate(stderr.String(), 512)).
			Msg("media: command failed")
		return nil, fmt.Errorf("%s: %w: %s", r.bin, err, stderr.String())
	}

	r.logger.Debug().
		Str("bin", r.bin).
		Dur("elapsed", elapsed).
		Msg("media: command succeeded")
	return stdout.Bytes(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// tailWriter keeps only the last limit bytes written to it.
type tailWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.buf.Write(p)
	if w.buf.Len() > w.limit {
		b := w.buf.Bytes()
		trimmed := append([]byte(nil), b[len(b)-w.limit:]...)
		w.buf.Reset()
		w.buf.Write(trimmed)
	}
	return n, nil
}
