package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("RETRY_BASE_SECONDS", "")
	t.Setenv("MAX_ATTEMPTS", "")
	t.Setenv("WORKER_COUNT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RetryBase != time.Minute {
		t.Fatalf("RetryBase = %v, want 1m", cfg.RetryBase)
	}
	if cfg.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
	if cfg.FFmpegBin != "ffmpeg" || cfg.FFprobeBin != "ffprobe" {
		t.Fatalf("tool binaries = %q/%q, want ffmpeg/ffprobe", cfg.FFmpegBin, cfg.FFprobeBin)
	}
	if cfg.MediaRoot != "./media" {
		t.Fatalf("MediaRoot = %q, want ./media", cfg.MediaRoot)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error without DATABASE_URL")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("RETRY_BASE_SECONDS", "5")
	t.Setenv("MAX_ATTEMPTS", "7")
	t.Setenv("MAX_UPLOAD_MB", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RetryBase != 5*time.Second {
		t.Fatalf("RetryBase = %v, want 5s", cfg.RetryBase)
	}
	if cfg.MaxAttempts != 7 {
		t.Fatalf("MaxAttempts = %d, want 7", cfg.MaxAttempts)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d, want 10MiB", cfg.MaxUploadBytes)
	}
}

func TestLoadConfigRejectsZeroAttempts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MAX_ATTEMPTS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error with MAX_ATTEMPTS=0")
	}
}
