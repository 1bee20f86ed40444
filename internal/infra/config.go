package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	MediaRoot  string
	FFmpegBin  string
	FFprobeBin string

	WorkerCount     int
	WorkerQueueSize int
	PollInterval    time.Duration

	RetryBase   time.Duration
	MaxAttempts int

	ProbeTimeout     time.Duration
	ThumbnailTimeout time.Duration
	TranscodeTimeout time.Duration

	MaxUploadBytes int64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MediaRoot:        getEnv("MEDIA_ROOT", "./media"),
		FFmpegBin:        getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:       getEnv("FFPROBE_BIN", "ffprobe"),
		WorkerCount:      getEnvInt("WORKER_COUNT", 2),
		WorkerQueueSize:  getEnvInt("WORKER_QUEUE_SIZE", 64),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		RetryBase:        time.Second * time.Duration(getEnvInt("RETRY_BASE_SECONDS", 60)),
		MaxAttempts:      getEnvInt("MAX_ATTEMPTS", 3),
		ProbeTimeout:     time.Second * time.Duration(getEnvInt("PROBE_TIMEOUT_SECONDS", 30)),
		ThumbnailTimeout: time.Second * time.Duration(getEnvInt("THUMBNAIL_TIMEOUT_SECONDS", 120)),
		TranscodeTimeout: time.Second * time.Duration(getEnvInt("TRANSCODE_TIMEOUT_SECONDS", 1800)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 2048)) * 1024 * 1024,
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 300)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
