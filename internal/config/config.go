// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	HTTP       HTTP
	App        App
	Job        Job
	Dir        Dir
	Engine     Engine
	DepManager DepManager
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"YTMP3D_APP_LOG_LEVEL" envDefault:"info"`

	// APIKey, when non-empty, is required in the X-API-Key header on all
	// data endpoints.
	APIKey string `env:"YTMP3D_APP_API_KEY" envDefault:""`
}

// Job holds conversion job configuration.
type Job struct {
	// Retention is how long a finished job's files are kept before the
	// output directory is reclaimed.
	Retention time.Duration `env:"YTMP3D_JOB_RETENTION" envDefault:"10m"`

	// PollInterval is the idle sleep between empty event-queue polls while
	// streaming progress; a keep-alive comment is emitted on each idle poll.
	PollInterval time.Duration `env:"YTMP3D_JOB_POLL_INTERVAL" envDefault:"250ms"`
}

// HTTP holds HTTP server configuration.
type HTTP struct {
	Port            string        `env:"YTMP3D_HTTP_PORT"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"YTMP3D_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Dir holds directory paths for job workspaces and the yt-dlp cache.
type Dir struct {
	Downloads string `env:"YTMP3D_DIR_DOWNLOADS" envDefault:"./data/downloads"` // per-job temp dirs created here
	Cache     string `env:"YTMP3D_DIR_CACHE"     envDefault:"./data/cache"`     // yt-dlp cache (meta, sigs)

	// must contain cookies.txt file
	// see: https://github.com/yt-dlp/yt-dlp/wiki/FAQ#how-do-i-pass-cookies-to-yt-dlp
	CookieFile string `env:"YTMP3D_DIR_COOKIE_FILE" envDefault:""`
}

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Downloads, err = filepath.Abs(c.Downloads); err != nil {
		return fmt.Errorf("downloads: %w", err)
	}

	if c.Cache, err = filepath.Abs(c.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	if c.CookieFile != "" {
		if c.CookieFile, err = filepath.Abs(c.CookieFile); err != nil {
			return fmt.Errorf("cookie file: %w", err)
		}
	}

	return nil
}

// Engine holds options passed through to the yt-dlp engine.
type Engine struct {
	// AudioQuality maps to yt-dlp --audio-quality.
	AudioQuality string `env:"YTMP3D_ENGINE_AUDIO_QUALITY" envDefault:"192K"`
	// ProgressFreq is how often the engine reports transfer progress.
	ProgressFreq time.Duration `env:"YTMP3D_ENGINE_PROGRESS_FREQ" envDefault:"200ms"`
	// Proxy is an optional proxy URL for all engine traffic.
	Proxy string `env:"YTMP3D_ENGINE_PROXY" envDefault:""`
}

// DepManager holds binary dependency management configuration.
type DepManager struct {
	// BinsDir is the directory where binaries are stored
	BinsDir string `env:"YTMP3D_DEPMANAGER_BINS_DIR" envDefault:"./bins"`
	// UseSystemBinaries indicates whether to use system-installed binaries or download them.
	UseSystemBinaries bool `env:"YTMP3D_DEPMANAGER_USE_SYSTEM_BINARIES" envDefault:"false"`
	// UpdateInterval is how often to check for binary updates
	UpdateInterval time.Duration `env:"YTMP3D_DEPMANAGER_UPDATE_INTERVAL" envDefault:"24h"`

	// ffmpeg binary URLs per platform.
	FFmpegSHA256SumsURL string `env:"YTMP3D_DEPMANAGER_FFMPEG_SHA256SUMS_URL" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/checksums.sha256"`                        //nolint:lll
	FFmpegLinuxARM64    string `env:"YTMP3D_DEPMANAGER_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	FFmpegLinuxAMD64    string `env:"YTMP3D_DEPMANAGER_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll

	// yt-dlp binary URLs per platform.
	YTdlpSHA256SumsURL string `env:"YTMP3D_DEPMANAGER_YTDLP_SHA256SUMS_URL" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/SHA2-256SUMS"`      //nolint:lll
	YTdlpLinuxARM64    string `env:"YTMP3D_DEPMANAGER_YTDLP_LINUX_ARM64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux_aarch64"` //nolint:lll
	YTdlpLinuxAMD64    string `env:"YTMP3D_DEPMANAGER_YTDLP_LINUX_AMD64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux"`         //nolint:lll
}

// SetAbsPaths converts the BinsDir path to an absolute path.
func (d *DepManager) SetAbsPaths() error {
	var err error
	if d.BinsDir, err = filepath.Abs(d.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	return nil
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.DepManager.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set dep manager absolute paths: %w", err)
	}

	return cfg, nil
}
