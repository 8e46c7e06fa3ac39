package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"ytmp3d/internal/config"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}

	if cfg.HTTP.Port != ":8080" {
		t.Errorf("got port %q, want %q", cfg.HTTP.Port, ":8080")
	}

	if cfg.Job.Retention != 10*time.Minute {
		t.Errorf("got retention %v, want %v", cfg.Job.Retention, 10*time.Minute)
	}

	if cfg.Job.PollInterval != 250*time.Millisecond {
		t.Errorf("got poll interval %v, want %v", cfg.Job.PollInterval, 250*time.Millisecond)
	}

	if cfg.App.APIKey != "" {
		t.Errorf("got api key %q, want empty", cfg.App.APIKey)
	}

	if !filepath.IsAbs(cfg.Dir.Downloads) {
		t.Errorf("downloads dir %q is not absolute", cfg.Dir.Downloads)
	}

	if !filepath.IsAbs(cfg.DepManager.BinsDir) {
		t.Errorf("bins dir %q is not absolute", cfg.DepManager.BinsDir)
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("YTMP3D_HTTP_PORT", ":9999")
	t.Setenv("YTMP3D_JOB_RETENTION", "5m")
	t.Setenv("YTMP3D_APP_API_KEY", "secret")
	t.Setenv("YTMP3D_DIR_DOWNLOADS", "/var/lib/ytmp3d/downloads")
	t.Setenv("YTMP3D_ENGINE_AUDIO_QUALITY", "320K")
	t.Setenv("YTMP3D_DEPMANAGER_USE_SYSTEM_BINARIES", "true")

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}

	if cfg.HTTP.Port != ":9999" {
		t.Errorf("got port %q, want %q", cfg.HTTP.Port, ":9999")
	}

	if cfg.Job.Retention != 5*time.Minute {
		t.Errorf("got retention %v, want %v", cfg.Job.Retention, 5*time.Minute)
	}

	if cfg.App.APIKey != "secret" {
		t.Errorf("got api key %q, want %q", cfg.App.APIKey, "secret")
	}

	if cfg.Dir.Downloads != "/var/lib/ytmp3d/downloads" {
		t.Errorf("got downloads dir %q, want %q", cfg.Dir.Downloads, "/var/lib/ytmp3d/downloads")
	}

	if cfg.Engine.AudioQuality != "320K" {
		t.Errorf("got audio quality %q, want %q", cfg.Engine.AudioQuality, "320K")
	}

	if !cfg.DepManager.UseSystemBinaries {
		t.Error("expected UseSystemBinaries to be true")
	}
}
