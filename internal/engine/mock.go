package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Mock simulates the external engine for tests: it writes the configured
// files into destDir, emits a small progress sequence, and returns a canned
// result.
type Mock struct {
	log *slog.Logger

	// Result is returned from Fetch when Err is nil.
	Result Result
	// Files maps filename to content, written into destDir before returning.
	Files map[string]string
	// Err, when set, makes Fetch fail after the progress sequence.
	Err error
	// TotalBytes of the simulated transfer; 0 keeps percent unknown.
	TotalBytes int
}

// NewMock creates a mock engine.
func NewMock(log *slog.Logger) *Mock {
	return &Mock{
		log:        log.With(slog.String("package", "engine"), slog.String("engine", "mock")),
		TotalBytes: 1000,
	}
}

// Fetch simulates a download: a few downloading callbacks, one converting
// callback, then the canned files and result.
func (m *Mock) Fetch(ctx context.Context, url, destDir string, fn ProgressFunc) (*Result, error) {
	started := time.Now()

	steps := []int{0, m.TotalBytes / 2, m.TotalBytes}
	for _, downloaded := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if fn != nil {
			fn(Progress{
				Status:          StatusDownloading,
				DownloadedBytes: downloaded,
				TotalBytes:      m.TotalBytes,
				Filename:        url,
				Started:         started,
			})
		}
	}

	if fn != nil {
		fn(Progress{Status: StatusConverting})
	}

	if m.Err != nil {
		return nil, m.Err
	}

	for name, content := range m.Files {
		path := filepath.Join(destDir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return nil, err
		}
	}

	m.log.DebugContext(ctx, "mock fetch complete", slog.String("url", url), slog.Int("files", len(m.Files)))

	result := m.Result

	return &result, nil
}
