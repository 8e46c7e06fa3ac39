// Package depmanager downloads and maintains the yt-dlp and ffmpeg binaries
// the conversion engine shells out to. Checksums are used only to detect when
// new versions are available, not to verify downloads.
package depmanager

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"ytmp3d/internal/config"
	"ytmp3d/internal/errs"

	"github.com/ulikunitz/xz"
)

// BinaryName represents the name of a binary dependency.
type BinaryName string

// Binary dependency names.
const (
	BinaryYTdlp   BinaryName = "yt-dlp"
	BinaryFFmpeg  BinaryName = "ffmpeg"
	BinaryFFprobe BinaryName = "ffprobe"
)

const (
	platformLinux = "linux"
	archARM64     = "arm64"

	downloadTimeout    = 10 * time.Minute
	filePermExecutable = 0o755
	filePermReadWrite  = 0o644

	sha256HexLength      = 64
	sha256SumsFieldCount = 2
	savedSumsFilename    = ".sha256sums.json"
)

// Manager manages binary dependencies.
type Manager struct {
	log    *slog.Logger
	cfg    *config.Config
	client *http.Client

	os   string
	arch string

	mu        sync.RWMutex
	shaSums   map[string]string     // filename -> sha256 (fetched from remote)
	savedSums map[string]string     // filename -> sha256 (from previous run)
	binPaths  map[BinaryName]string // binary name -> installed path

	isUpdating bool
}

// New creates a new dependency manager.
func New(log *slog.Logger, cfg *config.Config) *Manager {
	return &Manager{
		log:       log.With(slog.String("package", "depmanager")),
		cfg:       cfg,
		os:        runtime.GOOS,
		arch:      runtime.GOARCH,
		client:    &http.Client{Timeout: downloadTimeout},
		shaSums:   make(map[string]string),
		savedSums: make(map[string]string),
		binPaths:  make(map[BinaryName]string),
	}
}

// Start installs missing binaries (or resolves system ones) and begins the
// periodic update checker. Panics when neither path yields usable binaries;
// the engine cannot run without them.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.DepManager.UseSystemBinaries {
		if err := m.SetSystemBinaries(); err != nil {
			m.log.ErrorContext(ctx, "failed to set system binaries", slog.Any("error", err))
			panic(fmt.Sprintf("depmanager: failed to set system binaries: %v", err))
		}

		return
	}

	if err := m.InstallAll(ctx); err != nil {
		m.log.ErrorContext(ctx, "failed to install binaries", slog.Any("error", err))
		panic(fmt.Sprintf("depmanager: failed to install binaries: %v", err))
	}

	go m.startUpdateChecker(ctx)
}

// SetSystemBinaries resolves all binaries from the system PATH.
func (m *Manager) SetSystemBinaries() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, binary := range []BinaryName{BinaryYTdlp, BinaryFFmpeg, BinaryFFprobe} {
		path, err := exec.LookPath(string(binary))
		if err != nil {
			return fmt.Errorf("%s: %w: %w", binary, errs.ErrBinaryNotFound, err)
		}

		m.binPaths[binary] = path
	}

	return nil
}

// InstallAll downloads all required binaries if needed.
// On first run, if binaries exist, skips all downloads.
func (m *Manager) InstallAll(ctx context.Context) error {
	log := m.log

	err := os.MkdirAll(m.cfg.DepManager.BinsDir, filePermExecutable)
	if err != nil {
		return fmt.Errorf("create bins directory: %w", err)
	}

	err = m.loadSavedSums()
	if err != nil {
		log.DebugContext(ctx, "no saved checksums found, first run", slog.Any("error", err))
	}

	for _, binary := range []BinaryName{BinaryFFmpeg, BinaryYTdlp} {
		if m.isBinaryInstalled(binary) {
			m.setBinaryPath(binary)
			log.DebugContext(ctx, "binary already exists", slog.String("binary", string(binary)))

			continue
		}

		err = m.downloadAndInstall(ctx, binary)
		if err != nil {
			return fmt.Errorf("download and install %s: %w", binary, err)
		}
	}

	log.InfoContext(ctx, "all binaries are installed", slog.Any("binaries", m.binPaths))

	err = m.fetchSHASums(ctx)
	if err != nil {
		log.WarnContext(ctx, "failed to fetch checksums", slog.Any("error", err))

		return nil
	}

	if err := m.saveSums(); err != nil {
		log.WarnContext(ctx, "failed to save checksums", slog.Any("error", err))
	}

	return nil
}

// YTdlpPath returns the installed yt-dlp path, or empty to fall back to PATH.
func (m *Manager) YTdlpPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.binPaths[BinaryYTdlp]
}

// FFmpegDir returns the directory holding the managed ffmpeg/ffprobe pair,
// or empty to fall back to PATH.
func (m *Manager) FFmpegDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path := m.binPaths[BinaryFFmpeg]
	if path == "" {
		return ""
	}

	return filepath.Dir(path)
}

// binaryPath returns where a managed binary lives on disk.
func (m *Manager) binaryPath(name BinaryName) string {
	return filepath.Join(m.cfg.DepManager.BinsDir, string(name))
}

func (m *Manager) isBinaryInstalled(name BinaryName) bool {
	info, err := os.Stat(m.binaryPath(name))

	return err == nil && info.Size() > 0
}

func (m *Manager) setBinaryPath(name BinaryName) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.binPaths[name] = m.binaryPath(name)

	// ffprobe travels with ffmpeg in the same build.
	if name == BinaryFFmpeg {
		m.binPaths[BinaryFFprobe] = m.binaryPath(BinaryFFprobe)
	}
}

func (m *Manager) startUpdateChecker(ctx context.Context) {
	if m.cfg.DepManager.UpdateInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.cfg.DepManager.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkAndUpdate(ctx)
		}
	}
}

func (m *Manager) checkAndUpdate(ctx context.Context) {
	if m.isUpdating {
		return
	}

	m.isUpdating = true
	defer func() { m.isUpdating = false }()

	log := m.log

	if err := m.fetchSHASums(ctx); err != nil {
		log.WarnContext(ctx, "update check: failed to fetch checksums", slog.Any("error", err))

		return
	}

	updates := m.findUpdates()
	if len(updates) == 0 {
		log.DebugContext(ctx, "update check: no updates available")

		return
	}

	log.InfoContext(ctx, "update check: updates available", slog.Any("binaries", updates))

	for _, binary := range updates {
		if err := m.downloadAndInstall(ctx, binary); err != nil {
			log.ErrorContext(ctx, "update check: failed to update binary",
				slog.String("binary", string(binary)),
				slog.Any("error", err))

			continue
		}

		log.InfoContext(ctx, "update check: binary updated", slog.String("binary", string(binary)))
	}

	if err := m.saveSums(); err != nil {
		log.WarnContext(ctx, "update check: failed to save checksums", slog.Any("error", err))
	}
}

// fetchSHASums fetches and parses SHA256 sums from the configured URLs.
func (m *Manager) fetchSHASums(ctx context.Context) error {
	urls := []string{
		m.cfg.DepManager.YTdlpSHA256SumsURL,
		m.cfg.DepManager.FFmpegSHA256SumsURL,
	}

	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			continue
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := m.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch SHA sums: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()

			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		m.parseSHASums(string(body))
	}

	return nil
}

// parseSHASums parses SHA256 sums from content in the format "hash  filename".
func (m *Manager) parseSHASums(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != sha256SumsFieldCount {
			continue
		}

		if len(parts[0]) != sha256HexLength {
			continue
		}

		m.shaSums[parts[1]] = parts[0]
	}

	m.log.Debug("parsed SHA256 sums", slog.Int("count", len(m.shaSums)))
}

func (m *Manager) findUpdates() []BinaryName {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var updates []BinaryName

	for _, binary := range []BinaryName{BinaryYTdlp, BinaryFFmpeg} {
		filename := m.downloadFilename(binary)

		newHash, hasNew := m.shaSums[filename]
		oldHash, hasOld := m.savedSums[filename]

		if hasNew && (!hasOld || newHash != oldHash) {
			updates = append(updates, binary)
		}
	}

	return updates
}

// downloadFilename returns the filename as it appears in SHA256SUMS.
func (m *Manager) downloadFilename(name BinaryName) string {
	arm := m.os == platformLinux && m.arch == archARM64

	switch name {
	case BinaryYTdlp:
		if arm {
			return "yt-dlp_linux_aarch64"
		}

		return "yt-dlp_linux"
	case BinaryFFmpeg:
		if arm {
			return "ffmpeg-master-latest-linuxarm64-gpl.tar.xz"
		}

		return "ffmpeg-master-latest-linux64-gpl.tar.xz"
	}

	return string(name)
}

func (m *Manager) binaryURL(name BinaryName) string {
	cfg := m.cfg.DepManager
	arm := m.arch == archARM64

	switch name {
	case BinaryYTdlp:
		if arm {
			return cfg.YTdlpLinuxARM64
		}

		return cfg.YTdlpLinuxAMD64
	case BinaryFFmpeg, BinaryFFprobe:
		if arm {
			return cfg.FFmpegLinuxARM64
		}

		return cfg.FFmpegLinuxAMD64
	}

	return ""
}

// downloadAndInstall downloads and installs a dependency binary.
func (m *Manager) downloadAndInstall(ctx context.Context, name BinaryName) error {
	log := m.log.With(slog.String("binary", string(name)))

	if m.os != platformLinux {
		return fmt.Errorf("%w: %s/%s (set YTMP3D_DEPMANAGER_USE_SYSTEM_BINARIES=true)", errs.ErrUnsupportedPlatform, m.os, m.arch)
	}

	url := m.binaryURL(name)
	if url == "" {
		return fmt.Errorf("no download URL configured for %s", name)
	}

	log.InfoContext(ctx, "downloading binary", slog.String("url", url))

	installed, err := m.downloadDependency(ctx, url, name)
	if err != nil {
		return fmt.Errorf("download dependency: %w", err)
	}

	for _, path := range installed {
		if err := os.Chmod(path, filePermExecutable); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}

	m.setBinaryPath(name)

	log.InfoContext(ctx, "binary installed", slog.Any("paths", installed))

	return nil
}

// downloadDependency fetches url into the bins dir, extracting tar.xz
// archives in place. Returns the installed file paths.
func (m *Manager) downloadDependency(ctx context.Context, url string, name BinaryName) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	destDir := m.cfg.DepManager.BinsDir

	tmpFile, err := os.CreateTemp(destDir, "download-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if strings.HasSuffix(url, ".tar.xz") {
		targets := m.archiveTargets(name)

		if err := m.extractFromTarXZ(tmpPath, destDir, targets); err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}

		var installed []string
		for target := range targets {
			installed = append(installed, filepath.Join(destDir, target))
		}

		return installed, nil
	}

	binPath := m.binaryPath(name)

	if err := os.Rename(tmpPath, binPath); err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}

	return []string{binPath}, nil
}

// archiveTargets returns the set of files wanted from an archive.
func (m *Manager) archiveTargets(name BinaryName) map[string]struct{} {
	if name == BinaryFFmpeg {
		return map[string]struct{}{
			string(BinaryFFmpeg):  {},
			string(BinaryFFprobe): {},
		}
	}

	return map[string]struct{}{string(name): {}}
}

func (m *Manager) extractFromTarXZ(archivePath, destDir string, targets map[string]struct{}) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open tar.xz: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	tarReader := tar.NewReader(xzReader)
	extracted := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		filename := filepath.Base(header.Name)
		if _, ok := targets[filename]; !ok {
			continue
		}

		destPath := filepath.Join(destDir, filename)

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			return fmt.Errorf("create dest file: %w", err)
		}

		_, err = io.Copy(outFile, tarReader)
		outFile.Close()

		if err != nil {
			return fmt.Errorf("extract file: %w", err)
		}

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in tar archive")
	}

	return nil
}

func (m *Manager) loadSavedSums() error {
	data, err := os.ReadFile(filepath.Join(m.cfg.DepManager.BinsDir, savedSumsFilename))
	if err != nil {
		return fmt.Errorf("read checksums file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := json.Unmarshal(data, &m.savedSums); err != nil {
		return fmt.Errorf("unmarshal checksums: %w", err)
	}

	return nil
}

func (m *Manager) saveSums() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.shaSums, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("marshal checksums: %w", err)
	}

	path := filepath.Join(m.cfg.DepManager.BinsDir, savedSumsFilename)

	if err := os.WriteFile(path, data, filePermReadWrite); err != nil {
		return fmt.Errorf("write checksums file: %w", err)
	}

	m.mu.Lock()
	m.savedSums = make(map[string]string)
	maps.Copy(m.savedSums, m.shaSums)
	m.mu.Unlock()

	return nil
}
