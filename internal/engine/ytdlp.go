package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"ytmp3d/internal/config"

	"github.com/lrstanley/go-ytdlp"
)

const (
	// audio preset: yt-dlp -t mp3 = --extract-audio --audio-format mp3.
	presetMP3 = "mp3"

	outputTemplate = "%(title)s.%(ext)s"

	maxJSONSize = 10 * 1024 * 1024 // 10 MiB scanner buffer
	bufSize     = 4096
)

// BinResolver resolves managed binary paths. Empty means "use PATH".
type BinResolver interface {
	YTdlpPath() string
	FFmpegDir() string
}

// YTdlp runs conversions through the yt-dlp binary.
type YTdlp struct {
	log  *slog.Logger
	cfg  *config.Config
	bins BinResolver
}

// NewYTdlp creates the yt-dlp engine. bins may be nil, in which case the
// binaries are resolved from PATH.
func NewYTdlp(log *slog.Logger, cfg *config.Config, bins BinResolver) *YTdlp {
	return &YTdlp{
		log:  log.With(slog.String("package", "engine"), slog.String("engine", "ytdlp")),
		cfg:  cfg,
		bins: bins,
	}
}

// Fetch downloads url into destDir as mp3, streaming progress to fn.
func (e *YTdlp) Fetch(ctx context.Context, url, destDir string, fn ProgressFunc) (*Result, error) {
	log := e.log

	command := ytdlp.New().
		CacheDir(e.cfg.Dir.Cache).
		PresetAlias(presetMP3).
		AudioQuality(e.cfg.Engine.AudioQuality).
		PrintJSON().
		Output(filepath.Join(destDir, outputTemplate))

	if fn != nil {
		command = command.ProgressFunc(e.cfg.Engine.ProgressFreq, func(prog ytdlp.ProgressUpdate) {
			update, ok := mapProgress(prog)
			if !ok {
				return
			}

			fn(update)
		})
	}

	if e.bins != nil {
		if path := e.bins.YTdlpPath(); path != "" {
			command = command.SetExecutable(path)
		}

		if dir := e.bins.FFmpegDir(); dir != "" {
			command = command.FFmpegLocation(dir)
		}
	}

	if e.cfg.Dir.CookieFile != "" {
		command = command.Cookies(e.cfg.Dir.CookieFile)
	}

	if e.cfg.Engine.Proxy != "" {
		command = command.Proxy(e.cfg.Engine.Proxy)
	}

	res, err := command.Run(ctx, url)
	if err != nil {
		log.ErrorContext(ctx, "ytdlp run", slog.Any("error", err))

		return nil, fmt.Errorf("ytdlp run: %w", err)
	}

	result, err := ParseStdout(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("parse ytdlp stdout: %w", err)
	}

	log.InfoContext(ctx, "fetch finished",
		slog.Bool("playlist", result.Playlist),
		slog.Int("entries", len(result.Entries)),
		slog.String("title", result.Title))

	return result, nil
}

func mapProgress(prog ytdlp.ProgressUpdate) (Progress, bool) {
	switch prog.Status {
	case ytdlp.ProgressStatusDownloading:
		return Progress{
			Status:          StatusDownloading,
			DownloadedBytes: prog.DownloadedBytes,
			TotalBytes:      prog.TotalBytes,
			Filename:        prog.Filename,
			Started:         prog.Started,
		}, true
	case ytdlp.ProgressStatusPostProcessing, ytdlp.ProgressStatusFinished:
		return Progress{Status: StatusConverting, Filename: prog.Filename}, true
	default:
		return Progress{}, false
	}
}

// entryJSON is the slice of yt-dlp's per-entry info dict we care about.
type entryJSON struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Playlist      string `json:"playlist"`
	PlaylistID    string `json:"playlist_id"`
	PlaylistTitle string `json:"playlist_title"`
	NEntries      int    `json:"n_entries"`
}

// ParseStdout parses yt-dlp's --print-json output: one JSON info dict per
// downloaded entry, possibly interleaved with stray non-JSON lines, which are
// skipped.
func ParseStdout(stdout string) (*Result, error) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, bufSize), maxJSONSize)

	var entries []entryJSON

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry entryJSON
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}

		if entry.ID == "" && entry.Title == "" {
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan stdout: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no extracted entries in ytdlp output")
	}

	result := &Result{}

	for _, entry := range entries {
		result.Entries = append(result.Entries, Item{ID: entry.ID, Title: entry.Title})

		if entry.PlaylistID != "" || entry.NEntries > 1 {
			result.Playlist = true
		}

		if result.Title == "" {
			result.Title = firstNonEmpty(entry.PlaylistTitle, entry.Playlist)
		}
	}

	if len(entries) > 1 {
		result.Playlist = true
	}

	if !result.Playlist {
		result.Title = entries[0].Title
	}

	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
