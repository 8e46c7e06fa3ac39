// Package engine defines the boundary to the external media-fetch/transcode
// collaborator and its yt-dlp implementation.
package engine

import (
	"context"
	"time"
)

// Status classifies a progress callback.
type Status string

const (
	// StatusDownloading means bytes are actively being transferred.
	StatusDownloading Status = "downloading"
	// StatusConverting means the transfer finished and post-processing runs.
	StatusConverting Status = "converting"
)

// Progress is one callback-driven progress report from the engine.
type Progress struct {
	Status          Status
	DownloadedBytes int
	TotalBytes      int // 0 when unknown
	Filename        string
	Started         time.Time
}

// ProgressFunc receives progress reports on the engine's own goroutine.
type ProgressFunc func(Progress)

// Item is one extracted entry: a single video, or one member of a playlist.
type Item struct {
	ID    string
	Title string
}

// Result is the extracted metadata for a finished fetch. Playlist is true
// when the URL resolved to a collection; Entries then holds every extracted
// member, and Title carries the collection's title.
type Result struct {
	Title    string
	Playlist bool
	Entries  []Item
}

// Engine fetches url into destDir, converting to the target audio format, and
// reports progress through fn (which may be nil). It returns the extracted
// metadata; locating the produced files is the caller's concern.
type Engine interface {
	Fetch(ctx context.Context, url, destDir string, fn ProgressFunc) (*Result, error)
}
