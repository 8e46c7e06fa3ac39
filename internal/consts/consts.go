// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultRetention is how long a finished job is kept before reclamation.
	DefaultRetention = 10 * time.Minute
	// DefaultPollInterval is the idle sleep between empty progress polls.
	DefaultPollInterval = 250 * time.Millisecond
	// FallbackName is used when a sanitized title ends up empty.
	FallbackName = "untitled"
	// AudioExt is the extension of converted audio output files.
	AudioExt = ".mp3"
	// ArchiveExt is the extension of packed playlist deliverables.
	ArchiveExt = ".zip"
	// TempDirPrefix is the prefix of per-job temp directories.
	TempDirPrefix = "ydl_"
)

// HTTP surface.
const (
	// HeaderAPIKey carries the shared access key on data endpoints.
	HeaderAPIKey = "X-API-Key"
)
