// Package entity defines the core entities used in the application.
package entity

import (
	"log/slog"
	"time"
)

// Job represents a completed conversion awaiting retrieval or expiry. It is
// owned by the job store from registration until whichever of the download
// endpoint and the reclaimer takes it first.
type Job struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`      // deliverable inside the job's temp dir
	Filename  string    `json:"filename"`  // display name for the attachment
	ExpiresAt time.Time `json:"expiresAt"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (j Job) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token", j.Token),
		slog.String("path", j.Path),
		slog.String("filename", j.Filename),
		slog.Time("expiresAt", j.ExpiresAt),
	)
}

// Deliverable is the assembled output of one conversion: a single audio file
// or a zip archive for playlists, together with its private directory.
type Deliverable struct {
	Dir      string // job-private temp directory holding Path
	Path     string
	Filename string
}

// ProgressPayload is the JSON body of a "progress" stream event.
type ProgressPayload struct {
	Status   string   `json:"status,omitempty"`
	Percent  *float64 `json:"percent,omitempty"`
	Speed    *float64 `json:"speed,omitempty"` // bytes per second
	ETA      *int     `json:"eta,omitempty"`   // seconds
	Filename string   `json:"filename,omitempty"`
}

// DonePayload is the JSON body of a "done" stream event.
type DonePayload struct {
	Token    string `json:"token"`
	Filename string `json:"filename"`
}

// ErrorPayload is the JSON body of an "error" stream event.
type ErrorPayload struct {
	Error string `json:"error"`
}
