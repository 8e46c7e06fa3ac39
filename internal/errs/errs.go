// Package errs defines common error variables used across the application.
package errs

import "errors"

// Request validation errors.
var (
	// ErrMissingURL indicates that the url query parameter is absent.
	ErrMissingURL = errors.New("missing url parameter")
	// ErrUnsupportedURL indicates that the URL does not match a recognized source.
	ErrUnsupportedURL = errors.New("unsupported url domain")
	// ErrMissingAPIKey indicates that the X-API-Key header is absent.
	ErrMissingAPIKey = errors.New("missing X-API-Key header")
	// ErrInvalidAPIKey indicates that the X-API-Key header does not match the configured key.
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// Job and store errors.
var (
	// ErrTokenNotFound indicates that the token maps to no job, either because it
	// never existed or because the job was already consumed or reclaimed.
	ErrTokenNotFound = errors.New("invalid or expired token")
)

// Conversion errors.
var (
	// ErrOutputNotFound indicates that the engine finished without producing the
	// expected output file.
	ErrOutputNotFound = errors.New("expected output file not found")
	// ErrBinaryNotFound indicates that a required binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
