// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// IsYouTube reports whether the URL matches one of the recognized YouTube
// shapes: a watch page, a playlist page, or a youtu.be short link.
func IsYouTube(raw string) bool {
	if raw == "" {
		return false
	}

	raw = strings.ToLower(raw)

	return strings.Contains(raw, "youtube.com/watch") ||
		strings.Contains(raw, "youtube.com/playlist") ||
		strings.Contains(raw, "youtu.be/")
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}
