package urls_test

import (
	"testing"

	"ytmp3d/pkg/urls"
)

func TestIsYouTube(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{
			name: "watch url",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: true,
		},
		{
			name: "playlist url",
			url:  "https://www.youtube.com/playlist?list=PL123",
			want: true,
		},
		{
			name: "short link",
			url:  "https://youtu.be/dQw4w9WgXcQ",
			want: true,
		},
		{
			name: "uppercase host",
			url:  "https://WWW.YOUTUBE.COM/WATCH?v=dQw4w9WgXcQ",
			want: true,
		},
		{
			name: "channel page",
			url:  "https://www.youtube.com/@somechannel",
			want: false,
		},
		{
			name: "other domain",
			url:  "https://vimeo.com/12345",
			want: false,
		},
		{
			name: "empty",
			url:  "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urls.IsYouTube(tt.url); got != tt.want {
				t.Errorf("IsYouTube(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsURLValid(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "https", url: "https://example.com/a", want: true},
		{name: "http", url: "http://example.com", want: true},
		{name: "no scheme", url: "example.com/a", want: false},
		{name: "ftp", url: "ftp://example.com/a", want: false},
		{name: "empty", url: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urls.IsURLValid(tt.url); got != tt.want {
				t.Errorf("IsURLValid(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
