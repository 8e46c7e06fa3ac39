package engine_test

import (
	"testing"

	"ytmp3d/internal/engine"
)

func TestParseStdout(t *testing.T) {
	tests := []struct {
		name         string
		stdout       string
		wantErr      bool
		wantPlaylist bool
		wantTitle    string
		wantEntries  int
	}{
		{
			name:         "single video",
			stdout:       `{"id":"abc123","title":"My Song"}`,
			wantPlaylist: false,
			wantTitle:    "My Song",
			wantEntries:  1,
		},
		{
			name: "playlist of two",
			stdout: `{"id":"id1","title":"Song One","playlist_id":"PL1","playlist_title":"Best Hits","n_entries":2}
{"id":"id2","title":"Song Two","playlist_id":"PL1","playlist_title":"Best Hits","n_entries":2}`,
			wantPlaylist: true,
			wantTitle:    "Best Hits",
			wantEntries:  2,
		},
		{
			name:         "single-entry playlist",
			stdout:       `{"id":"id1","title":"Song One","playlist_id":"PL1","playlist":"Best Hits","n_entries":1}`,
			wantPlaylist: true,
			wantTitle:    "Best Hits",
			wantEntries:  1,
		},
		{
			name: "stray non-json lines skipped",
			stdout: `[download] Destination: My Song.mp3
{"id":"abc123","title":"My Song"}
WARNING: something`,
			wantPlaylist: false,
			wantTitle:    "My Song",
			wantEntries:  1,
		},
		{
			name:    "no entries",
			stdout:  "some noise\nmore noise",
			wantErr: true,
		},
		{
			name:    "empty stdout",
			stdout:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.ParseStdout(tt.stdout)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if res.Playlist != tt.wantPlaylist {
				t.Errorf("got playlist %v, want %v", res.Playlist, tt.wantPlaylist)
			}

			if res.Title != tt.wantTitle {
				t.Errorf("got title %q, want %q", res.Title, tt.wantTitle)
			}

			if len(res.Entries) != tt.wantEntries {
				t.Errorf("got %d entries, want %d", len(res.Entries), tt.wantEntries)
			}
		})
	}
}
