package service

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ytmp3d/internal/consts"
	"ytmp3d/internal/engine"
	"ytmp3d/internal/entity"
	"ytmp3d/internal/errs"
	"ytmp3d/pkg/sanitize"
)

// assemble turns the engine's raw output in dir into a single deliverable:
// the mp3 itself for one item, a zip of all matched entry files for a
// playlist.
func (svc *orchestrator) assemble(dir string, res *engine.Result) (*entity.Deliverable, error) {
	candidates, err := audioFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan temp dir: %w", err)
	}

	if res.Playlist {
		return svc.assembleArchive(dir, res, candidates)
	}

	return assembleSingle(dir, res, candidates)
}

func assembleSingle(dir string, res *engine.Result, candidates []string) (*entity.Deliverable, error) {
	title := res.Title
	if title == "" && len(res.Entries) > 0 {
		title = res.Entries[0].ID
	}

	title = sanitize.Filename(title, "video", 0)

	name, ok := locate(title, entryID(res), candidates)

	// A single-item job with output files that match nothing still has a
	// deliverable somewhere in the temp dir; prefer serving something over
	// failing, exactly like the lenient single-file lookup always has.
	if !ok && len(candidates) > 0 {
		name, ok = candidates[0], true
	}

	if !ok {
		return nil, errs.ErrOutputNotFound
	}

	return &entity.Deliverable{
		Dir:      dir,
		Path:     filepath.Join(dir, name),
		Filename: name,
	}, nil
}

func entryID(res *engine.Result) string {
	if len(res.Entries) > 0 {
		return res.Entries[0].ID
	}

	return ""
}

// assembleArchive packs every matched entry file into a single zip named
// after the playlist. Entries whose output cannot be located are skipped;
// a playlist deliverable is best-effort, not all-or-nothing.
func (svc *orchestrator) assembleArchive(dir string, res *engine.Result, candidates []string) (*entity.Deliverable, error) {
	playlistTitle := sanitize.Filename(res.Title, "playlist", 0)
	archiveName := playlistTitle + consts.ArchiveExt
	archivePath := filepath.Join(dir, archiveName)

	out, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	packed := 0

	for _, entry := range res.Entries {
		entryTitle := sanitize.Filename(entry.Title, entry.ID, 0)
		if entryTitle == "" {
			entryTitle = consts.FallbackName
		}

		name, ok := locate(entryTitle, entry.ID, candidates)
		if !ok {
			svc.log.Warn("playlist entry output not found, skipping",
				"id", entry.ID, "title", entry.Title)

			continue
		}

		if err := addToArchive(zw, filepath.Join(dir, name), name); err != nil {
			zw.Close()

			return nil, fmt.Errorf("pack %q: %w", name, err)
		}

		packed++
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	if packed == 0 {
		return nil, errs.ErrOutputNotFound
	}

	return &entity.Deliverable{
		Dir:      dir,
		Path:     archivePath,
		Filename: archiveName,
	}, nil
}

func addToArchive(zw *zip.Writer, path, arcname string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(arcname)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, in)

	return err
}

// audioFiles lists the audio filenames in dir, sorted for deterministic
// fuzzy matching.
func audioFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		if strings.EqualFold(filepath.Ext(de.Name()), consts.AudioExt) {
			files = append(files, de.Name())
		}
	}

	sort.Strings(files)

	return files, nil
}

// locate finds the output file for an entry among candidates: the exact
// expected name first, then a substring match against the entry's id or its
// sanitized title. Substring matching is an accepted approximation; the
// engine gives us no per-entry output path to key on.
func locate(title, id string, candidates []string) (string, bool) {
	expected := title + consts.AudioExt

	for _, name := range candidates {
		if name == expected {
			return name, true
		}
	}

	for _, name := range candidates {
		if id != "" && strings.Contains(name, id) {
			return name, true
		}

		if title != "" && strings.Contains(name, title) {
			return name, true
		}
	}

	return "", false
}
