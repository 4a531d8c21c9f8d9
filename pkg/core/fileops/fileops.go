package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

// writeProbeName is the throwaway file created to test directory write
// permission before any subtitle download is attempted.
const writeProbeName = ".plexsubs_write_test"

// SubtitlePath derives the subtitle filename for a media file and language:
// the media file's path with its extension replaced by ".<lang>.srt".
func SubtitlePath(mediaPath, lang string) string {
	ext := filepath.Ext(mediaPath)
	return strings.TrimSuffix(mediaPath, ext) + "." + lang + ".srt"
}

// SubtitleExists reports whether a subtitle file for the given language is
// already present next to the media file.
func SubtitleExists(mediaPath, lang string) bool {
	_, err := os.Stat(SubtitlePath(mediaPath, lang))
	return err == nil
}

// EnsureWritable probes the directory for write permission by creating and
// removing a temporary file. Returns ErrPermission when the probe fails.
func EnsureWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: directory %s not accessible: %v", apperrors.ErrPermission, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", apperrors.ErrPermission, dir)
	}

	probe := filepath.Join(dir, writeProbeName)
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrPermission, dir, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}

// WriteSubtitle writes the subtitle payload to path with 0644 permissions.
func WriteSubtitle(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrPermission, path, err)
		}
		return fmt.Errorf("failed to write subtitle file '%s': %w", path, err)
	}
	return nil
}
