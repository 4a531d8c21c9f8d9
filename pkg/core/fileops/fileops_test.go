package fileops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

func TestSubtitlePath(t *testing.T) {
	tests := []struct {
		name  string
		media string
		lang  string
		want  string
	}{
		{"movie file", "/media/movies/Inception (2010)/Inception.2010.1080p.mkv", "en", "/media/movies/Inception (2010)/Inception.2010.1080p.en.srt"},
		{"episode file", "/tv/Show/S01E02.mp4", "es", "/tv/Show/S01E02.es.srt"},
		{"no extension", "/media/raw", "fr", "/media/raw.fr.srt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubtitlePath(tt.media, tt.lang))
		})
	}
}

func TestSubtitleExists(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(media, []byte("x"), 0o644))

	assert.False(t, SubtitleExists(media, "en"))

	require.NoError(t, os.WriteFile(SubtitlePath(media, "en"), []byte("1\n"), 0o644))
	assert.True(t, SubtitleExists(media, "en"))
	assert.False(t, SubtitleExists(media, "es"))
}

func TestEnsureWritable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureWritable(dir))

	// The probe file must not be left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureWritableDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced in this environment")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := EnsureWritable(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPermission)
}

func TestEnsureWritableMissingDir(t *testing.T) {
	err := EnsureWritable(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPermission)
}

func TestWriteSubtitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.en.srt")
	payload := []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	require.NoError(t, WriteSubtitle(path, payload))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCalculateOSDbHashTooSmall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.mkv")
	require.NoError(t, os.WriteFile(path, []byte("too small"), 0o644))

	_, _, err := CalculateOSDbHash(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
}

func TestCalculateOSDbHashKnownValue(t *testing.T) {
	// 128KB of zero bytes: both chunk checksums are zero, so the hash is
	// just the file size.
	dir := t.TempDir()
	path := filepath.Join(dir, "zeros.mkv")
	require.NoError(t, os.WriteFile(path, make([]byte, 2*65536), 0o644))

	hash, size, err := CalculateOSDbHash(path)
	require.NoError(t, err)
	assert.Equal(t, int64(131072), size)
	assert.Equal(t, "0000000000020000", hash)
}
