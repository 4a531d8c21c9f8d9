package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelospk/plexsubs/internal/httpclient"
	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
	"github.com/angelospk/plexsubs/pkg/core/plex"
)

func fastLocalDownloader(provider SubtitleProvider) *LocalDownloader {
	d := NewLocalDownloader(provider, nil)
	d.maxRetries = 2
	d.baseDelay = time.Millisecond
	d.maxDelay = 5 * time.Millisecond
	return d
}

func testMediaItem(t *testing.T) MediaItem {
	t.Helper()
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "Inception.mkv")
	require.NoError(t, os.WriteFile(mediaPath, []byte("fake video"), 0o644))
	return MediaItem{
		RatingKey: "101",
		Title:     "Inception",
		Type:      MediaTypeMovie,
		FilePath:  mediaPath,
	}
}

func TestLocalDownloadWritesFileAndRecord(t *testing.T) {
	provider := &fakeProvider{fileContent: []byte("subtitle payload")}
	downloader := fastLocalDownloader(provider)
	item := testMediaItem(t)

	cand := SubtitleCandidate{
		Language:      "en",
		Rating:        8.5,
		DownloadCount: 45203,
		Release:       "Inception.2010.1080p.BluRay.x264",
		Uploader:      "uploader",
		FileID:        928281,
	}

	start := time.Now()
	record, err := downloader.Download(context.Background(), item, cand)
	require.NoError(t, err)
	require.NotNil(t, record)

	expectedPath := filepath.Join(filepath.Dir(item.FilePath), "Inception.en.srt")
	content, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, "subtitle payload", string(content))

	assert.Equal(t, "Inception", record.MediaTitle)
	assert.Equal(t, MediaTypeMovie, record.MediaType)
	assert.Equal(t, "en", record.Language)
	assert.Equal(t, 8.5, record.Rating)
	assert.Equal(t, 45203, record.DownloadCount)
	assert.Equal(t, "Inception.2010.1080p.BluRay.x264", record.Release)
	assert.Equal(t, "uploader", record.Uploader)
	assert.Equal(t, expectedPath, record.SubtitleFile)
	assert.Equal(t, MethodLocal, record.Method)
	assert.False(t, record.Timestamp.Before(start))
}

func TestLocalDownloadUnwritableDirectoryNoRecord(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission probe not enforceable here")
	}

	provider := &fakeProvider{}
	downloader := fastLocalDownloader(provider)
	item := testMediaItem(t)
	require.NoError(t, os.Chmod(filepath.Dir(item.FilePath), 0o555))
	t.Cleanup(func() { _ = os.Chmod(filepath.Dir(item.FilePath), 0o755) })

	record, err := downloader.Download(context.Background(), item, SubtitleCandidate{Language: "en", FileID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.Nil(t, record)
	assert.Zero(t, provider.downloadCalls, "no API call should happen for an unwritable directory")
}

func rateLimitErr(retryAfter time.Duration) error {
	return fmt.Errorf("request failed: %w", &httpclient.APIError{
		StatusCode: 429,
		Body:       "rate limited",
		RetryAfter: retryAfter,
	})
}

func TestLocalDownloadRetriesRateLimits(t *testing.T) {
	provider := &fakeProvider{
		fileContent:  []byte("payload"),
		downloadErrs: []error{rateLimitErr(time.Millisecond), rateLimitErr(0), nil},
	}
	downloader := fastLocalDownloader(provider)
	item := testMediaItem(t)

	record, err := downloader.Download(context.Background(), item, SubtitleCandidate{Language: "en", FileID: 1})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 3, provider.downloadCalls)
}

func TestLocalDownloadGivesUpAfterMaxRetries(t *testing.T) {
	provider := &fakeProvider{
		downloadErrs: []error{rateLimitErr(0), rateLimitErr(0), rateLimitErr(0), rateLimitErr(0)},
	}
	downloader := fastLocalDownloader(provider)
	item := testMediaItem(t)

	record, err := downloader.Download(context.Background(), item, SubtitleCandidate{Language: "en", FileID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	assert.Nil(t, record)
	assert.Equal(t, 3, provider.downloadCalls, "initial attempt plus two retries")
}

func TestLocalDownloadQuotaErrorIsNotRetried(t *testing.T) {
	quotaErr := fmt.Errorf("request failed: %w", &httpclient.APIError{StatusCode: 403, Body: "quota"})
	provider := &fakeProvider{downloadErrs: []error{quotaErr}}
	downloader := fastLocalDownloader(provider)
	item := testMediaItem(t)

	_, err := downloader.Download(context.Background(), item, SubtitleCandidate{Language: "en", FileID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuota)
	assert.Equal(t, 1, provider.downloadCalls)
}

func TestPlexDownloadConfirmsLanguage(t *testing.T) {
	before := movieMeta("101", "Inception", "/media/Inception.mkv")
	after := movieMeta("101", "Inception", "/media/Inception.mkv", "eng")

	browser := &fakeBrowser{
		details:           map[string]*plex.Metadata{"101": &before},
		detailsAfterApply: map[string]*plex.Metadata{"101": &after},
		options:           []plex.SubtitleOption{{Key: "/subtitle/abc", Score: 95}},
	}
	downloader := NewPlexDownloader(browser, nil)
	item := NewMediaItem(&before)

	record, err := downloader.Download(context.Background(), item, "en")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{"/subtitle/abc"}, browser.appliedKeys)
	assert.Equal(t, MethodPlex, record.Method)
	assert.Equal(t, "Downloaded by Plex", record.SubtitleFile)
	assert.Equal(t, "Plex OpenSubtitles Agent", record.Release)
}

func TestPlexDownloadUnconfirmedIsNotFound(t *testing.T) {
	meta := movieMeta("101", "Inception", "/media/Inception.mkv")
	browser := &fakeBrowser{
		details: map[string]*plex.Metadata{"101": &meta},
		options: []plex.SubtitleOption{{Key: "/subtitle/abc"}},
	}
	downloader := NewPlexDownloader(browser, nil)

	record, err := downloader.Download(context.Background(), NewMediaItem(&meta), "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, record)
}

func TestPlexDownloadNoAgentResults(t *testing.T) {
	meta := movieMeta("101", "Inception", "/media/Inception.mkv")
	browser := &fakeBrowser{details: map[string]*plex.Metadata{"101": &meta}}
	downloader := NewPlexDownloader(browser, nil)

	record, err := downloader.Download(context.Background(), NewMediaItem(&meta), "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, record)
	assert.Empty(t, browser.appliedKeys)
}
