package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/failsafe-go/failsafe-go"
	log "github.com/sirupsen/logrus"

	"github.com/angelospk/plexsubs/internal/constants"
	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
	"github.com/angelospk/plexsubs/pkg/core/fileops"
	"github.com/angelospk/plexsubs/pkg/core/language"
	"github.com/angelospk/plexsubs/pkg/core/opensubtitles"
)

// LocalDownloader acquires a subtitle by fetching it from OpenSubtitles and
// writing it next to the media file.
type LocalDownloader struct {
	provider SubtitleProvider
	logger   *log.Logger

	// Retry tuning for rate-limited download calls.
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewLocalDownloader creates a LocalDownloader with the default retry tuning.
func NewLocalDownloader(provider SubtitleProvider, logger *log.Logger) *LocalDownloader {
	if logger == nil {
		logger = log.New()
	}
	return &LocalDownloader{
		provider:   provider,
		logger:     logger,
		maxRetries: constants.MaxRetryAttempts,
		baseDelay:  constants.RetryBaseDelay,
		maxDelay:   constants.RetryMaxDelay,
	}
}

// Download fetches the candidate subtitle and writes it as
// <mediabase>.<lang>.srt beside the media file. The returned record is
// created only after the write succeeds. Rate limits are retried with
// backoff; a write-permission failure returns ErrPermission.
func (d *LocalDownloader) Download(ctx context.Context, item MediaItem, candidate SubtitleCandidate) (*DownloadRecord, error) {
	if item.FilePath == "" {
		return nil, fmt.Errorf("%w: no file path for %s", apperrors.ErrNotFound, item.DisplayTitle())
	}
	if err := fileops.EnsureWritable(filepath.Dir(item.FilePath)); err != nil {
		return nil, err
	}

	policy := newRetryPolicy[*opensubtitles.DownloadResponse](d.maxRetries, d.baseDelay, d.maxDelay)
	resp, err := failsafe.NewExecutor[*opensubtitles.DownloadResponse](policy).
		WithContext(ctx).
		Get(func() (*opensubtitles.DownloadResponse, error) {
			return d.provider.Download(ctx, opensubtitles.DownloadRequest{FileID: candidate.FileID})
		})
	if err != nil {
		return nil, err
	}

	content, err := d.provider.DownloadFile(ctx, resp.Link)
	if err != nil {
		return nil, err
	}

	subtitlePath := fileops.SubtitlePath(item.FilePath, candidate.Language)
	if err := fileops.WriteSubtitle(subtitlePath, content); err != nil {
		return nil, err
	}
	d.logger.Infof("  Saved: %s (quota remaining: %d)", filepath.Base(subtitlePath), resp.Remaining)

	return &DownloadRecord{
		MediaTitle:    item.DisplayTitle(),
		MediaType:     item.Type,
		Language:      candidate.Language,
		Rating:        candidate.Rating,
		DownloadCount: candidate.DownloadCount,
		Release:       candidate.Release,
		Uploader:      candidate.Uploader,
		SubtitleFile:  subtitlePath,
		Method:        MethodLocal,
		Timestamp:     time.Now(),
	}, nil
}

// PlexDownloader delegates subtitle acquisition to the Plex server's own
// subtitle agent.
type PlexDownloader struct {
	plex   LibraryBrowser
	logger *log.Logger
}

// NewPlexDownloader creates a PlexDownloader.
func NewPlexDownloader(plex LibraryBrowser, logger *log.Logger) *PlexDownloader {
	if logger == nil {
		logger = log.New()
	}
	return &PlexDownloader{plex: plex, logger: logger}
}

// Download asks the Plex agent to search for subtitles in the language,
// applies the top-ranked result and reloads the item to confirm the language
// now appears in its streams. An unconfirmed download is treated as not
// found and produces no record.
func (d *PlexDownloader) Download(ctx context.Context, item MediaItem, lang string) (*DownloadRecord, error) {
	d.logger.Infof("  Searching via Plex for %s subtitles...", lang)

	options, err := d.plex.SearchSubtitles(ctx, item.RatingKey, lang)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: Plex agent found no %s subtitles for %s", apperrors.ErrNotFound, lang, item.DisplayTitle())
	}

	if err := d.plex.ApplySubtitle(ctx, item.RatingKey, options[0].Key); err != nil {
		return nil, err
	}

	reloaded, err := d.plex.ItemDetail(ctx, item.RatingKey)
	if err != nil {
		return nil, err
	}
	confirmed := false
	for _, stream := range reloaded.SubtitleStreams() {
		if language.Normalize(stream.LanguageCode) == lang {
			confirmed = true
			break
		}
	}
	if !confirmed {
		return nil, fmt.Errorf("%w: Plex did not attach a %s subtitle to %s", apperrors.ErrNotFound, lang, item.DisplayTitle())
	}
	d.logger.Infof("  Plex downloaded %s subtitle", lang)

	return &DownloadRecord{
		MediaTitle:   item.DisplayTitle(),
		MediaType:    item.Type,
		Language:     lang,
		Release:      "Plex OpenSubtitles Agent",
		Uploader:     "Plex",
		SubtitleFile: "Downloaded by Plex",
		Method:       MethodPlex,
		Timestamp:    time.Now(),
	}, nil
}
