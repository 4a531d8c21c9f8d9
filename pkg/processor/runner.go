package processor

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
	"github.com/angelospk/plexsubs/pkg/core/fileops"
	"github.com/angelospk/plexsubs/pkg/core/plex"
)

// Options configures one runner pass.
type Options struct {
	Method       string   // MethodLocal or MethodPlex
	Library      string   // Library title to process; empty means all movie/show libraries
	MediaType    string   // Optional filter: MediaTypeMovie or MediaTypeEpisode
	Languages    []string // Normalized 2-letter codes, in priority order
	MaxDownloads int      // 0 means unlimited
}

// Runner walks Plex libraries sequentially, finds items missing requested
// subtitle languages and acquires them one at a time. Per-item failures are
// logged and counted; only configuration, connection and authorization
// problems abort the run.
type Runner struct {
	plex    LibraryBrowser
	matcher *Matcher
	local   *LocalDownloader
	remote  *PlexDownloader
	report  *Report
	opts    Options
	logger  *log.Logger
}

// NewRunner wires a Runner for the given method. The provider may be nil for
// the plex method, which never contacts OpenSubtitles directly.
func NewRunner(browser LibraryBrowser, provider SubtitleProvider, report *Report, opts Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New()
	}
	r := &Runner{
		plex:   browser,
		report: report,
		opts:   opts,
		logger: logger,
	}
	if opts.Method == MethodPlex {
		r.remote = NewPlexDownloader(browser, logger)
	} else {
		r.matcher = NewMatcher(provider, logger)
		r.local = NewLocalDownloader(provider, logger)
	}
	return r
}

// Run processes the configured libraries and returns the pass statistics.
// Partial results remain in the report even when an error is returned.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	libraries, err := r.plex.Libraries(ctx)
	if err != nil {
		return stats, err
	}

	var selected []plex.Library
	for _, lib := range libraries {
		if lib.Type != "movie" && lib.Type != "show" {
			continue
		}
		if r.opts.Library != "" && lib.Title != r.opts.Library {
			continue
		}
		if r.opts.MediaType == MediaTypeMovie && lib.Type != "movie" {
			continue
		}
		if r.opts.MediaType == MediaTypeEpisode && lib.Type != "show" {
			continue
		}
		selected = append(selected, lib)
	}
	if r.opts.Library != "" && len(selected) == 0 {
		return stats, fmt.Errorf("%w: library '%s' not found", apperrors.ErrConfiguration, r.opts.Library)
	}

	for _, lib := range selected {
		if err := r.processLibrary(ctx, lib, &stats); err != nil {
			return stats, err
		}
		if r.capReached() {
			break
		}
	}
	return stats, nil
}

func (r *Runner) processLibrary(ctx context.Context, lib plex.Library, stats *RunStats) error {
	r.logger.Infof("Processing library: %s", lib.Title)

	var items []plex.Metadata
	var err error
	if lib.Type == "movie" {
		items, err = r.plex.MovieItems(ctx, lib.Key)
	} else {
		items, err = r.plex.Episodes(ctx, lib.Key)
	}
	if err != nil {
		return err
	}

	r.logger.Infof("Found %d items to scan", len(items))
	stats.Scanned += len(items)

	for i, entry := range items {
		if r.capReached() {
			stats.Skipped += len(items) - i
			r.logger.Infof("Reached download limit of %d. Skipping remaining %d items.",
				r.opts.MaxDownloads, len(items)-i)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.processItem(ctx, entry.RatingKey, stats); err != nil {
			if isFatal(err) {
				return err
			}
			r.logger.WithError(err).Errorf("Error processing item %d/%d", i+1, len(items))
			stats.Errors++
		}
	}
	return nil
}

func (r *Runner) processItem(ctx context.Context, ratingKey string, stats *RunStats) error {
	// Listings omit per-part streams, so fetch the item in full.
	detail, err := r.plex.ItemDetail(ctx, ratingKey)
	if err != nil {
		return err
	}
	item := NewMediaItem(detail)

	missing := MissingLanguages(item, r.opts.Languages)
	if len(missing) == 0 {
		r.logger.Debugf("Skipping %s - has all subtitles", item.DisplayTitle())
		return nil
	}

	if r.opts.Method == MethodLocal {
		if item.FilePath == "" {
			r.logger.Warnf("Could not get path for: %s", item.DisplayTitle())
			return nil
		}
		if _, err := os.Stat(item.FilePath); err != nil {
			r.logger.Warnf("File not found: %s", item.FilePath)
			return nil
		}
		missing = withoutOnDiskSubtitles(item.FilePath, missing)
		if len(missing) == 0 {
			return nil
		}
	}

	stats.NeedingSubtitles++
	r.logger.Infof("Downloading subtitles for: %s", item.DisplayTitle())
	r.logger.Infof("  Missing languages: %v", missing)

	if r.opts.Method == MethodPlex {
		return r.downloadViaPlex(ctx, item, missing, stats)
	}
	return r.downloadLocal(ctx, item, missing, stats)
}

func (r *Runner) downloadViaPlex(ctx context.Context, item MediaItem, missing []string, stats *RunStats) error {
	for _, lang := range missing {
		if r.capReached() {
			return nil
		}
		record, err := r.remote.Download(ctx, item, lang)
		if err != nil {
			if isFatal(err) {
				return err
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				r.logger.Infof("  Plex did not find %s subtitle", lang)
				continue
			}
			r.logger.WithError(err).Warnf("  Failed to download %s via Plex", lang)
			stats.Errors++
			continue
		}
		r.report.Add(*record)
		stats.Downloaded++
	}
	return nil
}

func (r *Runner) downloadLocal(ctx context.Context, item MediaItem, missing []string, stats *RunStats) error {
	r.logger.Infof("  Searching for subtitles...")
	candidates, err := r.matcher.Search(ctx, item, missing)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		r.logger.Infof("  No subtitles found")
		return nil
	}
	r.logger.Infof("  Found %d subtitle option(s)", len(candidates))

	for _, lang := range missing {
		if r.capReached() {
			return nil
		}
		best := SelectBest(candidates, lang)
		if best == nil {
			r.logger.Infof("  No %s subtitles found", lang)
			continue
		}

		r.logger.Infof("  Downloading %s subtitle (Rating: %.1f, Downloads: %d)...",
			lang, best.Rating, best.DownloadCount)
		record, err := r.local.Download(ctx, item, *best)
		if err != nil {
			if isFatal(err) {
				return err
			}
			r.logger.WithError(err).Warnf("  Failed to download %s subtitle", lang)
			stats.Errors++
			continue
		}
		r.report.Add(*record)
		stats.Downloaded++
	}
	return nil
}

func (r *Runner) capReached() bool {
	return r.opts.MaxDownloads > 0 && r.report.Len() >= r.opts.MaxDownloads
}

// withoutOnDiskSubtitles drops languages that already have a subtitle file
// next to the media file, keeping order.
func withoutOnDiskSubtitles(mediaPath string, langs []string) []string {
	var out []string
	for _, lang := range langs {
		if fileops.SubtitleExists(mediaPath, lang) {
			continue
		}
		out = append(out, lang)
	}
	return out
}

// isFatal reports whether an error must abort the whole run rather than
// skip the current item.
func isFatal(err error) bool {
	return errors.Is(err, apperrors.ErrConfiguration) ||
		errors.Is(err, apperrors.ErrConnection) ||
		errors.Is(err, apperrors.ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
