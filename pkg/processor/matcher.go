package processor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"

	"github.com/angelospk/plexsubs/pkg/core/fileops"
	"github.com/angelospk/plexsubs/pkg/core/opensubtitles"
)

// Matcher turns a media item into OpenSubtitles candidates and selects the
// best one per language.
type Matcher struct {
	provider SubtitleProvider
	logger   *log.Logger
}

// NewMatcher creates a Matcher backed by the given subtitle provider.
func NewMatcher(provider SubtitleProvider, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New()
	}
	return &Matcher{provider: provider, logger: logger}
}

// Search queries OpenSubtitles for all requested languages at once and
// returns the results as candidates in API order. Identification prefers the
// IMDb ID, then the TMDB ID, then a title query; when the item carries no
// usable title the release name parsed from the filename fills in. The OSDb
// moviehash is attached whenever the media file is locally readable.
// An empty result is not an error.
func (m *Matcher) Search(ctx context.Context, item MediaItem, langs []string) ([]SubtitleCandidate, error) {
	params := opensubtitles.SearchSubtitlesParams{
		Languages: opensubtitles.String(strings.Join(langs, ",")),
	}

	switch {
	case item.IMDbID != "":
		if id, err := strconv.Atoi(item.IMDbID); err == nil {
			params.IMDbID = opensubtitles.Int(id)
		}
	case item.TMDBID != "":
		if id, err := strconv.Atoi(item.TMDBID); err == nil {
			params.TMDBID = opensubtitles.Int(id)
		}
	}

	if params.IMDbID == nil && params.TMDBID == nil {
		query := item.Title
		if item.IsEpisode() {
			query = item.ShowTitle
		}
		if query == "" && item.FilePath != "" {
			// Last resort: parse the release name out of the filename.
			if parsed, err := ptn.Parse(filepath.Base(item.FilePath)); err == nil && parsed.Title != "" {
				query = parsed.Title
				if parsed.Year > 0 && !item.IsEpisode() {
					params.Year = opensubtitles.Int(parsed.Year)
				}
			}
		}
		if query == "" {
			m.logger.Warnf("  No usable identifier for %s, skipping search", item.DisplayTitle())
			return nil, nil
		}
		params.Query = opensubtitles.String(query)
		if item.Year > 0 && !item.IsEpisode() && params.Year == nil {
			params.Year = opensubtitles.Int(item.Year)
		}
	}

	if item.IsEpisode() {
		params.SeasonNumber = opensubtitles.Int(item.Season)
		params.EpisodeNumber = opensubtitles.Int(item.Episode)
	}

	if item.FilePath != "" {
		if _, err := os.Stat(item.FilePath); err == nil {
			if hash, size, err := fileops.CalculateOSDbHash(item.FilePath); err == nil {
				params.Moviehash = opensubtitles.String(hash)
				params.MovieByteSize = opensubtitles.Int64(size)
			} else {
				m.logger.Debugf("  Moviehash unavailable for %s: %v", item.FilePath, err)
			}
		}
	}

	resp, err := m.provider.SearchSubtitles(ctx, params)
	if err != nil {
		return nil, err
	}

	candidates := make([]SubtitleCandidate, 0, len(resp.Data))
	for _, sub := range resp.Data {
		attrs := sub.Attributes
		if len(attrs.Files) == 0 || attrs.Files[0].FileID == 0 {
			continue
		}
		uploader := "Unknown"
		if attrs.Uploader.Name != nil && *attrs.Uploader.Name != "" {
			uploader = *attrs.Uploader.Name
		}
		release := attrs.Release
		if release == "" {
			release = "Unknown"
		}
		candidates = append(candidates, SubtitleCandidate{
			Language:      string(attrs.Language),
			Rating:        attrs.Ratings,
			DownloadCount: attrs.DownloadCount,
			Release:       release,
			Uploader:      uploader,
			FileID:        attrs.Files[0].FileID,
			FileName:      attrs.Files[0].FileName,
		})
	}
	return candidates, nil
}

// SelectBest picks the best candidate for a language: highest rating first,
// ties broken by download count, remaining ties by original API order.
// Returns nil when no candidate matches the language.
func SelectBest(candidates []SubtitleCandidate, lang string) *SubtitleCandidate {
	var matching []SubtitleCandidate
	for _, c := range candidates {
		if c.Language == lang {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return nil
	}

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].Rating != matching[j].Rating {
			return matching[i].Rating > matching[j].Rating
		}
		return matching[i].DownloadCount > matching[j].DownloadCount
	})

	best := matching[0]
	return &best
}
