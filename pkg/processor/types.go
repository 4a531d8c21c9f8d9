package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/angelospk/plexsubs/pkg/core/language"
	"github.com/angelospk/plexsubs/pkg/core/opensubtitles"
	"github.com/angelospk/plexsubs/pkg/core/plex"
)

// SubtitleProvider is the slice of the OpenSubtitles client the processor
// consumes: search, download link request and payload fetch.
type SubtitleProvider interface {
	SearchSubtitles(ctx context.Context, params opensubtitles.SearchSubtitlesParams) (*opensubtitles.SearchSubtitlesResponse, error)
	Download(ctx context.Context, params opensubtitles.DownloadRequest) (*opensubtitles.DownloadResponse, error)
	DownloadFile(ctx context.Context, link string) ([]byte, error)
}

// LibraryBrowser is the slice of the Plex client the processor consumes.
type LibraryBrowser interface {
	Libraries(ctx context.Context) ([]plex.Library, error)
	MovieItems(ctx context.Context, sectionKey string) ([]plex.Metadata, error)
	Episodes(ctx context.Context, sectionKey string) ([]plex.Metadata, error)
	ItemDetail(ctx context.Context, ratingKey string) (*plex.Metadata, error)
	SearchSubtitles(ctx context.Context, ratingKey, lang string) ([]plex.SubtitleOption, error)
	ApplySubtitle(ctx context.Context, ratingKey, streamKey string) error
}

var (
	_ SubtitleProvider = (*opensubtitles.Client)(nil)
	_ LibraryBrowser   = (*plex.Client)(nil)
)

// Media types as Plex reports them.
const (
	MediaTypeMovie   = "movie"
	MediaTypeEpisode = "episode"
)

// Download methods.
const (
	MethodLocal = "local"
	MethodPlex  = "plex"
)

// MediaItem is an immutable per-run snapshot of a Plex library item with
// everything the workflow needs: identity, file location and the normalized
// set of subtitle languages already present.
type MediaItem struct {
	RatingKey         string
	Title             string
	Year              int
	Type              string // MediaTypeMovie or MediaTypeEpisode
	ShowTitle         string // Episodes only
	Season            int    // Episodes only
	Episode           int    // Episodes only
	FilePath          string
	FileSize          int64
	ExistingLanguages map[string]bool // Normalized 2-letter codes
	IMDbID            string
	TMDBID            string
}

// NewMediaItem builds a MediaItem from full Plex item metadata. Stream
// language codes are normalized to 2-letter form so they compare against
// requested languages.
func NewMediaItem(meta *plex.Metadata) MediaItem {
	existing := make(map[string]bool)
	for _, stream := range meta.SubtitleStreams() {
		if code := language.Normalize(stream.LanguageCode); code != "" {
			existing[code] = true
		}
	}
	return MediaItem{
		RatingKey:         meta.RatingKey,
		Title:             meta.Title,
		Year:              meta.Year,
		Type:              meta.Type,
		ShowTitle:         meta.GrandparentTitle,
		Season:            meta.ParentIndex,
		Episode:           meta.Index,
		FilePath:          meta.FilePath(),
		FileSize:          meta.FileSize(),
		ExistingLanguages: existing,
		IMDbID:            meta.IMDbID(),
		TMDBID:            meta.TMDBID(),
	}
}

// IsEpisode reports whether the item is a TV episode.
func (m MediaItem) IsEpisode() bool {
	return m.Type == MediaTypeEpisode
}

// DisplayTitle returns the item name used in logs and reports:
// the title for movies, "Show - S01E02 - Title" for episodes.
func (m MediaItem) DisplayTitle() string {
	if m.IsEpisode() {
		return fmt.Sprintf("%s - S%02dE%02d - %s", m.ShowTitle, m.Season, m.Episode, m.Title)
	}
	return m.Title
}

// SubtitleCandidate is one OpenSubtitles search result reduced to the fields
// selection and reporting need. Discarded after the best one is picked.
type SubtitleCandidate struct {
	Language      string
	Rating        float64
	DownloadCount int
	Release       string
	Uploader      string
	FileID        int
	FileName      string
}

// DownloadRecord is one successfully acquired subtitle. Records exist only
// for completed acquisitions: a failed file write or an unconfirmed agent
// download never produces one.
type DownloadRecord struct {
	MediaTitle    string
	MediaType     string
	Language      string
	Rating        float64
	DownloadCount int
	Release       string
	Uploader      string
	SubtitleFile  string
	Method        string
	Timestamp     time.Time
}

// RunStats summarizes one runner pass over the library.
type RunStats struct {
	Scanned          int
	NeedingSubtitles int
	Downloaded       int
	Skipped          int // Items left unprocessed once the download cap was hit
	Errors           int
}
