package plex

import "strings"

// Stream type discriminators used by the Plex API.
const (
	StreamTypeVideo    = 1
	StreamTypeAudio    = 2
	StreamTypeSubtitle = 3
)

// Item type filters for /library/sections/<key>/all queries.
const (
	ItemTypeMovie   = 1
	ItemTypeShow    = 2
	ItemTypeEpisode = 4
)

// Identity describes the Plex server answering at the configured URL.
type Identity struct {
	FriendlyName string `json:"friendlyName"`
	Version      string `json:"version"`
	Platform     string `json:"platform"`
}

// Library is one library section (a named collection of one media type).
type Library struct {
	Key   string `json:"key"`
	Type  string `json:"type"` // "movie", "show", "artist", "photo"
	Title string `json:"title"`
}

// GUID is an external identifier attached to an item, e.g. "imdb://tt1375666".
type GUID struct {
	ID string `json:"id"`
}

// Stream is a single media stream (video, audio or subtitle track).
type Stream struct {
	ID           int64  `json:"id"`
	StreamType   int    `json:"streamType"`
	Codec        string `json:"codec"`
	Language     string `json:"language"`
	LanguageCode string `json:"languageCode"`
	Key          string `json:"key"`
}

// Part is one physical file backing a media item.
type Part struct {
	Key     string   `json:"key"`
	File    string   `json:"file"`
	Size    int64    `json:"size"`
	Streams []Stream `json:"Stream"`
}

// Media groups the parts of one encode of an item.
type Media struct {
	ID    int64  `json:"id"`
	Parts []Part `json:"Part"`
}

// Metadata is a playable library item (movie or episode) as returned by the
// /library endpoints. Episode-only fields are zero for movies.
type Metadata struct {
	RatingKey        string  `json:"ratingKey"`
	Key              string  `json:"key"`
	Type             string  `json:"type"` // "movie", "episode"
	Title            string  `json:"title"`
	GrandparentTitle string  `json:"grandparentTitle"` // Show title (episodes)
	ParentIndex      int     `json:"parentIndex"`      // Season number (episodes)
	Index            int     `json:"index"`            // Episode number (episodes)
	Year             int     `json:"year"`
	Duration         int64   `json:"duration"` // Milliseconds
	GUIDs            []GUID  `json:"Guid"`
	Media            []Media `json:"Media"`
}

// FilePath returns the path of the item's first media part, or "".
func (m *Metadata) FilePath() string {
	if len(m.Media) > 0 && len(m.Media[0].Parts) > 0 {
		return m.Media[0].Parts[0].File
	}
	return ""
}

// FileSize returns the size of the item's first media part in bytes, or 0.
func (m *Metadata) FileSize() int64 {
	if len(m.Media) > 0 && len(m.Media[0].Parts) > 0 {
		return m.Media[0].Parts[0].Size
	}
	return 0
}

// SubtitleStreams returns the subtitle streams across all parts of the item.
func (m *Metadata) SubtitleStreams() []Stream {
	var subs []Stream
	for _, media := range m.Media {
		for _, part := range media.Parts {
			for _, stream := range part.Streams {
				if stream.StreamType == StreamTypeSubtitle {
					subs = append(subs, stream)
				}
			}
		}
	}
	return subs
}

// IMDbID extracts the IMDb identifier (digits only, no "tt" prefix) from the
// item's GUIDs, or "" when absent.
func (m *Metadata) IMDbID() string {
	for _, guid := range m.GUIDs {
		if strings.HasPrefix(guid.ID, "imdb://") {
			return strings.TrimPrefix(strings.TrimPrefix(guid.ID, "imdb://"), "tt")
		}
	}
	return ""
}

// TMDBID extracts the TMDB identifier from the item's GUIDs, or "".
func (m *Metadata) TMDBID() string {
	for _, guid := range m.GUIDs {
		if strings.HasPrefix(guid.ID, "tmdb://") {
			return strings.TrimPrefix(guid.ID, "tmdb://")
		}
	}
	return ""
}

// SubtitleOption is one agent search result from the server-side subtitle
// search (/library/metadata/<key>/subtitles).
type SubtitleOption struct {
	Key           string  `json:"key"`
	Title         string  `json:"title"`
	Codec         string  `json:"codec"`
	LanguageCode  string  `json:"languageCode"`
	ProviderTitle string  `json:"providerTitle"`
	SourceTitle   string  `json:"sourceTitle"`
	Score         float64 `json:"score"`
}

// --- Response envelopes ---

type identityEnvelope struct {
	MediaContainer Identity `json:"MediaContainer"`
}

type sectionsEnvelope struct {
	MediaContainer struct {
		Directories []Library `json:"Directory"`
	} `json:"MediaContainer"`
}

type metadataEnvelope struct {
	MediaContainer struct {
		Metadata []Metadata `json:"Metadata"`
	} `json:"MediaContainer"`
}

type subtitleSearchEnvelope struct {
	MediaContainer struct {
		Streams []SubtitleOption `json:"Stream"`
	} `json:"MediaContainer"`
}
