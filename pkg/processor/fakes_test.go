package processor

import (
	"context"

	"github.com/angelospk/plexsubs/pkg/core/opensubtitles"
	"github.com/angelospk/plexsubs/pkg/core/plex"
)

// fakeProvider is an in-memory SubtitleProvider for workflow tests.
type fakeProvider struct {
	searchResp   *opensubtitles.SearchSubtitlesResponse
	searchErr    error
	searchCalls  int
	lastParams   opensubtitles.SearchSubtitlesParams
	downloadResp *opensubtitles.DownloadResponse
	// downloadErrs is consumed one per Download call; nil entries succeed.
	downloadErrs  []error
	downloadCalls int
	fileContent   []byte
	fileErr       error
}

func (f *fakeProvider) SearchSubtitles(_ context.Context, params opensubtitles.SearchSubtitlesParams) (*opensubtitles.SearchSubtitlesResponse, error) {
	f.searchCalls++
	f.lastParams = params
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchResp == nil {
		return &opensubtitles.SearchSubtitlesResponse{}, nil
	}
	return f.searchResp, nil
}

func (f *fakeProvider) Download(context.Context, opensubtitles.DownloadRequest) (*opensubtitles.DownloadResponse, error) {
	call := f.downloadCalls
	f.downloadCalls++
	if call < len(f.downloadErrs) && f.downloadErrs[call] != nil {
		return nil, f.downloadErrs[call]
	}
	if f.downloadResp != nil {
		return f.downloadResp, nil
	}
	return &opensubtitles.DownloadResponse{Link: "https://dl.example.org/sub.srt", Remaining: 10}, nil
}

func (f *fakeProvider) DownloadFile(context.Context, string) ([]byte, error) {
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	if f.fileContent != nil {
		return f.fileContent, nil
	}
	return []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n"), nil
}

// fakeBrowser is an in-memory LibraryBrowser for workflow tests.
type fakeBrowser struct {
	libraries    []plex.Library
	librariesErr error
	movies       map[string][]plex.Metadata // Section key to items
	episodes     map[string][]plex.Metadata
	details      map[string]*plex.Metadata // Rating key to full item
	options      []plex.SubtitleOption
	applyErr     error
	appliedKeys  []string
	// detailsAfterApply, when set, replaces details once ApplySubtitle ran.
	detailsAfterApply map[string]*plex.Metadata
	applied           bool
}

func (f *fakeBrowser) Libraries(context.Context) ([]plex.Library, error) {
	if f.librariesErr != nil {
		return nil, f.librariesErr
	}
	return f.libraries, nil
}

func (f *fakeBrowser) MovieItems(_ context.Context, sectionKey string) ([]plex.Metadata, error) {
	return f.movies[sectionKey], nil
}

func (f *fakeBrowser) Episodes(_ context.Context, sectionKey string) ([]plex.Metadata, error) {
	return f.episodes[sectionKey], nil
}

func (f *fakeBrowser) ItemDetail(_ context.Context, ratingKey string) (*plex.Metadata, error) {
	if f.applied && f.detailsAfterApply != nil {
		if meta, ok := f.detailsAfterApply[ratingKey]; ok {
			return meta, nil
		}
	}
	return f.details[ratingKey], nil
}

func (f *fakeBrowser) SearchSubtitles(context.Context, string, string) ([]plex.SubtitleOption, error) {
	return f.options, nil
}

func (f *fakeBrowser) ApplySubtitle(_ context.Context, _ string, streamKey string) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = true
	f.appliedKeys = append(f.appliedKeys, streamKey)
	return nil
}

// movieMeta builds full movie metadata with existing subtitle streams.
func movieMeta(ratingKey, title, file string, subtitleLangs ...string) plex.Metadata {
	streams := make([]plex.Stream, 0, len(subtitleLangs))
	for i, lang := range subtitleLangs {
		streams = append(streams, plex.Stream{
			ID:           int64(i + 1),
			StreamType:   plex.StreamTypeSubtitle,
			Codec:        "srt",
			LanguageCode: lang,
		})
	}
	return plex.Metadata{
		RatingKey: ratingKey,
		Type:      "movie",
		Title:     title,
		Year:      2010,
		GUIDs:     []plex.GUID{{ID: "imdb://tt1375666"}},
		Media: []plex.Media{{
			Parts: []plex.Part{{File: file, Size: 4096, Streams: streams}},
		}},
	}
}

// candidate builds a SubtitleCandidate with sensible defaults.
func candidate(lang string, rating float64, downloads, fileID int) opensubtitles.Subtitle {
	return opensubtitles.Subtitle{
		Attributes: opensubtitles.SubtitleAttributes{
			Language:      opensubtitles.LanguageCode(lang),
			Ratings:       rating,
			DownloadCount: downloads,
			Release:       "Some.Movie.2010.1080p.BluRay.x264",
			Uploader:      opensubtitles.UploaderInfo{Name: opensubtitles.String("uploader")},
			Files:         []opensubtitles.SubtitleFile{{FileID: fileID, FileName: "sub.srt"}},
		},
	}
}
