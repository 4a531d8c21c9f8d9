package plex

import (
	"context"
	"fmt"
	"net/url"

	"github.com/angelospk/plexsubs/internal/constants"
	"github.com/angelospk/plexsubs/internal/httpclient"
	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

// plexTokenHeader is the standard header name for the Plex token.
const plexTokenHeader = "X-Plex-Token"

// Config holds the configuration for the Plex client.
type Config struct {
	URL   string // Server URL, e.g. http://localhost:32400
	Token string // X-Plex-Token value
}

// Client is a typed client for the subset of the Plex Media Server API this
// tool needs: library enumeration, item stream introspection and the
// server-side subtitle agent.
type Client struct {
	httpClient *httpclient.Client
}

// NewClient creates a new Plex API client.
func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("%w: Plex token is required", apperrors.ErrConfiguration)
	}
	baseURL := config.URL
	if baseURL == "" {
		baseURL = constants.DefaultPlexURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid Plex URL: %v", apperrors.ErrConfiguration, err)
	}

	headers := map[string]string{
		plexTokenHeader:  config.Token,
		"X-Plex-Product": "plexsubs",
	}
	return &Client{
		httpClient: httpclient.New(baseURL, headers, constants.RequestTimeout),
	}, nil
}

// Identity returns the server's name, version and platform.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	var envelope identityEnvelope
	if err := c.httpClient.Get(ctx, "/", nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.MediaContainer, nil
}

// Libraries lists all library sections on the server.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var envelope sectionsEnvelope
	if err := c.httpClient.Get(ctx, "/library/sections", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.MediaContainer.Directories, nil
}

type itemTypeParams struct {
	Type int `url:"type"`
}

// MovieItems lists the movies of a movie library section, in catalog order.
func (c *Client) MovieItems(ctx context.Context, sectionKey string) ([]Metadata, error) {
	return c.sectionItems(ctx, sectionKey, ItemTypeMovie)
}

// Episodes lists the episode leaves of a show library section, in catalog order.
func (c *Client) Episodes(ctx context.Context, sectionKey string) ([]Metadata, error) {
	return c.sectionItems(ctx, sectionKey, ItemTypeEpisode)
}

func (c *Client) sectionItems(ctx context.Context, sectionKey string, itemType int) ([]Metadata, error) {
	var envelope metadataEnvelope
	path := fmt.Sprintf("/library/sections/%s/all", sectionKey)
	if err := c.httpClient.Get(ctx, path, itemTypeParams{Type: itemType}, &envelope); err != nil {
		return nil, err
	}
	return envelope.MediaContainer.Metadata, nil
}

// ItemDetail fetches a single item with full stream detail. The /all listings
// omit per-part streams, so subtitle introspection goes through here.
func (c *Client) ItemDetail(ctx context.Context, ratingKey string) (*Metadata, error) {
	var envelope metadataEnvelope
	path := fmt.Sprintf("/library/metadata/%s", ratingKey)
	if err := c.httpClient.Get(ctx, path, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: item %s", apperrors.ErrNotFound, ratingKey)
	}
	return &envelope.MediaContainer.Metadata[0], nil
}

type subtitleSearchParams struct {
	Language string `url:"language"`
}

// SearchSubtitles asks the server's subtitle agent to search for subtitles
// for the item in the given language. Results are agent-ranked.
func (c *Client) SearchSubtitles(ctx context.Context, ratingKey, lang string) ([]SubtitleOption, error) {
	var envelope subtitleSearchEnvelope
	path := fmt.Sprintf("/library/metadata/%s/subtitles", ratingKey)
	if err := c.httpClient.Get(ctx, path, subtitleSearchParams{Language: lang}, &envelope); err != nil {
		return nil, err
	}
	return envelope.MediaContainer.Streams, nil
}

type applySubtitleParams struct {
	Key string `url:"key"`
}

// ApplySubtitle instructs the server to download and attach one of the agent
// search results (identified by its stream key) to the item.
func (c *Client) ApplySubtitle(ctx context.Context, ratingKey, streamKey string) error {
	path := fmt.Sprintf("/library/metadata/%s/subtitles", ratingKey)
	return c.httpClient.Put(ctx, path, applySubtitleParams{Key: streamKey}, nil)
}
