package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/angelospk/plexsubs/internal/constants"
	"github.com/angelospk/plexsubs/internal/httpclient"
	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

// Config holds the configuration for the OpenSubtitles client.
type Config struct {
	ApiKey    string
	UserAgent string
	BaseURL   string // Optional: Override default base URL
}

// Client is the OpenSubtitles API client used for search, download link
// requests and quota introspection.
type Client struct {
	config     Config
	httpClient *httpclient.Client
	mu         sync.RWMutex // Protects authToken
	authToken  *string
}

// NewClient creates a new OpenSubtitles API client.
func NewClient(config Config) (*Client, error) {
	if config.ApiKey == "" {
		return nil, fmt.Errorf("%w: OpenSubtitles API key is required", apperrors.ErrConfiguration)
	}
	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}

	baseURL := constants.OpenSubtitlesBaseURL
	if config.BaseURL != "" {
		if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
			return nil, fmt.Errorf("%w: invalid OpenSubtitles base URL: %v", apperrors.ErrConfiguration, err)
		}
		baseURL = config.BaseURL
	}

	headers := map[string]string{
		"Api-Key":    config.ApiKey,
		"User-Agent": config.UserAgent,
	}

	return &Client{
		config:     config,
		httpClient: httpclient.New(baseURL, headers, constants.RequestTimeout),
	}, nil
}

// Login authenticates with username and password and stores the JWT token
// for subsequent download requests.
func (c *Client) Login(ctx context.Context, params LoginRequest) (*LoginResponse, error) {
	var response LoginResponse
	err := c.httpClient.Post(ctx, "/login", params, &response)
	if err != nil {
		// Clear any potentially stale token if login fails
		c.setToken(nil)
		return nil, err
	}

	token := response.Token
	c.setToken(&token)
	return &response, nil
}

// Logout invalidates the current API token and clears it from the client.
func (c *Client) Logout(ctx context.Context) (*LogoutResponse, error) {
	var response LogoutResponse
	err := c.httpClient.Delete(ctx, "/logout", &response)
	if err != nil {
		// Keep the token; it might still be valid if the call failed.
		return nil, err
	}
	c.setToken(nil)
	return &response, nil
}

// GetUserInfo retrieves quota information for the authenticated user.
func (c *Client) GetUserInfo(ctx context.Context) (*GetUserInfoResponse, error) {
	var response GetUserInfoResponse
	if err := c.httpClient.Get(ctx, "/infos/user", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SearchSubtitles searches for subtitles based on the given criteria.
// A 406 from the API means no matches and yields an empty result, not an error.
func (c *Client) SearchSubtitles(ctx context.Context, params SearchSubtitlesParams) (*SearchSubtitlesResponse, error) {
	var response SearchSubtitlesResponse
	err := c.httpClient.Get(ctx, "/subtitles", params, &response)
	if err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 406 {
			return &SearchSubtitlesResponse{}, nil
		}
		return nil, err
	}
	return &response, nil
}

// Download requests a download link for a specific subtitle file.
// Requires authentication.
func (c *Client) Download(ctx context.Context, params DownloadRequest) (*DownloadResponse, error) {
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("%w: download requires login", apperrors.ErrUnauthorized)
	}
	var response DownloadResponse
	if err := c.httpClient.Post(ctx, "/download", params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// DownloadFile fetches the subtitle payload from the link returned by Download.
func (c *Client) DownloadFile(ctx context.Context, link string) ([]byte, error) {
	return c.httpClient.FetchURL(ctx, link)
}

// IsAuthenticated reports whether a login token is currently stored.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken != nil && *c.authToken != ""
}

func (c *Client) setToken(token *string) {
	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
	c.httpClient.SetAuthToken(token)
}
