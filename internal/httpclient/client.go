package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-querystring/query"

	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

// APIError is returned for any non-2xx response. It carries enough context
// for callers to branch with errors.Is against the sentinel taxonomy and,
// for 429 responses, the server's Retry-After hint.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: status %d, body: %s", e.StatusCode, e.Body)
}

// Unwrap maps the HTTP status onto the application error taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return apperrors.ErrQuota
	case e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusNotAcceptable:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case e.StatusCode >= 500:
		return apperrors.ErrConnection
	default:
		return nil
	}
}

// Client manages making JSON HTTP requests against one API base URL.
// Static headers (Api-Key, User-Agent, X-Plex-Token, ...) are supplied by
// the owning API client; a Bearer token can be set after login.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	mu         sync.RWMutex // Protects token
	authToken  *string
}

// New creates a new internal HTTP client.
func New(baseURL string, headers map[string]string, timeout time.Duration) *Client {
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &Client{
		baseURL:    baseURL,
		headers:    copied,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAuthToken updates the Bearer token sent with subsequent requests.
// A nil token clears it.
func (c *Client) SetAuthToken(token *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// BaseURL returns the base URL requests are issued against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get makes a GET request. params may be nil or a struct with `url` tags.
func (c *Client) Get(ctx context.Context, path string, params interface{}, target interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, params, nil, target)
}

// Post makes a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, target interface{}) error {
	return c.doRequest(ctx, http.MethodPost, path, nil, body, target)
}

// Put makes a PUT request. params may be nil or a struct with `url` tags.
func (c *Client) Put(ctx context.Context, path string, params interface{}, target interface{}) error {
	return c.doRequest(ctx, http.MethodPut, path, params, nil, target)
}

// Delete makes a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, target interface{}) error {
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, target)
}

// FetchURL performs a plain GET against an absolute URL (e.g. a CDN download
// link) and returns the raw body. The client's static headers are not sent.
func (c *Client) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, body)
	}
	return body, nil
}

// doRequest performs the actual HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, params interface{}, body interface{}, target interface{}) error {
	c.mu.RLock()
	currentToken := c.authToken
	c.mu.RUnlock()

	fullURL, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	fullURL.Path += path // Assumes baseURL doesn't end with / and path starts with /

	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("failed to encode query parameters: %w", err)
		}
		fullURL.RawQuery = v.Encode()
	}

	var reqBody io.Reader
	var contentType string
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if currentToken != nil && *currentToken != "" {
		req.Header.Set("Authorization", "Bearer "+*currentToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConnection, err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, respBodyBytes)
	}

	if target != nil {
		if err := json.Unmarshal(respBodyBytes, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
