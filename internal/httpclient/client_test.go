package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

func TestStaticHeadersAndQueryEncoding(t *testing.T) {
	type params struct {
		Query string `url:"query"`
		Page  *int   `url:"page,omitempty"`
	}

	var gotHeader, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Api-Key")
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, map[string]string{"Api-Key": "k"}, time.Second)
	var target struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, client.Get(context.Background(), "/search", params{Query: "test"}, &target))

	assert.Equal(t, "k", gotHeader)
	assert.Equal(t, "query=test", gotQuery)
	assert.True(t, target.OK)
}

func TestAuthTokenIsSentAsBearer(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, nil, time.Second)
	token := "jwt"
	client.SetAuthToken(&token)
	require.NoError(t, client.Post(context.Background(), "/download", map[string]int{"file_id": 1}, nil))
	assert.Equal(t, "Bearer jwt", gotAuth)

	client.SetAuthToken(nil)
	require.NoError(t, client.Post(context.Background(), "/download", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestStatusTaxonomyMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusForbidden, apperrors.ErrQuota},
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusNotAcceptable, apperrors.ErrNotFound},
		{http.StatusTooManyRequests, apperrors.ErrRateLimited},
		{http.StatusBadGateway, apperrors.ErrConnection},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		client := New(server.URL, nil, time.Second)

		err := client.Get(context.Background(), "/", nil, nil)
		require.Error(t, err, "status %d", tt.status)
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		server.Close()
	}
}

func TestRetryAfterIsParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, nil, time.Second)
	err := client.Get(context.Background(), "/", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
}

func TestConnectionRefusedIsTyped(t *testing.T) {
	client := New("http://127.0.0.1:1", nil, 100*time.Millisecond)
	err := client.Get(context.Background(), "/", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConnection)
}

func TestFetchURLReturnsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Api-Key"), "static headers must not leak to CDN fetches")
		_, _ = w.Write([]byte("raw payload"))
	}))
	t.Cleanup(server.Close)

	client := New("http://unused.example", map[string]string{"Api-Key": "secret"}, time.Second)
	body, err := client.FetchURL(context.Background(), server.URL+"/file.srt")
	require.NoError(t, err)
	assert.Equal(t, "raw payload", string(body))
}
