package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBooks_BuildsQueryAndDecodes(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = map[string]string{
			"q":          r.URL.Query().Get("q"),
			"startIndex": r.URL.Query().Get("startIndex"),
			"orderBy":    r.URL.Query().Get("orderBy"),
			"maxResults": r.URL.Query().Get("maxResults"),
		}
		json.NewEncoder(w).Encode(SearchResponse{
			Kind:       "books#volumes",
			TotalItems: 1,
			Items: []Volume{{
				ID: "abc123",
				VolumeInfo: VolumeInfo{
					Title:     "Dune",
					Authors:   []string{"Frank Herbert"},
					PageCount: 412,
				},
			}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	resp, err := client.SearchBooks(context.Background(), SearchRequest{Query: "dune herbert"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"q":          "dune herbert",
		"startIndex": "0",
		"orderBy":    "relevance",
		"maxResults": "20",
	}, gotQuery)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Dune", resp.Items[0].VolumeInfo.Title)
	assert.Equal(t, 412, resp.Items[0].VolumeInfo.PageCount)
	assert.Equal(t, 1, resp.TotalItems)
}

func TestSearchBooks_PassesOrderAndAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "newest", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "40", r.URL.Query().Get("startIndex"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Write([]byte(`{"kind":"books#volumes","totalItems":0}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	resp, err := client.SearchBooks(context.Background(), SearchRequest{
		Query:      "go",
		StartIndex: 40,
		OrderBy:    OrderByNewest,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestSearchBooks_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		req     SearchRequest
	}{
		{"empty query", "https://example.com", SearchRequest{Query: "  "}},
		{"negative start", "https://example.com", SearchRequest{Query: "go", StartIndex: -1}},
		{"page too large", "https://example.com", SearchRequest{Query: "go", MaxResults: 41}},
		{"relative base", "not a url", SearchRequest{Query: "go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(Config{BaseURL: tt.baseURL})
			_, err := client.SearchBooks(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.False(t, IsCancelled(err))
		})
	}
}

func TestSearchBooks_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).SearchBooks(context.Background(), SearchRequest{Query: "go"})

	var statusErr *UnexpectedResponseError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestSearchBooks_DecodingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": "nope"`))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).SearchBooks(context.Background(), SearchRequest{Query: "go"})

	var decodeErr *DecodingError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestSearchBooks_CancelledInFlight(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(Config{BaseURL: server.URL}).SearchBooks(ctx, SearchRequest{Query: "go"})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.True(t, IsCancelled(err))
}

func TestSearchBooks_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: baseURL, Timeout: time.Second}).SearchBooks(context.Background(), SearchRequest{Query: "go"})

	var underlying *UnderlyingError
	require.ErrorAs(t, err, &underlying)
	assert.False(t, IsCancelled(err))
	assert.False(t, errors.Is(err, ErrInvalidRequest))
}
