package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onmir/booktracker/internal/cloudsync"
	"github.com/onmir/booktracker/internal/database"
	dbsync "github.com/onmir/booktracker/internal/database/sync"
	"github.com/onmir/booktracker/internal/googlebooks"
)

type fakeCatalog struct {
	resp *googlebooks.SearchResponse
	err  error
	last googlebooks.SearchRequest
}

func (f *fakeCatalog) SearchBooks(ctx context.Context, req googlebooks.SearchRequest) (*googlebooks.SearchResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeSyncRunner struct {
	result cloudsync.Result
	err    error
	calls  int
}

func (f *fakeSyncRunner) RunOnce(ctx context.Context) (cloudsync.Result, error) {
	f.calls++
	return f.result, f.err
}

func setupRouter(t *testing.T, catalog googlebooks.Searcher, runner SyncRunner) (*gin.Engine, *database.ContextManager) {
	t.Helper()
	m := setupManager(t)
	router := NewRouter(RouterConfig{
		Manager:        m,
		Catalog:        catalog,
		Replicator:     runner,
		SearchPageSize: 2,
		Version:        "test",
	})
	return router, m
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createBookViaAPI(t *testing.T, router *gin.Engine, title string) uint {
	t.Helper()
	w := doJSON(t, router, "POST", "/api/books", gin.H{"title": title, "page_count": 300})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(t, w)["book_id"].(float64))
}

func TestRouter_Ping(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)

	w := doJSON(t, router, "GET", "/ping", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestBooksAPI_CreateAndList(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)

	createBookViaAPI(t, router, "Dune")

	w := doJSON(t, router, "GET", "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["count"])

	w = doJSON(t, router, "GET", "/api/books?status=none", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = doJSON(t, router, "GET", "/api/books?status=READING", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestBooksAPI_CreateRejectsInvalidRequest(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)

	w := doJSON(t, router, "POST", "/api/books", gin.H{"title": "", "rating": 9})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestBooksAPI_ListRejectsUnknownStatus(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)

	w := doJSON(t, router, "GET", "/api/books?status=SHELVED", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksAPI_DetailAndDelete(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)
	id := createBookViaAPI(t, router, "Dune")

	w := doJSON(t, router, "POST", fmt.Sprintf("/api/books/%d/quotes", id), gin.H{"content": "Fear is the mind-killer.", "page": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/books/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["quote_count"])

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/books/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["deleted_quotes"])

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/books/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksAPI_ImportIsIdempotent(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)
	volume := googlebooks.Volume{
		ID: "zyTCAlFPjgYC",
		VolumeInfo: googlebooks.VolumeInfo{
			Title:     "The Google Story",
			Authors:   []string{"David A. Vise"},
			PageCount: 207,
		},
	}

	w := doJSON(t, router, "POST", "/api/books/import", volume)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode(t, w)
	assert.Equal(t, true, first["created"])

	w = doJSON(t, router, "POST", "/api/books/import", volume)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.Equal(t, false, second["created"])
	assert.Equal(t, first["book_id"], second["book_id"])
}

func TestQuotesAPI_Lifecycle(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)
	id := createBookViaAPI(t, router, "Dune")

	w := doJSON(t, router, "POST", fmt.Sprintf("/api/books/%d/quotes", id), gin.H{"content": "  ", "page": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/books/999/quotes", gin.H{"content": "orphan", "page": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/books/%d/quotes", id), gin.H{"content": "Fear is the mind-killer.", "page": 8})
	require.Equal(t, http.StatusCreated, w.Code)
	quoteID := uint(decode(t, w)["quote_id"].(float64))

	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/quotes/%d", quoteID), gin.H{"content": "I must not fear.", "page": 9})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/books/%d/quotes", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "I must not fear.")

	w = doJSON(t, router, "DELETE", "/api/quotes", gin.H{"quote_ids": []uint{quoteID, 999}})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, []any{float64(quoteID)}, resp["deleted"])
	assert.Equal(t, []any{float64(999)}, resp["missing"])

	w = doJSON(t, router, "DELETE", "/api/quotes", gin.H{"quote_ids": []uint{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadingLogsAPI_Lifecycle(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)
	id := createBookViaAPI(t, router, "Dune")

	w := doJSON(t, router, "POST", fmt.Sprintf("/api/books/%d/logs", id), gin.H{"start_page": 50, "end_page": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/books/%d/logs", id), gin.H{"start_page": 10, "end_page": 50, "reading_seconds": 1800})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	logID := uint(decode(t, w)["log_id"].(float64))

	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/logs/%d", logID), gin.H{"start_page": 10, "end_page": 60, "reading_seconds": 2400})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/books/%d/logs", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(50), resp["pages_read"])
	assert.Equal(t, float64(2400), resp["reading_seconds"])

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/logs/%d", logID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/logs/%d", logID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchAPI(t *testing.T) {
	t.Run("returns a page and forwards paging", func(t *testing.T) {
		catalog := &fakeCatalog{resp: &googlebooks.SearchResponse{
			TotalItems: 5,
			Items: []googlebooks.Volume{
				{ID: "a", VolumeInfo: googlebooks.VolumeInfo{Title: "Dune"}},
				{ID: "b", VolumeInfo: googlebooks.VolumeInfo{Title: "Dune Messiah"}},
			},
		}}
		router, _ := setupRouter(t, catalog, nil)

		w := doJSON(t, router, "GET", "/api/search?q=dune&start=2&order=newest", nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, float64(5), resp["total_items"])
		assert.Equal(t, float64(4), resp["next_start"])
		assert.Equal(t, true, resp["has_more"])
		assert.Equal(t, "dune", catalog.last.Query)
		assert.Equal(t, 2, catalog.last.StartIndex)
		assert.Equal(t, googlebooks.OrderByNewest, catalog.last.OrderBy)
		assert.Equal(t, 2, catalog.last.MaxResults)
	})

	t.Run("requires a query", func(t *testing.T) {
		router, _ := setupRouter(t, &fakeCatalog{}, nil)

		w := doJSON(t, router, "GET", "/api/search?q=%20", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		router, _ := setupRouter(t, &fakeCatalog{}, nil)

		w := doJSON(t, router, "GET", "/api/search?q=dune&order=popular", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cancellation is answered silently", func(t *testing.T) {
		router, _ := setupRouter(t, &fakeCatalog{err: googlebooks.ErrCancelled}, nil)

		w := doJSON(t, router, "GET", "/api/search?q=dune", nil)

		assert.Equal(t, StatusClientClosedRequest, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("catalog failure is a bad gateway", func(t *testing.T) {
		router, _ := setupRouter(t, &fakeCatalog{err: &googlebooks.UnexpectedResponseError{StatusCode: 429}}, nil)

		w := doJSON(t, router, "GET", "/api/search?q=dune", nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestSyncAPI(t *testing.T) {
	t.Run("reports the run result", func(t *testing.T) {
		runner := &fakeSyncRunner{result: cloudsync.Result{Batches: 1, Records: 3, LastSeq: 7}}
		router, _ := setupRouter(t, nil, runner)

		w := doJSON(t, router, "POST", "/api/sync/run", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(3), decode(t, w)["records"])
		assert.Equal(t, 1, runner.calls)
	})

	t.Run("conflicts with a running sync", func(t *testing.T) {
		runner := &fakeSyncRunner{err: fmt.Errorf("replicate: %w", dbsync.ErrAlreadyRunning)}
		router, _ := setupRouter(t, nil, runner)

		w := doJSON(t, router, "POST", "/api/sync/run", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestRouter_OptionalEndpointsAreDisabled(t *testing.T) {
	router, _ := setupRouter(t, nil, nil)

	for _, path := range []string{"/api/search?q=dune", "/api/tasks/abc"} {
		w := doJSON(t, router, "GET", path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
