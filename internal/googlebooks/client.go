package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/books/v1"
	DefaultMaxResults = 20
	// MaxResultsLimit is the largest page the volumes endpoint serves.
	MaxResultsLimit = 40
)

type OrderBy string

const (
	OrderByRelevance OrderBy = "relevance"
	OrderByNewest    OrderBy = "newest"
)

// Config holds the client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SearchRequest describes one page of a volume search.
type SearchRequest struct {
	Query      string
	StartIndex int
	OrderBy    OrderBy
	MaxResults int
}

// Client queries the Google Books volumes API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client; zero config fields take their defaults.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// SearchBooks fetches one page of volumes matching the query.
func (c *Client) SearchBooks(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	searchURL, err := c.searchURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "BookTracker/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UnexpectedResponseError{StatusCode: resp.StatusCode}
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if isCancellation(ctx, err) {
			return nil, ErrCancelled
		}
		return nil, &DecodingError{Err: err}
	}

	return &result, nil
}

func (c *Client) searchURL(req SearchRequest) (string, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", fmt.Errorf("%w: empty query", ErrInvalidRequest)
	}
	if req.StartIndex < 0 {
		return "", fmt.Errorf("%w: negative start index", ErrInvalidRequest)
	}

	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxResultsLimit {
		return "", fmt.Errorf("%w: max results must be between 1 and %d", ErrInvalidRequest, MaxResultsLimit)
	}

	orderBy := req.OrderBy
	if orderBy == "" {
		orderBy = OrderByRelevance
	}

	u, err := url.Parse(c.baseURL + "/volumes")
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: base URL %q", ErrInvalidRequest, c.baseURL)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(req.StartIndex))
	params.Set("orderBy", string(orderBy))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if isCancellation(ctx, err) {
		return ErrCancelled
	}
	return &UnderlyingError{Err: err}
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}
