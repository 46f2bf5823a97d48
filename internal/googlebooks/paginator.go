package googlebooks

import (
	"context"
	"log"
	"sync"
)

// prefetchThreshold is how close to the end of the loaded list a visible row
// must be before the next page is requested.
const prefetchThreshold = 5

// Searcher is the part of Client the paginator needs.
type Searcher interface {
	SearchBooks(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// Paginator accumulates search pages for one query at a time. Starting a
// different query discards everything loaded so far.
type Paginator struct {
	searcher Searcher
	pageSize int
	orderBy  OrderBy

	mu      sync.Mutex
	query   string
	loaded  []Volume
	total   int
	hasMore bool
	loading bool
	gen     int
}

func NewPaginator(searcher Searcher, pageSize int, orderBy OrderBy) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultMaxResults
	}
	return &Paginator{searcher: searcher, pageSize: pageSize, orderBy: orderBy, hasMore: true}
}

// Next loads the following page of query and returns the volumes it added.
// It returns nothing while another load is in flight or once the results
// are exhausted.
func (p *Paginator) Next(ctx context.Context, query string) ([]Volume, error) {
	p.mu.Lock()
	if query != p.query {
		p.resetLocked(query)
	}
	if p.loading || !p.hasMore {
		p.mu.Unlock()
		return nil, nil
	}
	p.loading = true
	gen := p.gen
	req := SearchRequest{
		Query:      query,
		StartIndex: len(p.loaded),
		OrderBy:    p.orderBy,
		MaxResults: p.pageSize,
	}
	p.mu.Unlock()

	resp, err := p.searcher.SearchBooks(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// A newer query replaced this one while the request was in flight.
		return nil, ErrCancelled
	}
	p.loading = false
	if err != nil {
		if IsCancelled(err) {
			log.Printf("[SEARCH] Search for %q cancelled", query)
		}
		return nil, err
	}

	p.loaded = append(p.loaded, resp.Items...)
	p.total = resp.TotalItems
	p.hasMore = len(resp.Items) == p.pageSize && len(p.loaded) < p.total
	return resp.Items, nil
}

// ShouldLoadMore reports whether showing the row at index warrants
// fetching the next page.
func (p *Paginator) ShouldLoadMore(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore && !p.loading && index >= len(p.loaded)-prefetchThreshold
}

// Reset clears the accumulated results.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked("")
}

func (p *Paginator) resetLocked(query string) {
	p.query = query
	p.loaded = nil
	p.total = 0
	p.hasMore = true
	p.loading = false
	p.gen++
}

func (p *Paginator) Volumes() []Volume {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Volume, len(p.loaded))
	copy(out, p.loaded)
	return out
}

func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Paginator) TotalItems() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
