package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/googlebooks"
)

type SearchController struct {
	catalog  googlebooks.Searcher
	pageSize int
}

func NewSearchController(catalog googlebooks.Searcher, pageSize int) *SearchController {
	if pageSize <= 0 {
		pageSize = googlebooks.DefaultMaxResults
	}
	return &SearchController{catalog: catalog, pageSize: pageSize}
}

// SearchResponse is one page of catalog results. NextStart is the start
// index of the following page when HasMore is set.
type SearchResponse struct {
	Items      []googlebooks.Volume `json:"items"`
	TotalItems int                  `json:"total_items"`
	NextStart  int                  `json:"next_start"`
	HasMore    bool                 `json:"has_more"`
}

// Search handles GET /api/search?q=&start=&order=
func (sc *SearchController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}
	start, ok := parseIntQuery(c, "start", 0)
	if !ok {
		return
	}

	order := googlebooks.OrderBy(c.DefaultQuery("order", string(googlebooks.OrderByRelevance)))
	if order != googlebooks.OrderByRelevance && order != googlebooks.OrderByNewest {
		respondBadRequest(c, "order must be relevance or newest")
		return
	}

	resp, err := sc.catalog.SearchBooks(c.Request.Context(), googlebooks.SearchRequest{
		Query:      query,
		StartIndex: start,
		OrderBy:    order,
		MaxResults: sc.pageSize,
	})
	if err != nil {
		respondDomainError(c, err, "search")
		return
	}

	items := resp.Items
	if items == nil {
		items = []googlebooks.Volume{}
	}
	next := start + len(items)
	c.JSON(http.StatusOK, SearchResponse{
		Items:      items,
		TotalItems: resp.TotalItems,
		NextStart:  next,
		HasMore:    len(items) == sc.pageSize && next < resp.TotalItems,
	})
}
