package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/covers"
	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/entities"
)

// CoversController serves book covers from the local cache.
type CoversController struct {
	cache   *covers.Cache
	manager *database.ContextManager
}

func NewCoversController(cache *covers.Cache, manager *database.ContextManager) *CoversController {
	return &CoversController{cache: cache, manager: manager}
}

// GetCover handles GET /api/books/:id/cover
// Falls back to redirecting to the remote image when it cannot be cached.
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	b, err := database.PerformQuery(c.Request.Context(), cc.manager, func(s *database.Session) (*entities.Book, error) {
		return s.ResolveBook(id)
	})
	if err != nil {
		respondDomainError(c, err, "cover lookup")
		return
	}
	if b.CoverImageURL == "" {
		respondNotFound(c, "cover")
		return
	}

	path, err := cc.cache.Get(c.Request.Context(), id, b.CoverImageURL)
	if err != nil || path == "" {
		if err != nil && !isCancellation(err) {
			log.Printf("Cover cache miss for book %d: %v", id, err)
		}
		c.Redirect(http.StatusTemporaryRedirect, b.CoverImageURL)
		return
	}

	c.File(path)
}
