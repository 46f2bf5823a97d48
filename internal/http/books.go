package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain/book"
	"github.com/onmir/booktracker/internal/entities"
	"github.com/onmir/booktracker/internal/googlebooks"
)

type BooksController struct {
	create *book.CreateBook
	fetch  *book.FetchBooks
	detail *book.FetchBookDetail
	remove *book.DeleteBook
	imp    *book.ImportBook
}

func NewBooksController(manager *database.ContextManager) *BooksController {
	return &BooksController{
		create: book.NewCreateBook(manager),
		fetch:  book.NewFetchBooks(manager),
		detail: book.NewFetchBookDetail(manager),
		remove: book.NewDeleteBook(manager),
		imp:    book.NewImportBook(manager),
	}
}

// ListBooks handles GET /api/books?status=&limit=
// status=none selects books without a status.
func (bc *BooksController) ListBooks(c *gin.Context) {
	var req book.FetchRequest

	if raw := c.Query("status"); raw != "" {
		status := entities.BookStatus("")
		if raw != "none" {
			parsed, ok := entities.ParseBookStatus(raw)
			if !ok {
				respondBadRequest(c, "invalid status")
				return
			}
			status = parsed
		}
		req.Status = &status
	}

	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	req.Limit = limit

	resp, err := bc.fetch.Execute(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "list books")
		return
	}
	books := resp.Books
	if books == nil {
		books = []entities.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req book.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	resp, err := bc.create.Execute(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "create book")
		return
	}
	respondCreated(c, resp)
}

// ImportBook handles POST /api/books/import with a catalog volume as body.
func (bc *BooksController) ImportBook(c *gin.Context) {
	var volume googlebooks.Volume
	if err := c.ShouldBindJSON(&volume); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	resp, err := bc.imp.Execute(c.Request.Context(), book.ImportRequest{Book: book.RequestFromVolume(volume)})
	if err != nil {
		respondDomainError(c, err, "import book")
		return
	}
	if resp.Created {
		respondCreated(c, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := bc.detail.Execute(c.Request.Context(), book.DetailRequest{BookID: id})
	if err != nil {
		respondDomainError(c, err, "book detail")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := bc.remove.Execute(c.Request.Context(), book.DeleteRequest{BookID: id})
	if err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, resp)
}
