// Package book holds the interactors for the user's library of books.
package book

import (
	"context"
	"strings"
	"time"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

// CreateRequest carries the attributes of a new book. Source defaults to
// google-books; an empty Status means the book has no status yet.
type CreateRequest struct {
	OriginalBookID string              `json:"original_book_id"`
	Title          string              `json:"title" validate:"required"`
	Author         string              `json:"author"`
	ISBN           string              `json:"isbn"`
	ISBN13         string              `json:"isbn13"`
	PageCount      int64               `json:"page_count" validate:"gte=0"`
	PublishedDate  *time.Time          `json:"published_date"`
	Publisher      string              `json:"publisher"`
	Rating         float64             `json:"rating" validate:"gte=0,lte=5"`
	Source         entities.BookSource `json:"source" validate:"omitempty,book_source"`
	Status         entities.BookStatus `json:"status" validate:"omitempty,book_status"`
	CoverImageURL  string              `json:"cover_image_url" validate:"omitempty,url"`
}

type CreateResponse struct {
	BookID uint `json:"book_id"`
}

type CreateBook struct {
	manager *database.ContextManager
}

func NewCreateBook(manager *database.ContextManager) *CreateBook {
	return &CreateBook{manager: manager}
}

// Execute inserts one book in a new unit of work.
func (uc *CreateBook) Execute(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := domain.Validate(req); err != nil {
		return CreateResponse{}, err
	}

	id, err := database.PerformAndSave(ctx, uc.manager, func(s *database.Session) (uint, error) {
		b := req.toEntity()
		if err := s.Insert(b); err != nil {
			return 0, err
		}
		return b.ID, nil
	})
	if err != nil {
		return CreateResponse{}, err
	}
	return CreateResponse{BookID: id}, nil
}

func (req CreateRequest) toEntity() *entities.Book {
	source := req.Source
	if source == "" {
		source = entities.DefaultBookSource
	}
	return &entities.Book{
		OriginalBookID: req.OriginalBookID,
		Title:          req.Title,
		Author:         req.Author,
		ISBN:           req.ISBN,
		ISBN13:         req.ISBN13,
		PageCount:      req.PageCount,
		PublishedDate:  req.PublishedDate,
		Publisher:      req.Publisher,
		Rating:         req.Rating,
		Source:         source,
		Status:         req.Status,
		CoverImageURL:  req.CoverImageURL,
	}
}
