package book

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

type ImportRequest struct {
	Book CreateRequest `json:"book"`
}

type ImportResponse struct {
	BookID  uint `json:"book_id"`
	Created bool `json:"created"`
}

// ImportBook adds a catalog book, or refreshes the catalog attributes of the
// library book with the same OriginalBookID. Status and rating are the
// user's and are never overwritten by an import.
type ImportBook struct {
	manager *database.ContextManager
}

func NewImportBook(manager *database.ContextManager) *ImportBook {
	return &ImportBook{manager: manager}
}

func (uc *ImportBook) Execute(ctx context.Context, req ImportRequest) (ImportResponse, error) {
	req.Book.Title = strings.TrimSpace(req.Book.Title)
	if err := domain.Validate(req); err != nil {
		return ImportResponse{}, err
	}
	if req.Book.OriginalBookID == "" {
		return ImportResponse{}, &domain.ValidationError{
			Fields: []domain.FieldError{{Field: "OriginalBookID", Rule: "required"}},
		}
	}

	return database.PerformAndSave(ctx, uc.manager, func(s *database.Session) (ImportResponse, error) {
		var existing entities.Book
		err := s.DB().Where("original_book_id = ?", req.Book.OriginalBookID).Order("id").First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			b := req.Book.toEntity()
			if err := s.Insert(b); err != nil {
				return ImportResponse{}, err
			}
			return ImportResponse{BookID: b.ID, Created: true}, nil
		}
		if err != nil {
			return ImportResponse{}, err
		}

		b, err := s.ResolveBook(existing.ID)
		if err != nil {
			return ImportResponse{}, err
		}
		b.Title = req.Book.Title
		b.Author = req.Book.Author
		b.ISBN = req.Book.ISBN
		b.ISBN13 = req.Book.ISBN13
		b.PageCount = req.Book.PageCount
		b.PublishedDate = req.Book.PublishedDate
		b.Publisher = req.Book.Publisher
		if req.Book.CoverImageURL != "" {
			b.CoverImageURL = req.Book.CoverImageURL
		}
		return ImportResponse{BookID: b.ID}, nil
	})
}
