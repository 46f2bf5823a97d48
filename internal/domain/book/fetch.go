package book

import (
	"context"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

// FetchRequest filters the library. A nil Status returns every book, a zero
// Limit returns all matches.
type FetchRequest struct {
	Status *entities.BookStatus `json:"status"`
	Limit  int                  `json:"limit" validate:"gte=0"`
}

type FetchResponse struct {
	Books []entities.Book `json:"books"`
}

type FetchBooks struct {
	manager *database.ContextManager
}

func NewFetchBooks(manager *database.ContextManager) *FetchBooks {
	return &FetchBooks{manager: manager}
}

func (uc *FetchBooks) Execute(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	if err := domain.Validate(req); err != nil {
		return FetchResponse{}, err
	}

	books, err := database.PerformQuery(ctx, uc.manager, func(s *database.Session) ([]entities.Book, error) {
		q := s.DB().Order("id")
		if req.Status != nil {
			if *req.Status == "" {
				q = q.Where("status IS NULL")
			} else {
				q = q.Where("status = ?", *req.Status)
			}
		}
		if req.Limit > 0 {
			q = q.Limit(req.Limit)
		}
		var books []entities.Book
		return books, q.Find(&books).Error
	})
	if err != nil {
		return FetchResponse{}, err
	}
	return FetchResponse{Books: books}, nil
}
