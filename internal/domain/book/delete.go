package book

import (
	"context"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

type DeleteRequest struct {
	BookID uint `json:"book_id" validate:"required"`
}

type DeleteResponse struct {
	DeletedLogs   int `json:"deleted_logs"`
	DeletedQuotes int `json:"deleted_quotes"`
}

type DeleteBook struct {
	manager *database.ContextManager
}

func NewDeleteBook(manager *database.ContextManager) *DeleteBook {
	return &DeleteBook{manager: manager}
}

// Execute removes the book with its reading logs and quotes in one
// transaction, so the history lists every deleted record.
func (uc *DeleteBook) Execute(ctx context.Context, req DeleteRequest) (DeleteResponse, error) {
	if err := domain.Validate(req); err != nil {
		return DeleteResponse{}, err
	}

	return database.PerformAndSave(ctx, uc.manager, func(s *database.Session) (DeleteResponse, error) {
		b, err := s.ResolveBook(req.BookID)
		if err != nil {
			return DeleteResponse{}, err
		}

		var logs []entities.ReadingLog
		if err := s.DB().Where("book_id = ?", b.ID).Find(&logs).Error; err != nil {
			return DeleteResponse{}, err
		}
		for i := range logs {
			if err := s.Delete(&logs[i]); err != nil {
				return DeleteResponse{}, err
			}
		}

		var quotes []entities.Quote
		if err := s.DB().Where("book_id = ?", b.ID).Find(&quotes).Error; err != nil {
			return DeleteResponse{}, err
		}
		for i := range quotes {
			if err := s.Delete(&quotes[i]); err != nil {
				return DeleteResponse{}, err
			}
		}

		if err := s.Delete(b); err != nil {
			return DeleteResponse{}, err
		}
		return DeleteResponse{DeletedLogs: len(logs), DeletedQuotes: len(quotes)}, nil
	})
}
