// Package quote holds the interactors that edit the quotes saved from a book.
package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

type CreateRequest struct {
	BookID  uint   `json:"book_id" validate:"required"`
	Content string `json:"content" validate:"required"`
	Page    int64  `json:"page" validate:"gte=0"`
}

type CreateResponse struct {
	QuoteID uint `json:"quote_id"`
}

type CreateQuote struct {
	manager *database.ContextManager
}

func NewCreateQuote(manager *database.ContextManager) *CreateQuote {
	return &CreateQuote{manager: manager}
}

// Execute attaches a new quote to the book. The book must resolve in the
// same unit of work or nothing is written.
func (uc *CreateQuote) Execute(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := domain.Validate(req); err != nil {
		return CreateResponse{}, err
	}

	id, err := database.PerformAndSave(ctx, uc.manager, func(s *database.Session) (uint, error) {
		b, err := s.ResolveBook(req.BookID)
		if err != nil {
			return 0, err
		}
		q := &entities.Quote{BookID: b.ID, Content: req.Content, Page: req.Page}
		if err := s.Insert(q); err != nil {
			return 0, err
		}
		return q.ID, nil
	})
	if err != nil {
		return CreateResponse{}, err
	}
	return CreateResponse{QuoteID: id}, nil
}

type UpdateRequest struct {
	QuoteID uint   `json:"quote_id" validate:"required"`
	Content string `json:"content" validate:"required"`
	Page    int64  `json:"page" validate:"gte=0"`
}

type UpdateQuote struct {
	manager *database.ContextManager
}

func NewUpdateQuote(manager *database.ContextManager) *UpdateQuote {
	return &UpdateQuote{manager: manager}
}

// Execute changes the quote in place. Only the fields that differ are
// written, so a concurrent edit of the other field is kept.
func (uc *UpdateQuote) Execute(ctx context.Context, req UpdateRequest) error {
	req.Content = strings.TrimSpace(req.Content)
	if err := domain.Validate(req); err != nil {
		return err
	}

	return uc.manager.PerformAndSave(ctx, func(s *database.Session) error {
		q, err := s.ResolveQuote(req.QuoteID)
		if err != nil {
			return err
		}
		q.Content = req.Content
		q.Page = req.Page
		return nil
	})
}

type DeleteRequest struct {
	QuoteIDs []uint `json:"quote_ids" validate:"required,min=1,dive,required"`
}

// DeleteResponse lists what was removed. Ids that no longer resolve are
// reported in Missing instead of failing the request.
type DeleteResponse struct {
	Deleted []uint `json:"deleted"`
	Missing []uint `json:"missing,omitempty"`
}

type DeleteQuote struct {
	manager *database.ContextManager
}

func NewDeleteQuote(manager *database.ContextManager) *DeleteQuote {
	return &DeleteQuote{manager: manager}
}

func (uc *DeleteQuote) Execute(ctx context.Context, req DeleteRequest) (DeleteResponse, error) {
	if err := domain.Validate(req); err != nil {
		return DeleteResponse{}, err
	}

	return database.PerformAndSave(ctx, uc.manager, func(s *database.Session) (DeleteResponse, error) {
		var resp DeleteResponse
		seen := make(map[uint]bool, len(req.QuoteIDs))
		for _, id := range req.QuoteIDs {
			if seen[id] {
				continue
			}
			seen[id] = true

			q, err := s.ResolveQuote(id)
			if errors.Is(err, database.ErrNotFound) {
				resp.Missing = append(resp.Missing, id)
				continue
			}
			if err != nil {
				return DeleteResponse{}, err
			}
			if err := s.Delete(q); err != nil {
				return DeleteResponse{}, err
			}
			resp.Deleted = append(resp.Deleted, id)
		}
		return resp, nil
	})
}

type FetchRequest struct {
	BookID uint `json:"book_id" validate:"required"`
	Limit  int  `json:"limit" validate:"gte=0"`
}

type FetchResponse struct {
	Quotes []entities.Quote `json:"quotes"`
}

type FetchQuotes struct {
	manager *database.ContextManager
}

func NewFetchQuotes(manager *database.ContextManager) *FetchQuotes {
	return &FetchQuotes{manager: manager}
}

// Execute lists the book's quotes, highest page first.
func (uc *FetchQuotes) Execute(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	if err := domain.Validate(req); err != nil {
		return FetchResponse{}, err
	}

	quotes, err := database.PerformQuery(ctx, uc.manager, func(s *database.Session) ([]entities.Quote, error) {
		if _, err := s.ResolveBook(req.BookID); err != nil {
			return nil, err
		}
		q := s.DB().Where("book_id = ?", req.BookID).Order("page DESC").Order("id DESC")
		if req.Limit > 0 {
			q = q.Limit(req.Limit)
		}
		var quotes []entities.Quote
		return quotes, q.Find(&quotes).Error
	})
	if err != nil {
		return FetchResponse{}, err
	}
	return FetchResponse{Quotes: quotes}, nil
}
