// Package readinglog holds the interactors behind the reading record editor.
package readinglog

import (
	"context"
	"time"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

// Entry is the editable part of a reading log. A blank Note is stored as NULL.
type Entry struct {
	Date           *time.Time `json:"date"`
	StartPage      int64      `json:"start_page" validate:"gte=0"`
	EndPage        int64      `json:"end_page" validate:"gte=0,gtefield=StartPage"`
	ReadingSeconds float64    `json:"reading_seconds" validate:"gte=0"`
	Note           string     `json:"note"`
}

func (e Entry) apply(l *entities.ReadingLog) {
	l.Date = e.Date
	l.StartPage = e.StartPage
	l.EndPage = e.EndPage
	l.ReadingSeconds = e.ReadingSeconds
	l.Note = domain.NullableText(e.Note)
}

type CreateRequest struct {
	BookID uint  `json:"book_id" validate:"required"`
	Entry  Entry `json:"entry"`
}

type CreateResponse struct {
	LogID uint `json:"log_id"`
}

type CreateReadingLog struct {
	manager *database.ContextManager
}

func NewCreateReadingLog(manager *database.ContextManager) *CreateReadingLog {
	return &CreateReadingLog{manager: manager}
}

func (uc *CreateReadingLog) Execute(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	if err := domain.Validate(req); err != nil {
		return CreateResponse{}, err
	}

	id, err := database.PerformAndSave(ctx, uc.manager, func(s *database.Session) (uint, error) {
		b, err := s.ResolveBook(req.BookID)
		if err != nil {
			return 0, err
		}
		l := &entities.ReadingLog{BookID: b.ID}
		req.Entry.apply(l)
		if err := s.Insert(l); err != nil {
			return 0, err
		}
		return l.ID, nil
	})
	if err != nil {
		return CreateResponse{}, err
	}
	return CreateResponse{LogID: id}, nil
}

type UpdateRequest struct {
	LogID uint  `json:"log_id" validate:"required"`
	Entry Entry `json:"entry"`
}

type UpdateReadingLog struct {
	manager *database.ContextManager
}

func NewUpdateReadingLog(manager *database.ContextManager) *UpdateReadingLog {
	return &UpdateReadingLog{manager: manager}
}

func (uc *UpdateReadingLog) Execute(ctx context.Context, req UpdateRequest) error {
	if err := domain.Validate(req); err != nil {
		return err
	}

	return uc.manager.PerformAndSave(ctx, func(s *database.Session) error {
		l, err := s.ResolveReadingLog(req.LogID)
		if err != nil {
			return err
		}
		req.Entry.apply(l)
		return nil
	})
}

type DeleteRequest struct {
	LogID uint `json:"log_id" validate:"required"`
}

type DeleteReadingLog struct {
	manager *database.ContextManager
}

func NewDeleteReadingLog(manager *database.ContextManager) *DeleteReadingLog {
	return &DeleteReadingLog{manager: manager}
}

func (uc *DeleteReadingLog) Execute(ctx context.Context, req DeleteRequest) error {
	if err := domain.Validate(req); err != nil {
		return err
	}

	return uc.manager.PerformAndSave(ctx, func(s *database.Session) error {
		l, err := s.ResolveReadingLog(req.LogID)
		if err != nil {
			return err
		}
		return s.Delete(l)
	})
}

type FetchRequest struct {
	BookID uint `json:"book_id" validate:"required"`
	Limit  int  `json:"limit" validate:"gte=0"`
}

type FetchResponse struct {
	Logs           []entities.ReadingLog `json:"logs"`
	PagesRead      int64                 `json:"pages_read"`
	ReadingSeconds float64               `json:"reading_seconds"`
}

type FetchReadingLogs struct {
	manager *database.ContextManager
}

func NewFetchReadingLogs(manager *database.ContextManager) *FetchReadingLogs {
	return &FetchReadingLogs{manager: manager}
}

// Execute lists the book's logs, furthest start page first, with totals over
// the returned logs.
func (uc *FetchReadingLogs) Execute(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	if err := domain.Validate(req); err != nil {
		return FetchResponse{}, err
	}

	logs, err := database.PerformQuery(ctx, uc.manager, func(s *database.Session) ([]entities.ReadingLog, error) {
		if _, err := s.ResolveBook(req.BookID); err != nil {
			return nil, err
		}
		q := s.DB().Where("book_id = ?", req.BookID).Order("start_page DESC").Order("id DESC")
		if req.Limit > 0 {
			q = q.Limit(req.Limit)
		}
		var logs []entities.ReadingLog
		return logs, q.Find(&logs).Error
	})
	if err != nil {
		return FetchResponse{}, err
	}

	resp := FetchResponse{Logs: logs}
	for _, l := range logs {
		resp.PagesRead += l.PagesRead()
		resp.ReadingSeconds += l.ReadingSeconds
	}
	return resp, nil
}
