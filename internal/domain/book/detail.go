package book

import (
	"context"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/entities"
)

const (
	recentLogsLimit   = 3
	recentQuotesLimit = 5
)

type DetailRequest struct {
	BookID uint `json:"book_id" validate:"required"`
}

// DetailResponse is the book page: the book, its latest reading logs and
// quotes, and the reading totals.
type DetailResponse struct {
	Book                entities.Book         `json:"book"`
	RecentLogs          []entities.ReadingLog `json:"recent_logs"`
	HasMoreLogs         bool                  `json:"has_more_logs"`
	RecentQuotes        []entities.Quote      `json:"recent_quotes"`
	HasMoreQuotes       bool                  `json:"has_more_quotes"`
	TotalReadingSeconds float64               `json:"total_reading_seconds"`
	LogCount            int64                 `json:"log_count"`
	QuoteCount          int64                 `json:"quote_count"`
}

type FetchBookDetail struct {
	manager *database.ContextManager
}

func NewFetchBookDetail(manager *database.ContextManager) *FetchBookDetail {
	return &FetchBookDetail{manager: manager}
}

func (uc *FetchBookDetail) Execute(ctx context.Context, req DetailRequest) (DetailResponse, error) {
	if err := domain.Validate(req); err != nil {
		return DetailResponse{}, err
	}

	return database.PerformQuery(ctx, uc.manager, func(s *database.Session) (DetailResponse, error) {
		b, err := s.ResolveBook(req.BookID)
		if err != nil {
			return DetailResponse{}, err
		}
		resp := DetailResponse{Book: *b}

		db := s.DB()
		if err := db.Model(&entities.ReadingLog{}).Where("book_id = ?", b.ID).Count(&resp.LogCount).Error; err != nil {
			return DetailResponse{}, err
		}
		if err := db.Model(&entities.Quote{}).Where("book_id = ?", b.ID).Count(&resp.QuoteCount).Error; err != nil {
			return DetailResponse{}, err
		}

		err = db.Where("book_id = ?", b.ID).
			Order("start_page DESC").Order("id DESC").
			Limit(recentLogsLimit).
			Find(&resp.RecentLogs).Error
		if err != nil {
			return DetailResponse{}, err
		}
		err = db.Where("book_id = ?", b.ID).
			Order("page DESC").Order("id DESC").
			Limit(recentQuotesLimit).
			Find(&resp.RecentQuotes).Error
		if err != nil {
			return DetailResponse{}, err
		}

		err = db.Model(&entities.ReadingLog{}).
			Where("book_id = ?", b.ID).
			Select("COALESCE(SUM(reading_seconds), 0)").
			Scan(&resp.TotalReadingSeconds).Error
		if err != nil {
			return DetailResponse{}, err
		}

		resp.HasMoreLogs = resp.LogCount > recentLogsLimit
		resp.HasMoreQuotes = resp.QuoteCount > recentQuotesLimit
		return resp, nil
	})
}
