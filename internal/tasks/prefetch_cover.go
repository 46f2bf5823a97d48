package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/entities"
)

// PrefetchCoverQueueName is the backlite queue cover downloads run on.
const PrefetchCoverQueueName = "prefetch_cover"

// PrefetchCoverTask downloads the cover of one book into the cover cache.
type PrefetchCoverTask struct {
	BookID uint `json:"book_id"`
}

func (t PrefetchCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        PrefetchCoverQueueName,
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CoverFetcher stores a cover locally and returns its path.
type CoverFetcher interface {
	Get(ctx context.Context, bookID uint, coverURL string) (string, error)
}

// PrefetchCoverProcessor resolves the book in a query session and fetches its
// cover. A book deleted before the task runs is not an error.
func PrefetchCoverProcessor(manager *database.ContextManager, covers CoverFetcher) backlite.QueueProcessor[PrefetchCoverTask] {
	return func(ctx context.Context, task PrefetchCoverTask) error {
		book, err := database.PerformQuery(ctx, manager, func(s *database.Session) (*entities.Book, error) {
			return s.ResolveBook(task.BookID)
		})
		if errors.Is(err, database.ErrNotFound) {
			log.Printf("[TASK] Book %d is gone, skipping cover", task.BookID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve book %d: %w", task.BookID, err)
		}

		if book.CoverImageURL == "" {
			return nil
		}

		path, err := covers.Get(ctx, book.ID, book.CoverImageURL)
		if err != nil {
			return err
		}
		log.Printf("[TASK] Cached cover for book %d (%s) at %s", book.ID, book.Title, path)
		return nil
	}
}

func NewPrefetchCoverQueue(manager *database.ContextManager, covers CoverFetcher) backlite.Queue {
	return backlite.NewQueue(PrefetchCoverProcessor(manager, covers))
}
