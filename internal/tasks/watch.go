package tasks

import (
	"context"
	"log"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/entities"
)

// CoverEnqueuer schedules cover downloads.
type CoverEnqueuer interface {
	EnqueueCoverPrefetch(bookID uint) error
}

// CoverInvalidator drops cached covers.
type CoverInvalidator interface {
	Invalidate(bookID uint) error
}

// WatchBooks follows committed changes until ctx is done or the store closes.
// Inserted or updated books get a cover prefetch, deleted ones lose their
// cached covers.
func WatchBooks(ctx context.Context, manager *database.ContextManager, enqueuer CoverEnqueuer, invalidator CoverInvalidator) {
	changes, cancel := manager.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-changes:
			if !ok {
				return
			}
			handleBookChanges(n, enqueuer, invalidator)
		}
	}
}

func handleBookChanges(n database.ChangeNotification, enqueuer CoverEnqueuer, invalidator CoverInvalidator) {
	for _, ref := range n.Changes {
		if ref.Entity != (entities.Book{}).TableName() {
			continue
		}
		switch ref.Op {
		case entities.ChangeOpInsert, entities.ChangeOpUpdate:
			if err := enqueuer.EnqueueCoverPrefetch(ref.ID); err != nil {
				log.Printf("[TASK ERROR] %v", err)
			}
		case entities.ChangeOpDelete:
			if invalidator == nil {
				continue
			}
			if err := invalidator.Invalidate(ref.ID); err != nil {
				log.Printf("[TASK ERROR] Invalidate cover of book %d: %v", ref.ID, err)
			}
		}
	}
}
