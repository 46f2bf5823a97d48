// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Record Store
//
// There is no repository interface. Interactors in internal/domain take a
// *database.ContextManager and run their work through PerformAndSave or
// PerformQuery; see internal/database/perform.go.
//
// ## External Service Interfaces
//
//   - Searcher: Google Books volume search (internal/googlebooks/paginator.go)
//
// ## Background Work Interfaces
//
//   - CoverFetcher: downloads a cover into the local cache (internal/tasks/prefetch_cover.go)
//   - CoverEnqueuer: schedules a cover download (internal/tasks/watch.go)
//   - CoverInvalidator: drops cached covers of a deleted book (internal/tasks/watch.go)
//   - Runner: one replication pass, driven by the cron scheduler (internal/cloudsync/scheduler.go)
//   - SyncRunner: the same pass behind POST /api/sync/run (internal/http/config.go)
//
// # Adding a New Interactor
//
// Add a request type with validate tags and an Execute method in the
// matching internal/domain package:
//
//	type FinishRequest struct {
//		BookID uint `json:"book_id" validate:"required"`
//	}
//
// Validate with domain.Validate, then mutate inside one unit of work:
//
//	return uc.manager.PerformAndSave(ctx, func(s *database.Session) error {
//		b, err := s.ResolveBook(req.BookID)
//		if err != nil {
//			return err
//		}
//		b.Status = entities.BookStatusCompleted
//		return nil
//	})
//
// Expose it through a controller in internal/http and map its errors with
// respondDomainError.
//
// See checks.go for compile-time verification of implementations.
package interfaces
