// Package database provides the record store and the sessions that read and
// write it.
//
// # Architecture
//
//	database/
//	├── database.go      # Store location, connection setup, AutoMigrate
//	├── migrations.go    # Ordered schema stages applied after AutoMigrate
//	├── session.go       # Serial unit of work with field-level write-back
//	├── perform.go       # PerformAndSave / PerformQuery helpers
//	├── history.go       # Change history reads and commit notifications
//	└── sync/            # Replication cursor bookkeeping
//
// # Sessions
//
// The ContextManager owns one read-only main session and creates derived
// sessions for writes. Each session runs its work on a single goroutine:
//
//	m, err := database.Open(database.Options{ContainerDir: dir})
//
//	id, err := database.PerformAndSave(ctx, m, func(s *database.Session) (uint, error) {
//		b := &entities.Book{Title: "Dune"}
//		if err := s.Insert(b); err != nil {
//			return 0, err
//		}
//		return b.ID, nil
//	})
//
// Records obtained through Resolve inside PerformAndSave are tracked; Save
// writes only the columns whose values changed, so edits to different fields
// of the same record from two sessions are both kept.
//
// # Change History
//
// Every commit that touched a record appends a ChangeTransaction. Subscribe
// delivers a ChangeNotification per commit; ChangesSince pages through the
// stored history for replication.
//
// # Error Handling
//
// Lookups of missing records return *NotFoundError, which matches ErrNotFound:
//
//	b, err := s.ResolveBook(id)
//	if errors.Is(err, database.ErrNotFound) {
//		// handle missing book
//	}
package database
