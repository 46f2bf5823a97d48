package http

import (
	"context"

	"github.com/onmir/booktracker/internal/cloudsync"
	"github.com/onmir/booktracker/internal/covers"
	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/googlebooks"
	"github.com/onmir/booktracker/internal/tasks"
)

// SyncRunner triggers a replication run.
type SyncRunner interface {
	RunOnce(ctx context.Context) (cloudsync.Result, error)
}

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional dependencies left nil disable their endpoints.
type RouterConfig struct {
	Manager *database.ContextManager
	Catalog googlebooks.Searcher

	// Optional
	CoverCache *covers.Cache
	TaskClient *tasks.Client
	Replicator SyncRunner

	SearchPageSize int
	Version        string
}
