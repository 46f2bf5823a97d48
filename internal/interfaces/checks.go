package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/onmir/booktracker/internal/cloudsync"
	"github.com/onmir/booktracker/internal/covers"
	"github.com/onmir/booktracker/internal/googlebooks"
	"github.com/onmir/booktracker/internal/http"
	"github.com/onmir/booktracker/internal/tasks"
)

// =============================================================================
// External Services
// =============================================================================

var _ googlebooks.Searcher = (*googlebooks.Client)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.CoverFetcher = (*covers.Cache)(nil)
var _ tasks.CoverInvalidator = (*covers.Cache)(nil)
var _ tasks.CoverEnqueuer = (*tasks.Client)(nil)

var _ cloudsync.Runner = (*cloudsync.Replicator)(nil)
var _ http.SyncRunner = (*cloudsync.Replicator)(nil)
