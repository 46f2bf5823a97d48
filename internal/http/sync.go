package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	dbsync "github.com/onmir/booktracker/internal/database/sync"
)

type SyncController struct {
	runner SyncRunner
}

func NewSyncController(runner SyncRunner) *SyncController {
	return &SyncController{runner: runner}
}

// RunSync handles POST /api/sync/run
// Runs replication in the request and reports what was shipped.
func (sc *SyncController) RunSync(c *gin.Context) {
	result, err := sc.runner.RunOnce(c.Request.Context())
	if errors.Is(err, dbsync.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "sync already running", Code: "sync_running"})
		return
	}
	if err != nil {
		respondDomainError(c, err, "sync")
		return
	}
	c.JSON(http.StatusOK, result)
}
