package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain/readinglog"
	"github.com/onmir/booktracker/internal/entities"
)

type ReadingLogsController struct {
	create *readinglog.CreateReadingLog
	update *readinglog.UpdateReadingLog
	remove *readinglog.DeleteReadingLog
	fetch  *readinglog.FetchReadingLogs
}

func NewReadingLogsController(manager *database.ContextManager) *ReadingLogsController {
	return &ReadingLogsController{
		create: readinglog.NewCreateReadingLog(manager),
		update: readinglog.NewUpdateReadingLog(manager),
		remove: readinglog.NewDeleteReadingLog(manager),
		fetch:  readinglog.NewFetchReadingLogs(manager),
	}
}

// ListLogs handles GET /api/books/:id/logs?limit=
func (lc *ReadingLogsController) ListLogs(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}

	resp, err := lc.fetch.Execute(c.Request.Context(), readinglog.FetchRequest{BookID: bookID, Limit: limit})
	if err != nil {
		respondDomainError(c, err, "list reading logs")
		return
	}
	if resp.Logs == nil {
		resp.Logs = []entities.ReadingLog{}
	}
	c.JSON(http.StatusOK, resp)
}

// CreateLog handles POST /api/books/:id/logs
func (lc *ReadingLogsController) CreateLog(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var entry readinglog.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	resp, err := lc.create.Execute(c.Request.Context(), readinglog.CreateRequest{BookID: bookID, Entry: entry})
	if err != nil {
		respondDomainError(c, err, "create reading log")
		return
	}
	respondCreated(c, resp)
}

// UpdateLog handles PUT /api/logs/:id
func (lc *ReadingLogsController) UpdateLog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var entry readinglog.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	if err := lc.update.Execute(c.Request.Context(), readinglog.UpdateRequest{LogID: id, Entry: entry}); err != nil {
		respondDomainError(c, err, "update reading log")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteLog handles DELETE /api/logs/:id
func (lc *ReadingLogsController) DeleteLog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := lc.remove.Execute(c.Request.Context(), readinglog.DeleteRequest{LogID: id}); err != nil {
		respondDomainError(c, err, "delete reading log")
		return
	}
	c.Status(http.StatusNoContent)
}
