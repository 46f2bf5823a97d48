package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Manager, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.Manager == nil {
		return router
	}

	api := router.Group("/api")

	booksController := NewBooksController(cfg.Manager)
	api.GET("/books", booksController.ListBooks)
	api.POST("/books", booksController.CreateBook)
	api.POST("/books/import", booksController.ImportBook)
	api.GET("/books/:id", booksController.GetBook)
	api.DELETE("/books/:id", booksController.DeleteBook)

	quotesController := NewQuotesController(cfg.Manager)
	api.GET("/books/:id/quotes", quotesController.ListQuotes)
	api.POST("/books/:id/quotes", quotesController.CreateQuote)
	api.PUT("/quotes/:id", quotesController.UpdateQuote)
	api.DELETE("/quotes", quotesController.DeleteQuotes)

	logsController := NewReadingLogsController(cfg.Manager)
	api.GET("/books/:id/logs", logsController.ListLogs)
	api.POST("/books/:id/logs", logsController.CreateLog)
	api.PUT("/logs/:id", logsController.UpdateLog)
	api.DELETE("/logs/:id", logsController.DeleteLog)

	if cfg.Catalog != nil {
		searchController := NewSearchController(cfg.Catalog, cfg.SearchPageSize)
		api.GET("/search", searchController.Search)
	}

	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Manager)
		api.GET("/books/:id/cover", coversController.GetCover)
	}

	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/books/:id/cover/prefetch", tasksController.PrefetchCover)
	}

	if cfg.Replicator != nil {
		syncController := NewSyncController(cfg.Replicator)
		api.POST("/sync/run", syncController.RunSync)
	}

	return router
}
