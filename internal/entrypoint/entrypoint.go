package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/cloudsync"
	"github.com/onmir/booktracker/internal/config"
	"github.com/onmir/booktracker/internal/covers"
	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/googlebooks"
	http_controllers "github.com/onmir/booktracker/internal/http"
	"github.com/onmir/booktracker/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server so nothing is enqueued
	// against a closing store.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// OpenStore opens the record store described by cfg.
func OpenStore(cfg config.Database) (*database.ContextManager, error) {
	return database.Open(database.Options{
		Path:         cfg.Path,
		ContainerDir: cfg.ContainerDir,
		LogLevel:     cfg.GormLogLevel(),
	})
}

// NewCatalog builds the Google Books client from cfg.
func NewCatalog(cfg config.GoogleBooks) *googlebooks.Client {
	return googlebooks.NewClient(googlebooks.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting booktracker v%s", version)

	manager, err := OpenStore(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Printf("Error closing record store: %v", err)
		}
	}()

	catalog := NewCatalog(cfg.GoogleBooks)

	coverCache, err := covers.NewCache(cfg.Covers.Dir, cfg.Covers.Timeout)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", coverCache.Dir())
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Task queue: cover downloads follow book changes in the store.
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled && coverCache != nil {
		taskClient, err = tasks.NewClient(manager.Path(), tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewPrefetchCoverQueue(manager, coverCache))
		go taskClient.Start(bgCtx)
		go tasks.WatchBooks(bgCtx, manager, taskClient, coverCache)
	}

	var replicator *cloudsync.Replicator
	var scheduler *cloudsync.Scheduler
	if cfg.CloudSync.Enabled {
		replicator, err = cloudsync.NewReplicator(manager, cloudsync.Config{
			Enabled:     true,
			Dir:         cfg.CloudSync.Dir,
			ContainerID: cfg.CloudSync.ContainerID,
			Schedule:    cfg.CloudSync.Schedule,
			BatchSize:   cfg.CloudSync.BatchSize,
		})
		if err != nil {
			log.Printf("WARNING: Cloud sync disabled: %v", err)
			replicator = nil
		} else {
			scheduler = cloudsync.NewScheduler(replicator, cfg.CloudSync.Schedule)
			if err := scheduler.Start(bgCtx); err != nil {
				log.Printf("WARNING: Failed to start sync scheduler: %v", err)
				scheduler = nil
			}
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Manager:        manager,
		Catalog:        catalog,
		CoverCache:     coverCache,
		TaskClient:     taskClient,
		SearchPageSize: cfg.GoogleBooks.PageSize,
		Version:        version,
	}
	// A nil *Replicator in the interface field would still enable the route.
	if replicator != nil {
		routerCfg.Replicator = replicator
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if scheduler != nil {
			scheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
	}

	Serve(router, cfg, onShutdown)
}
