// Package tasks runs background work on a backlite queue stored next to the
// record store.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the task database and the backlite workers.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	path   string

	mu      sync.RWMutex
	started bool
}

// TasksDBPath returns the task database that belongs to a store file:
// ONMIR.sqlite becomes ONMIR-tasks.sqlite.
func TasksDBPath(storePath string) string {
	ext := filepath.Ext(storePath)
	return strings.TrimSuffix(storePath, ext) + "-tasks" + ext
}

// NewClient opens (and installs) the task database for the given store.
func NewClient(storePath string, cfg Config) (*Client, error) {
	path := TasksDBPath(storePath)

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &stdLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create backlite client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install backlite schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
		path:   path,
	}, nil
}

// Register adds queues. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks; it does not block.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("[TASK] Queue started with %d workers (%s)", c.config.Workers, c.path)
	c.client.Start(ctx)
}

// Stop waits for running tasks until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	ok := c.client.Stop(ctx)
	if ok {
		log.Println("[TASK] Queue stopped")
	} else {
		log.Println("[TASK] Queue stopped before all tasks completed")
	}
	return ok
}

func (c *Client) Close() error {
	return c.db.Close()
}

// EnqueueCoverPrefetch schedules a cover download for the book.
func (c *Client) EnqueueCoverPrefetch(bookID uint) error {
	_, err := c.AddCoverPrefetch(bookID)
	return err
}

// AddCoverPrefetch schedules a cover download and returns the task id.
func (c *Client) AddCoverPrefetch(bookID uint) (string, error) {
	ids, err := c.client.Add(PrefetchCoverTask{BookID: bookID}).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue cover prefetch for book %d: %w", bookID, err)
	}
	return ids[0], nil
}

// Status returns the state of a task by id.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

type stdLogger struct{}

func (l *stdLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (l *stdLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
