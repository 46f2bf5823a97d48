package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/onmir/booktracker/internal/entities"
)

const (
	storeDirName  = "Onmir"
	storeSubDir   = "CoreData"
	storeFileName = "ONMIR.sqlite"
)

// Options configures how the record store is opened.
type Options struct {
	// Path is the sqlite file. When empty it is derived from ContainerDir.
	Path string
	// ContainerDir is the shared application container holding the store.
	ContainerDir string
	// LogLevel is passed to the gorm logger.
	LogLevel logger.LogLevel
	// Stages overrides the migration stages applied after AutoMigrate.
	Stages []MigrationStage
}

// StorePath returns the store file location inside a container directory.
func StorePath(containerDir string) string {
	return filepath.Join(containerDir, storeDirName, storeSubDir, storeFileName)
}

// ContextManager owns the record store and hands out sessions against it.
type ContextManager struct {
	db   *gorm.DB
	path string
	main *Session

	sessionSeq atomic.Uint64

	subMu       sync.Mutex
	subscribers map[int]chan ChangeNotification
	nextSubID   int
}

// Open creates the store directory if needed, opens the sqlite file and
// brings the schema up to date.
func Open(opts Options) (*ContextManager, error) {
	path := opts.Path
	if path == "" {
		if opts.ContainerDir == "" {
			return nil, fmt.Errorf("store path or container directory is required")
		}
		path = StorePath(opts.ContainerDir)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	logLevel := opts.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.ReadingLog{},
		&entities.Quote{},
		&entities.ChangeTransaction{},
		&entities.SchemaStage{},
		&entities.SyncProgress{},
	)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	stages := opts.Stages
	if stages == nil {
		stages = migrationStages
	}
	if err := applyStages(db, stages); err != nil {
		closeDB(db)
		return nil, err
	}

	m := &ContextManager{
		db:          db,
		path:        path,
		subscribers: make(map[int]chan ChangeNotification),
	}
	m.main = newSession(m, "main", true)

	log.Printf("[STORE] Record store opened at %s", path)

	return m, nil
}

// dsn enables WAL so main-session reads do not wait on writers, and takes
// the write lock when a transaction begins so concurrent derived sessions
// queue on the busy timeout instead of failing on lock upgrade.
func dsn(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// Path returns the store file location.
func (m *ContextManager) Path() string {
	return m.path
}

// MainSession returns the read-primary session. It holds no cached state, so
// every read sees the latest committed data of all derived sessions.
func (m *ContextManager) MainSession() *Session {
	return m.main
}

// NewDerivedSession returns a session for background work. The caller must
// Close it.
func (m *ContextManager) NewDerivedSession() *Session {
	n := m.sessionSeq.Add(1)
	return newSession(m, fmt.Sprintf("derived-%d", n), false)
}

// DB returns the raw store handle for bookkeeping tables such as the
// replication cursor. Writes made through it bypass sessions and are not
// recorded in the change history.
func (m *ContextManager) DB() *gorm.DB {
	return m.db
}

// Close stops the main session, closes subscriber channels and the store.
func (m *ContextManager) Close() error {
	m.main.Close()

	m.subMu.Lock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	m.subMu.Unlock()

	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
