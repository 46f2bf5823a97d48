package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/entities"
)

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, "/data/ONMIR-tasks.sqlite", TasksDBPath("/data/ONMIR.sqlite"))
	assert.Equal(t, "/data/store-tasks", TasksDBPath("/data/store"))
}

func TestNewClient_CreatesTasksDatabase(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "ONMIR.sqlite")
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(storePath, cfg)
	require.NoError(t, err)
	defer client.Close()

	_, err = os.Stat(TasksDBPath(storePath))
	assert.NoError(t, err)
}

func TestClient_StopBeforeStart(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "s.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.Stop(context.Background()))
}

func TestPrefetchCoverTaskConfig(t *testing.T) {
	cfg := PrefetchCoverTask{BookID: 1}.Config()

	assert.Equal(t, "prefetch_cover", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

type recordingFetcher struct {
	calls chan string
}

func (f *recordingFetcher) Get(ctx context.Context, bookID uint, coverURL string) (string, error) {
	f.calls <- coverURL
	return "/tmp/cover", nil
}

func TestPrefetchCover_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	manager, err := database.Open(database.Options{ContainerDir: dir, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer manager.Close()

	cfg := DefaultConfig()
	cfg.Workers = 1
	client, err := NewClient(manager.Path(), cfg)
	require.NoError(t, err)
	defer client.Close()

	fetcher := &recordingFetcher{calls: make(chan string, 1)}
	client.Register(NewPrefetchCoverQueue(manager, fetcher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
	}()

	bookID, err := database.PerformAndSaveBlocking(manager, func(s *database.Session) (uint, error) {
		b := &entities.Book{Title: "Dune", CoverImageURL: "https://books.google.com/dune.jpg"}
		if err := s.Insert(b); err != nil {
			return 0, err
		}
		return b.ID, nil
	})
	require.NoError(t, err)

	require.NoError(t, client.EnqueueCoverPrefetch(bookID))

	select {
	case url := <-fetcher.calls:
		assert.Equal(t, "https://books.google.com/dune.jpg", url)
	case <-time.After(5 * time.Second):
		t.Fatal("cover prefetch did not run")
	}
}

func TestPrefetchCoverProcessor_MissingBook(t *testing.T) {
	manager, err := database.Open(database.Options{ContainerDir: t.TempDir(), LogLevel: logger.Silent})
	require.NoError(t, err)
	defer manager.Close()

	fetcher := &recordingFetcher{calls: make(chan string, 1)}
	process := PrefetchCoverProcessor(manager, fetcher)

	assert.NoError(t, process(context.Background(), PrefetchCoverTask{BookID: 404}))
	assert.Empty(t, fetcher.calls)
}
