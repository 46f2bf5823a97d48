package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/entities"
)

type fakeCovers struct {
	mu          sync.Mutex
	enqueued    []uint
	invalidated []uint
}

func (f *fakeCovers) EnqueueCoverPrefetch(bookID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, bookID)
	return nil
}

func (f *fakeCovers) Invalidate(bookID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, bookID)
	return nil
}

func (f *fakeCovers) snapshot() ([]uint, []uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint(nil), f.enqueued...), append([]uint(nil), f.invalidated...)
}

func TestHandleBookChanges(t *testing.T) {
	covers := &fakeCovers{}

	handleBookChanges(database.ChangeNotification{Changes: []entities.ChangeRef{
		{Entity: "books", ID: 1, Op: entities.ChangeOpInsert},
		{Entity: "quotes", ID: 9, Op: entities.ChangeOpInsert},
		{Entity: "books", ID: 2, Op: entities.ChangeOpUpdate},
		{Entity: "books", ID: 3, Op: entities.ChangeOpDelete},
	}}, covers, covers)

	enqueued, invalidated := covers.snapshot()
	assert.Equal(t, []uint{1, 2}, enqueued)
	assert.Equal(t, []uint{3}, invalidated)
}

func TestWatchBooks_FollowsCommits(t *testing.T) {
	manager, err := database.Open(database.Options{ContainerDir: t.TempDir(), LogLevel: logger.Silent})
	require.NoError(t, err)
	defer manager.Close()

	covers := &fakeCovers{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		WatchBooks(ctx, manager, covers, covers)
		close(done)
	}()

	// The subscription is registered asynchronously; commit until it is seen.
	require.Eventually(t, func() bool {
		err := manager.PerformAndSaveBlocking(func(s *database.Session) error {
			return s.Insert(&entities.Book{Title: "Dune"})
		})
		require.NoError(t, err)
		enqueued, _ := covers.snapshot()
		return len(enqueued) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
