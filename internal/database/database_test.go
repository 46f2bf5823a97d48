package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/onmir/booktracker/internal/entities"
)

func setupTestManager(t *testing.T) *ContextManager {
	t.Helper()

	m, err := Open(Options{
		ContainerDir: t.TempDir(),
		LogLevel:     logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func insertBook(t *testing.T, m *ContextManager, title string) uint {
	t.Helper()

	id, err := PerformAndSaveBlocking(m, func(s *Session) (uint, error) {
		book := &entities.Book{Title: title}
		if err := s.Insert(book); err != nil {
			return 0, err
		}
		return book.ID, nil
	})
	require.NoError(t, err)
	return id
}

func TestOpen_CreatesStoreInContainer(t *testing.T) {
	container := t.TempDir()

	m, err := Open(Options{ContainerDir: container, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer m.Close()

	expected := filepath.Join(container, "Onmir", "CoreData", "ONMIR.sqlite")
	assert.Equal(t, expected, m.Path())
	_, err = os.Stat(expected)
	assert.NoError(t, err)
}

func TestOpen_RequiresLocation(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestOpen_AppliesStagesOnce(t *testing.T) {
	container := t.TempDir()
	calls := 0
	stages := []MigrationStage{{
		Name: "backfill_source",
		Migrate: func(tx *gorm.DB) error {
			calls++
			return tx.Model(&entities.Book{}).Where("source IS NULL").
				Update("source", entities.BookSourceGoogleBooks).Error
		},
	}}

	for i := 0; i < 2; i++ {
		m, err := Open(Options{ContainerDir: container, LogLevel: logger.Silent, Stages: stages})
		require.NoError(t, err)
		require.NoError(t, m.Close())
	}

	assert.Equal(t, 1, calls)
}

func TestOpen_DefaultStagesBackfillSource(t *testing.T) {
	container := t.TempDir()

	m, err := Open(Options{ContainerDir: container, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, m.DB().Exec("INSERT INTO books (title, source) VALUES (?, NULL)", "Legacy").Error)
	require.NoError(t, m.DB().Exec("DELETE FROM schema_stages").Error)
	require.NoError(t, m.Close())

	m, err = Open(Options{ContainerDir: container, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer m.Close()

	var source string
	require.NoError(t, m.DB().Raw("SELECT source FROM books WHERE title = ?", "Legacy").Scan(&source).Error)
	assert.Equal(t, string(entities.DefaultBookSource), source)

	var stages int64
	require.NoError(t, m.DB().Model(&entities.SchemaStage{}).Count(&stages).Error)
	assert.Equal(t, int64(len(migrationStages)), stages)
}

func TestOpen_FailingStage(t *testing.T) {
	stages := []MigrationStage{{
		Name:    "broken",
		Migrate: func(tx *gorm.DB) error { return errors.New("boom") },
	}}

	_, err := Open(Options{ContainerDir: t.TempDir(), LogLevel: logger.Silent, Stages: stages})
	assert.ErrorContains(t, err, "broken")
}

func TestPerformAndSave_CommitsAndReturnsValue(t *testing.T) {
	m := setupTestManager(t)

	id := insertBook(t, m, "Dune")
	assert.NotZero(t, id)

	var stored entities.Book
	require.NoError(t, m.MainSession().DB().First(&stored, id).Error)
	assert.Equal(t, "Dune", stored.Title)
	assert.Equal(t, entities.BookSourceGoogleBooks, stored.Source)
}

func TestPerformAndSave_BodyErrorDiscardsChanges(t *testing.T) {
	m := setupTestManager(t)
	errBody := errors.New("body failed")

	err := m.PerformAndSave(context.Background(), func(s *Session) error {
		if err := s.Insert(&entities.Book{Title: "Discarded"}); err != nil {
			return err
		}
		return errBody
	})
	assert.ErrorIs(t, err, errBody)

	var count int64
	require.NoError(t, m.MainSession().DB().Model(&entities.Book{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPerformAndSave_PanicDiscardsChanges(t *testing.T) {
	m := setupTestManager(t)

	err := m.PerformAndSaveBlocking(func(s *Session) error {
		if err := s.Insert(&entities.Book{Title: "Panicked"}); err != nil {
			return err
		}
		panic("unexpected")
	})
	assert.ErrorContains(t, err, "panic")

	var count int64
	require.NoError(t, m.MainSession().DB().Model(&entities.Book{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPerformAndSave_ConstraintViolationPropagates(t *testing.T) {
	m := setupTestManager(t)

	err := m.PerformAndSaveBlocking(func(s *Session) error {
		return s.Insert(&entities.Quote{BookID: 999, Content: "orphan"})
	})
	assert.Error(t, err)

	var count int64
	require.NoError(t, m.MainSession().DB().Model(&entities.Quote{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPerformAndSave_CancelledContextDoesNotRunBody(t *testing.T) {
	m := setupTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := m.PerformAndSave(ctx, func(s *Session) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestPerform_CancelledContextOnIdleExecutor(t *testing.T) {
	m := setupTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		s := m.NewDerivedSession()
		require.NoError(t, s.PerformAndWait(func() error { return nil }))

		ran := false
		err := s.Perform(ctx, func() error {
			ran = true
			return nil
		})
		s.Close()

		require.ErrorIs(t, err, context.Canceled)
		require.False(t, ran, "body ran on attempt %d", i)
	}
}

func TestResolve_TracksFieldChanges(t *testing.T) {
	m := setupTestManager(t)
	id := insertBook(t, m, "Old Title")

	err := m.PerformAndSaveBlocking(func(s *Session) error {
		book, err := s.ResolveBook(id)
		if err != nil {
			return err
		}
		book.Title = "New Title"
		book.Status = entities.BookStatusReading

		again, err := s.ResolveBook(id)
		if err != nil {
			return err
		}
		assert.Same(t, book, again)
		return nil
	})
	require.NoError(t, err)

	var stored entities.Book
	require.NoError(t, m.MainSession().DB().First(&stored, id).Error)
	assert.Equal(t, "New Title", stored.Title)
	assert.Equal(t, entities.BookStatusReading, stored.Status)
}

func TestResolve_NotFound(t *testing.T) {
	m := setupTestManager(t)

	_, err := PerformQueryBlocking(m, func(s *Session) (*entities.Quote, error) {
		return s.ResolveQuote(42)
	})
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "quotes", nf.Entity)
	assert.Equal(t, uint(42), nf.ID)
}

func TestConcurrentSessions_MergeByField(t *testing.T) {
	m := setupTestManager(t)
	id := insertBook(t, m, "Original")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- m.PerformAndSave(context.Background(), func(s *Session) error {
			book, err := s.ResolveBook(id)
			if err != nil {
				return err
			}
			book.Title = "Edited Title"
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		errs <- m.PerformAndSave(context.Background(), func(s *Session) error {
			book, err := s.ResolveBook(id)
			if err != nil {
				return err
			}
			book.Rating = 4.5
			return nil
		})
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var stored entities.Book
	require.NoError(t, m.MainSession().DB().First(&stored, id).Error)
	assert.Equal(t, "Edited Title", stored.Title)
	assert.Equal(t, 4.5, stored.Rating)
}

func TestSession_RunsInSubmissionOrder(t *testing.T) {
	m := setupTestManager(t)
	s := m.NewDerivedSession()
	defer s.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, s.PerformAndWait(func() error {
			order = append(order, i)
			return nil
		}))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSession_ClosedRejectsWork(t *testing.T) {
	m := setupTestManager(t)
	s := m.NewDerivedSession()
	s.Close()

	err := s.PerformAndWait(func() error { return nil })
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_ManualUnitOfWork(t *testing.T) {
	m := setupTestManager(t)
	s := m.NewDerivedSession()
	defer s.Close()

	err := s.PerformAndWait(func() error {
		assert.ErrorIs(t, s.Insert(&entities.Book{Title: "No tx"}), ErrNoTransaction)
		require.NoError(t, s.Begin())
		assert.ErrorIs(t, s.Begin(), ErrTransactionOpen)
		require.NoError(t, s.Insert(&entities.Book{Title: "Rolled back"}))
		return s.Rollback()
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, m.MainSession().DB().Model(&entities.Book{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMainSession_IsReadOnly(t *testing.T) {
	m := setupTestManager(t)

	err := m.MainSession().PerformAndWait(func() error {
		return m.MainSession().Begin()
	})
	assert.ErrorIs(t, err, ErrReadOnlySession)
}

func TestMainSession_SeesDerivedCommits(t *testing.T) {
	m := setupTestManager(t)
	main := m.MainSession()

	insertBook(t, m, "First")

	count, err := countBooks(main)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	insertBook(t, m, "Second")

	count, err = countBooks(main)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func countBooks(s *Session) (int64, error) {
	var count int64
	err := s.PerformAndWait(func() error {
		return s.DB().Model(&entities.Book{}).Count(&count).Error
	})
	return count, err
}

func TestSubscribe_ReceivesCommitNotifications(t *testing.T) {
	m := setupTestManager(t)
	changes, cancel := m.Subscribe()
	defer cancel()

	id := insertBook(t, m, "Observed")

	select {
	case n := <-changes:
		assert.NotEmpty(t, n.TransactionUUID)
		assert.True(t, n.Touches("books"))
		require.Len(t, n.Changes, 1)
		assert.Equal(t, entities.ChangeRef{Entity: "books", ID: id, Op: entities.ChangeOpInsert}, n.Changes[0])
	case <-time.After(2 * time.Second):
		t.Fatal("no notification received")
	}
}

func TestSubscribe_NoNotificationWithoutChanges(t *testing.T) {
	m := setupTestManager(t)
	changes, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.PerformAndSaveBlocking(func(s *Session) error { return nil }))

	select {
	case n := <-changes:
		t.Fatalf("unexpected notification %+v", n)
	default:
	}
}

func TestChangesSince_FoldsOperationsPerRecord(t *testing.T) {
	m := setupTestManager(t)
	id := insertBook(t, m, "History")

	err := m.PerformAndSaveBlocking(func(s *Session) error {
		book, err := s.ResolveBook(id)
		if err != nil {
			return err
		}
		book.Title = "Changed"
		return nil
	})
	require.NoError(t, err)

	err = m.PerformAndSaveBlocking(func(s *Session) error {
		book, err := s.ResolveBook(id)
		if err != nil {
			return err
		}
		book.Title = "Changed again"
		return s.Delete(book)
	})
	require.NoError(t, err)

	txns, err := m.ChangesSince(0, 0)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, entities.ChangeOpInsert, txns[0].Changes[0].Op)
	assert.Equal(t, entities.ChangeOpUpdate, txns[1].Changes[0].Op)
	require.Len(t, txns[2].Changes, 1)
	assert.Equal(t, entities.ChangeOpDelete, txns[2].Changes[0].Op)

	later, err := m.ChangesSince(txns[0].Seq, 1)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, txns[1].UUID, later[0].UUID)
}

func TestSession_UpdateNamedColumns(t *testing.T) {
	m := setupTestManager(t)
	id := insertBook(t, m, "Detached")

	err := m.PerformAndSaveBlocking(func(s *Session) error {
		return s.Update(&entities.Book{ID: id, Title: "ignored", Rating: 3}, "rating")
	})
	require.NoError(t, err)

	var stored entities.Book
	require.NoError(t, m.MainSession().DB().First(&stored, id).Error)
	assert.Equal(t, "Detached", stored.Title)
	assert.Equal(t, 3.0, stored.Rating)

	err = m.PerformAndSaveBlocking(func(s *Session) error {
		return s.Update(&entities.Book{ID: 4242, Rating: 1}, "rating")
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
