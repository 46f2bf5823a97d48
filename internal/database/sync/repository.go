// Package sync stores the cloud replication cursor of each container.
//
// The cursor lives in the record store but outside the change history: the
// replicator writes it directly so its own bookkeeping is never replicated.
//
// # Usage
//
//	repo := sync.NewRepository(manager.DB(), "iCloud.msg.onmir")
//	progress, err := repo.Start()
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/onmir/booktracker/internal/entities"
)

// staleAfter is how long a running replication may go without an update
// before it is treated as interrupted.
const staleAfter = 10 * time.Minute

// ErrAlreadyRunning is returned by Start while another run is active.
var ErrAlreadyRunning = errors.New("replication already running")

// Repository handles the sync progress row of one container.
type Repository struct {
	db          *gorm.DB
	containerID string
}

func NewRepository(db *gorm.DB, containerID string) *Repository {
	return &Repository{db: db, containerID: containerID}
}

// Get returns the container's progress. A container that never replicated
// has a zero cursor and no error.
func (r *Repository) Get() (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.Where("container_id = ?", r.containerID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.SyncProgress{ContainerID: r.containerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Start marks a run as active and returns the cursor to resume from. The
// check and the claim share one transaction, so with an immediate-lock store
// only one of two concurrent callers gets the run.
func (r *Repository) Start() (*entities.SyncProgress, error) {
	var progress *entities.SyncProgress
	err := r.db.Transaction(func(tx *gorm.DB) error {
		repo := &Repository{db: tx, containerID: r.containerID}

		running, err := repo.IsRunning()
		if err != nil {
			return err
		}
		if running {
			return ErrAlreadyRunning
		}

		progress, err = repo.Get()
		if err != nil {
			return err
		}

		now := time.Now()
		progress.Status = entities.SyncStatusRunning
		progress.Shipped = 0
		progress.Error = ""
		progress.StartedAt = now
		progress.UpdatedAt = now
		progress.CompletedAt = nil

		return tx.Save(progress).Error
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// Advance moves the cursor past a batch that has been written out.
func (r *Repository) Advance(lastSeq uint, batchID string, shipped int) error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("container_id = ?", r.containerID).
		Updates(map[string]any{
			"last_seq":   lastSeq,
			"last_batch": batchID,
			"shipped":    gorm.Expr("shipped + ?", shipped),
			"updated_at": time.Now(),
		}).Error
}

// Complete ends the active run. The cursor is kept either way.
func (r *Repository) Complete(succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	if !succeeded {
		status = entities.SyncStatusFailed
	}

	return r.db.Model(&entities.SyncProgress{}).
		Where("container_id = ?", r.containerID).
		Updates(map[string]any{
			"status":       status,
			"error":        errorMsg,
			"updated_at":   now,
			"completed_at": now,
		}).Error
}

// IsRunning reports whether a run is active. A run with no update for
// staleAfter is closed as interrupted.
func (r *Repository) IsRunning() (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("container_id = ? AND status = ?", r.containerID, entities.SyncStatusRunning).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-staleAfter)) {
		_ = r.Complete(false, "replication was interrupted")
		return false, nil
	}
	return true, nil
}
