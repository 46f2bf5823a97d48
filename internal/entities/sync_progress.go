package entities

import (
	"time"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is the replication cursor for one cloud container. LastSeq is
// the highest ChangeTransaction.Seq already shipped.
type SyncProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ContainerID string     `gorm:"size:255;uniqueIndex" json:"container_id"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	LastSeq     uint       `json:"last_seq"`
	LastBatch   string     `gorm:"size:36" json:"last_batch,omitempty"`
	Shipped     int        `json:"shipped"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
