package entities

import "time"

type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "insert"
	ChangeOpUpdate ChangeOp = "update"
	ChangeOpDelete ChangeOp = "delete"
)

// ChangeRef names one record touched by a committed transaction.
type ChangeRef struct {
	Entity string   `json:"entity"`
	ID     uint     `json:"id"`
	Op     ChangeOp `json:"op"`
}

// ChangeTransaction is the persistent history entry written for every commit
// of a derived session. Seq orders entries; UUID identifies them outside the
// store.
type ChangeTransaction struct {
	Seq       uint        `gorm:"primaryKey;autoIncrement" json:"seq"`
	UUID      string      `gorm:"uniqueIndex;size:36" json:"uuid"`
	Author    string      `gorm:"size:100" json:"author"`
	Changes   []ChangeRef `gorm:"serializer:json;type:text" json:"changes"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (ChangeTransaction) TableName() string {
	return "change_transactions"
}

// SchemaStage records an applied migration stage.
type SchemaStage struct {
	Name      string    `gorm:"primaryKey;size:100" json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

func (SchemaStage) TableName() string {
	return "schema_stages"
}
