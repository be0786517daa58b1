package models

import (
	"time"
)

// Snapshot version sources.
const (
	VersionSourceLoad = "load"
	VersionSourceSave = "save"
)

// SnapshotVersion archives one configuration snapshot for diagnostics.
// A row is written on every successful load and on every optimistic save.
type SnapshotVersion struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	Source    string    `json:"source" gorm:"type:varchar(16);not null;index"`
	EntryID   string    `json:"entry_id" gorm:"type:varchar(64);index"`
	Payload   JSON      `json:"payload" gorm:"type:jsonb;not null"`
}

// TableName specifies the table name for the SnapshotVersion model
func (SnapshotVersion) TableName() string {
	return "snapshot_versions"
}
