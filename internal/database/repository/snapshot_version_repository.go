package repository

import (
	"gorm.io/gorm"

	"github.com/fschubi/shutterpilot/internal/models"
)

// SnapshotVersionRepository archives and lists configuration snapshots.
// It is an interface so the sync engine can be tested without a database.
type SnapshotVersionRepository interface {
	Create(version *models.SnapshotVersion) error
	GetByID(id string) (*models.SnapshotVersion, error)
	List(limit int) ([]*models.SnapshotVersion, error)
}

type snapshotVersionRepository struct {
	db *gorm.DB
}

func NewSnapshotVersionRepository(db *gorm.DB) SnapshotVersionRepository {
	return &snapshotVersionRepository{db: db}
}

// Create archives a snapshot version
func (r *snapshotVersionRepository) Create(version *models.SnapshotVersion) error {
	return r.db.Create(version).Error
}

// GetByID retrieves one archived snapshot
func (r *snapshotVersionRepository) GetByID(id string) (*models.SnapshotVersion, error) {
	var v models.SnapshotVersion
	err := r.db.First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns the most recent archived snapshots, newest first
func (r *snapshotVersionRepository) List(limit int) ([]*models.SnapshotVersion, error) {
	if limit <= 0 {
		limit = 50
	}
	var versions []*models.SnapshotVersion
	err := r.db.Order("created_at DESC").Limit(limit).Find(&versions).Error
	return versions, err
}
