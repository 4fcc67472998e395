package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/gorm"
)

type UploadRepo struct {
	db *gorm.DB
}

func NewUploadRepo(db *gorm.DB) *UploadRepo {
	return &UploadRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *UploadRepo) GetDB() *gorm.DB {
	return r.db
}

// FindAll returns all uploads from the database
func (r *UploadRepo) FindAll(ctx context.Context) ([]*models.Upload, error) {
	uploads := make([]*models.Upload, 0)
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&uploads).Error
	return uploads, err
}

// FindByID returns an upload by its ID, or nil when it does not exist
func (r *UploadRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	var upload models.Upload
	err := r.db.WithContext(ctx).First(&upload, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// FindByKey returns the upload stored under an object key, or nil
func (r *UploadRepo) FindByKey(ctx context.Context, key string) (*models.Upload, error) {
	var upload models.Upload
	err := r.db.WithContext(ctx).Where(map[string]any{"key": key}).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// Add inserts the metadata of a completed upload
func (r *UploadRepo) Add(ctx context.Context, upload *models.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}
