package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TechnologyInput carries every writable technology column. Updates replace
// all of them.
type TechnologyInput struct {
	Name     string
	Category models.TechnologyCategory
	URL      *string
	Github   *string
	ImageID  uuid.UUID
}

type TechnologyRepo struct {
	db *gorm.DB
}

func NewTechnologyRepo(db *gorm.DB) *TechnologyRepo {
	return &TechnologyRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *TechnologyRepo) GetDB() *gorm.DB {
	return r.db
}

func (r *TechnologyRepo) find(ctx context.Context, query interface{}, args ...interface{}) ([]*models.Technology, error) {
	technologies := make([]*models.Technology, 0)
	tx := r.db.WithContext(ctx).Preload("Image")
	if query != nil {
		tx = tx.Where(query, args...)
	}
	err := tx.Order("name ASC").Find(&technologies).Error
	return technologies, err
}

// FindAll returns all technologies with their image
func (r *TechnologyRepo) FindAll(ctx context.Context) ([]*models.Technology, error) {
	return r.find(ctx, nil)
}

// FindByCategory returns the technologies of one category
func (r *TechnologyRepo) FindByCategory(ctx context.Context, category models.TechnologyCategory) ([]*models.Technology, error) {
	return r.find(ctx, "category = ?", category)
}

// FindByName matches the full stored name exactly; substrings do not match
func (r *TechnologyRepo) FindByName(ctx context.Context, name string) ([]*models.Technology, error) {
	return r.find(ctx, "name = ?", name)
}

// FindByID returns a technology by its ID, or nil when it does not exist
func (r *TechnologyRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Technology, error) {
	var technology models.Technology
	err := r.db.WithContext(ctx).Preload("Image").First(&technology, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &technology, nil
}

// Add inserts a new technology after checking its image reference
func (r *TechnologyRepo) Add(ctx context.Context, in TechnologyInput) (*models.Technology, error) {
	if !in.Category.Valid() {
		return nil, invalidValue("category")
	}

	technology := &models.Technology{
		Name:     in.Name,
		Category: in.Category,
		URL:      in.URL,
		Github:   in.Github,
		ImageID:  in.ImageID,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExisting(tx, &models.Upload{}, "image", in.ImageID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(technology).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, technology.ID)
}

// Replace overwrites every writable column of an existing technology
func (r *TechnologyRepo) Replace(ctx context.Context, id uuid.UUID, in TechnologyInput) (*models.Technology, error) {
	if !in.Category.Valid() {
		return nil, invalidValue("category")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExisting(tx, &models.Technology{}, "id", id); err != nil {
			if errors.Is(err, ErrInvalidReference) {
				return ErrNotFound
			}
			return err
		}
		if err := requireExisting(tx, &models.Upload{}, "image", in.ImageID); err != nil {
			return err
		}
		return tx.Model(&models.Technology{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":       in.Name,
			"category":   in.Category,
			"url":        in.URL,
			"github":     in.Github,
			"image_id":   in.ImageID,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a technology and every join row that references it
func (r *TechnologyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("technology_id = ?", id).Delete(&models.ProjectTechnology{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Technology{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
