package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectInput carries every creatable project field plus the ids of the
// technologies to link.
type ProjectInput struct {
	Title           string
	Description     string
	LongDescription string
	ImageID         uuid.UUID
	LiveURL         *string
	GithubURL       string
	Status          models.ProjectStatus
	Featured        bool
	Duration        string
	Year            string
	Features        []models.TextItem
	Challenges      []models.TextItem
	Gallery         []uuid.UUID
	Technologies    []uuid.UUID
}

// ProjectUpdate holds the subset of fields to change. Nil fields are left
// untouched; a non-nil Technologies or Gallery replaces the whole list.
type ProjectUpdate struct {
	Title           *string
	Description     *string
	LongDescription *string
	ImageID         *uuid.UUID
	LiveURL         *string
	GithubURL       *string
	Status          *models.ProjectStatus
	Featured        *bool
	Duration        *string
	Year            *string
	Features        *[]models.TextItem
	Challenges      *[]models.TextItem
	Gallery         *[]uuid.UUID
	Technologies    *[]uuid.UUID
}

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *ProjectRepo) GetDB() *gorm.DB {
	return r.db
}

// withProjectRelations preloads the image, the ordered gallery and the joined technologies
func withProjectRelations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Image").
		Preload("Gallery", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Gallery.Upload").
		Preload("ProjectTechnologies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("ProjectTechnologies.Technology")
}

func (r *ProjectRepo) find(ctx context.Context, query interface{}, args ...interface{}) ([]*models.Project, error) {
	projects := make([]*models.Project, 0)
	tx := withProjectRelations(r.db.WithContext(ctx))
	if query != nil {
		tx = tx.Where(query, args...)
	}
	err := tx.Find(&projects).Error
	return projects, err
}

// FindAll returns all projects with their relations
func (r *ProjectRepo) FindAll(ctx context.Context) ([]*models.Project, error) {
	return r.find(ctx, nil)
}

// FindByStatus returns the projects with the given status
func (r *ProjectRepo) FindByStatus(ctx context.Context, status models.ProjectStatus) ([]*models.Project, error) {
	return r.find(ctx, "status = ?", status)
}

// FindByFeatured returns the projects whose featured flag equals featured
func (r *ProjectRepo) FindByFeatured(ctx context.Context, featured bool) ([]*models.Project, error) {
	return r.find(ctx, "featured = ?", featured)
}

// FindByTitle matches the full stored title exactly; substrings do not match
func (r *ProjectRepo) FindByTitle(ctx context.Context, title string) ([]*models.Project, error) {
	return r.find(ctx, "title = ?", title)
}

// FindByID returns a project by its ID, or nil when it does not exist
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := withProjectRelations(r.db.WithContext(ctx)).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Add inserts a project with its gallery and technology links in one transaction
func (r *ProjectRepo) Add(ctx context.Context, in ProjectInput) (*models.Project, error) {
	if !in.Status.Valid() {
		return nil, invalidValue("status")
	}

	project := &models.Project{
		Title:           in.Title,
		Description:     in.Description,
		LongDescription: in.LongDescription,
		ImageID:         in.ImageID,
		LiveURL:         in.LiveURL,
		GithubURL:       in.GithubURL,
		Status:          in.Status,
		Featured:        in.Featured,
		Duration:        in.Duration,
		Year:            in.Year,
		Features:        textItems(in.Features),
		Challenges:      textItems(in.Challenges),
	}
	technologyIDs := uniqueIDs(in.Technologies)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExisting(tx, &models.Upload{}, "image", in.ImageID); err != nil {
			return err
		}
		if err := requireExisting(tx, &models.Upload{}, "gallery", in.Gallery...); err != nil {
			return err
		}
		if err := requireExisting(tx, &models.Technology{}, "technologies", technologyIDs...); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		if err := replaceGallery(tx, project.ID, in.Gallery); err != nil {
			return err
		}
		return replaceTechnologies(tx, project.ID, technologyIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, project.ID)
}

// Update applies the supplied fields and replaces the supplied lists in one transaction
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, in ProjectUpdate) (*models.Project, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, invalidValue("status")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExisting(tx, &models.Project{}, "id", id); err != nil {
			if errors.Is(err, ErrInvalidReference) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.LongDescription != nil {
			updates["long_description"] = *in.LongDescription
		}
		if in.ImageID != nil {
			if err := requireExisting(tx, &models.Upload{}, "image", *in.ImageID); err != nil {
				return err
			}
			updates["image_id"] = *in.ImageID
		}
		if in.LiveURL != nil {
			updates["live_url"] = *in.LiveURL
		}
		if in.GithubURL != nil {
			updates["github_url"] = *in.GithubURL
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.Featured != nil {
			updates["featured"] = *in.Featured
		}
		if in.Duration != nil {
			updates["duration"] = *in.Duration
		}
		if in.Year != nil {
			updates["year"] = *in.Year
		}
		if in.Features != nil {
			updates["features"] = textItems(*in.Features)
		}
		if in.Challenges != nil {
			updates["challenges"] = textItems(*in.Challenges)
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if in.Gallery != nil {
			if err := requireExisting(tx, &models.Upload{}, "gallery", *in.Gallery...); err != nil {
				return err
			}
			if err := replaceGallery(tx, id, *in.Gallery); err != nil {
				return err
			}
		}
		if in.Technologies != nil {
			technologyIDs := uniqueIDs(*in.Technologies)
			if err := requireExisting(tx, &models.Technology{}, "technologies", technologyIDs...); err != nil {
				return err
			}
			if err := replaceTechnologies(tx, id, technologyIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a project together with its gallery and technology links
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// join rows cascade in postgres; deleted here as well for engines without foreign keys
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectTechnology{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectGalleryImage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TechnologyIDs returns the ids currently linked to a project
func (r *ProjectRepo) TechnologyIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ProjectTechnology{}).
		Where("project_id = ?", projectID).
		Pluck("technology_id", &ids).Error
	return ids, err
}

func replaceTechnologies(tx *gorm.DB, projectID uuid.UUID, technologyIDs []uuid.UUID) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectTechnology{}).Error; err != nil {
		return err
	}
	if len(technologyIDs) == 0 {
		return nil
	}

	links := make([]models.ProjectTechnology, 0, len(technologyIDs))
	for _, technologyID := range technologyIDs {
		links = append(links, models.ProjectTechnology{ProjectID: projectID, TechnologyID: technologyID})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

func replaceGallery(tx *gorm.DB, projectID uuid.UUID, uploadIDs []uuid.UUID) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectGalleryImage{}).Error; err != nil {
		return err
	}
	if len(uploadIDs) == 0 {
		return nil
	}

	images := make([]models.ProjectGalleryImage, 0, len(uploadIDs))
	for position, uploadID := range uploadIDs {
		images = append(images, models.ProjectGalleryImage{ProjectID: projectID, Position: position, UploadID: uploadID})
	}
	return tx.Omit(clause.Associations).Create(&images).Error
}

// textItems never returns nil so the JSON column always holds a list
func textItems(items []models.TextItem) datatypes.JSONSlice[models.TextItem] {
	if items == nil {
		items = []models.TextItem{}
	}
	return datatypes.NewJSONSlice(items)
}
