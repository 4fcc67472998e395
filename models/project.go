package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TextItem is a single bullet of a project's features or challenges list
type TextItem struct {
	Text string `json:"text" validate:"required"`
}

// Project represents a portfolio project with its media and technologies
type Project struct {
	ID              uuid.UUID                     `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title           string                        `json:"title" db:"title" gorm:"type:varchar(255);not null;index:idx_project_title"`
	Description     string                        `json:"description" db:"description" gorm:"type:text;not null"`
	LongDescription string                        `json:"longDescription" db:"long_description" gorm:"type:text;not null"`
	ImageID         uuid.UUID                     `json:"imageId" db:"image_id" gorm:"type:uuid;not null;index"`
	Image           *Upload                       `json:"image,omitempty" gorm:"foreignKey:ImageID;references:ID;constraint:OnDelete:RESTRICT"`
	LiveURL         *string                       `json:"liveUrl,omitempty" db:"live_url" gorm:"type:varchar(255)"`
	GithubURL       string                        `json:"githubUrl" db:"github_url" gorm:"type:varchar(255);not null"`
	Status          ProjectStatus                 `json:"status" db:"status" gorm:"type:varchar(32);not null;index:idx_project_status"`
	Featured        bool                          `json:"featured" db:"featured" gorm:"not null;index:idx_project_featured"`
	Duration        string                        `json:"duration" db:"duration" gorm:"type:varchar(255);not null"`
	Year            string                        `json:"year" db:"year" gorm:"type:varchar(16);not null"`
	Features        datatypes.JSONSlice[TextItem] `json:"features" db:"features"`
	Challenges      datatypes.JSONSlice[TextItem] `json:"challenges" db:"challenges"`
	CreatedAt       time.Time                     `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time                     `json:"updatedAt" db:"updated_at" gorm:"index:idx_project_updated_at"`

	Gallery             []ProjectGalleryImage `json:"gallery" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	ProjectTechnologies []ProjectTechnology   `json:"projectTechnologies" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TechnologyNames returns the names of the joined technologies in join order
func (p *Project) TechnologyNames() []string {
	names := make([]string, 0, len(p.ProjectTechnologies))
	for _, pt := range p.ProjectTechnologies {
		if pt.Technology != nil {
			names = append(names, pt.Technology.Name)
		}
	}
	return names
}
