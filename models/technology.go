package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Technology is an entry of the skills section that projects can be tagged with
type Technology struct {
	ID        uuid.UUID          `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Name      string             `json:"name" db:"name" gorm:"type:varchar(255);not null;index:idx_technology_name"`
	Category  TechnologyCategory `json:"category" db:"category" gorm:"type:varchar(32);not null;index:idx_technology_category"`
	URL       *string            `json:"url,omitempty" db:"url" gorm:"type:varchar(255)"`
	Github    *string            `json:"github,omitempty" db:"github" gorm:"type:varchar(255)"`
	ImageID   uuid.UUID          `json:"imageId" db:"image_id" gorm:"type:uuid;not null;index"`
	Image     *Upload            `json:"image,omitempty" gorm:"foreignKey:ImageID;references:ID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" db:"updated_at"`

	ProjectTechnologies []ProjectTechnology `json:"-" gorm:"foreignKey:TechnologyID;references:ID;constraint:OnDelete:CASCADE"`
}

func (t *Technology) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
