package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectTechnology links one project to one technology. Rows are owned
// jointly by both parents and removed when either is deleted.
type ProjectTechnology struct {
	ProjectID    uuid.UUID `json:"projectId" db:"project_id" gorm:"type:uuid;primaryKey;not null"`
	TechnologyID uuid.UUID `json:"technologyId" db:"technology_id" gorm:"type:uuid;primaryKey;not null;index:idx_project_technology_technology_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	Technology *Technology `json:"technology,omitempty" gorm:"foreignKey:TechnologyID;references:ID"`
}
