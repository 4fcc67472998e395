package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectGalleryImage is one slot of a project's ordered image gallery
type ProjectGalleryImage struct {
	ProjectID uuid.UUID `json:"projectId" db:"project_id" gorm:"type:uuid;primaryKey;not null"`
	Position  int       `json:"position" db:"position" gorm:"primaryKey;autoIncrement:false;not null"`
	UploadID  uuid.UUID `json:"uploadId" db:"upload_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Upload *Upload `json:"upload,omitempty" gorm:"foreignKey:UploadID;references:ID;constraint:OnDelete:RESTRICT"`
}
