package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload is the stored metadata of a file that was already transferred to
// object storage. Projects and technologies reference uploads, never embed them.
type Upload struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Name      string    `json:"name" db:"name" gorm:"type:varchar(255);not null"`
	URL       string    `json:"url" db:"url" gorm:"type:varchar(255);not null"`
	Key       string    `json:"key" db:"key" gorm:"type:varchar(255);not null;uniqueIndex:idx_upload_key"`
	Size      string    `json:"size" db:"size" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
